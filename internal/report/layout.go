package report

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
)

type document struct {
	Submitter   string
	Source      string
	GeneratedAt time.Time
	Analysis    string
	Transcript  string
}

const (
	fontFamily = "Helvetica"
	lineHeight = 5.5
)

// buildDocument lays out title, metadata, analysis, a page break and the transcript.
// Streams stay uncompressed so the text can be searched in the file.
func buildDocument(d document) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetTitle("Relatório de Análise de Áudio", true)
	pdf.SetCreator("audio-insights-go", true)
	pdf.SetCreationDate(d.GeneratedAt)
	// core fonts are cp1252 only; runes outside it (emoji, invalid UTF-8) are dropped
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont(fontFamily, "B", 18)
	pdf.SetTextColor(31, 56, 100)
	pdf.MultiCell(0, 9, tr("Relatório de Análise de Áudio"), "", "C", false)
	pdf.Ln(4)

	pdf.SetFont(fontFamily, "", 10)
	pdf.SetTextColor(60, 60, 60)
	for _, kv := range [][2]string{
		{"Enviado por", d.Submitter},
		{"Arquivo de origem", d.Source},
		{"Gerado em", d.GeneratedAt.Format("02/01/2006 15:04:05")},
	} {
		pdf.SetFont(fontFamily, "B", 10)
		pdf.CellFormat(40, lineHeight, tr(kv[0]+":"), "", 0, "L", false, 0, "")
		pdf.SetFont(fontFamily, "", 10)
		pdf.MultiCell(0, lineHeight, tr(kv[1]), "", "L", false)
	}
	pdf.Ln(6)

	sectionTitle(pdf, tr("Análise"))
	writeMarkdown(pdf, tr, d.Analysis)

	pdf.AddPage()
	sectionTitle(pdf, tr("Transcrição Completa"))
	pdf.SetFont(fontFamily, "", 10)
	for _, para := range paragraphs(d.Transcript) {
		pdf.MultiCell(0, lineHeight, tr(para), "", "J", false)
		pdf.Ln(2)
	}
	return pdf
}

func sectionTitle(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont(fontFamily, "B", 14)
	pdf.SetTextColor(31, 56, 100)
	pdf.MultiCell(0, 8, title, "", "L", false)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(2)
}

// writeMarkdown renders headings in bold and every other line as its own paragraph.
func writeMarkdown(pdf *fpdf.Fpdf, tr func(string) string, md string) {
	for _, raw := range strings.Split(strings.ReplaceAll(md, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			pdf.Ln(2)
		case strings.HasPrefix(line, "#"):
			pdf.Ln(1)
			pdf.SetFont(fontFamily, "B", 12)
			pdf.MultiCell(0, 7, tr(stripInline(strings.TrimLeft(line, "# "))), "", "L", false)
		case strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* "):
			pdf.SetFont(fontFamily, "", 10)
			pdf.MultiCell(0, lineHeight, tr("• "+stripInline(line[2:])), "", "L", false)
		default:
			pdf.SetFont(fontFamily, "", 10)
			pdf.MultiCell(0, lineHeight, tr(stripInline(line)), "", "L", false)
		}
	}
}

// stripInline drops emphasis markers; core fonts have no inline bold runs.
func stripInline(s string) string {
	for _, m := range []string{"**", "__", "`"} {
		s = strings.ReplaceAll(s, m, "")
	}
	return strings.TrimSpace(s)
}

func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// unrepresentable counts the runes of s the cp1252 core fonts cannot draw.
func unrepresentable(s string) int {
	n := 0
	for _, r := range s {
		if r == utf8.RuneError {
			n++
			continue
		}
		if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
			n++
		}
	}
	return n
}
