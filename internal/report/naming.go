package report

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	filePrefix      = "relatorio"
	timestampLayout = "20060102_150405"
	fallbackName    = "anonimo"
)

// NormalizeName makes a submitter name safe for a filename: no accents, no separators.
func NormalizeName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.TrimSpace(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-'):
			b.WriteRune(r)
			lastUnderscore = false
		case unicode.IsSpace(r) || r == '_':
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return fallbackName
	}
	return out
}

// FileName is the artifact name for submitter at t, before collision suffixes.
func FileName(submitter string, t time.Time) string {
	return fmt.Sprintf("%s_%s_%s.pdf", filePrefix, NormalizeName(submitter), t.Format(timestampLayout))
}
