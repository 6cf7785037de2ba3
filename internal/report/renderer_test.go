package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"audio-insights-go/internal/types"
)

func fixedRenderer(t *testing.T, dir string) *Renderer {
	t.Helper()
	r := NewRenderer(dir, nil)
	r.now = func() time.Time { return time.Date(2026, 10, 18, 14, 5, 9, 0, time.Local) }
	return r
}

func TestRenderWritesExtractableReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "resultados")
	r := fixedRenderer(t, dir)

	path, err := r.Render("call.mp3", "hello world", "## Summary\n...", "alice")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if want := filepath.Join(dir, "relatorio_alice_20261018_140509.pdf"); path != want {
		t.Fatalf("path = %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("report does not start with a PDF header")
	}
	for _, want := range []string{"hello world", "Summary", "alice", "call.mp3"} {
		if !bytes.Contains(data, []byte(want)) {
			t.Fatalf("report does not contain %q", want)
		}
	}
}

func TestRenderDefaultClockNaming(t *testing.T) {
	dir := t.TempDir()
	path, err := NewRenderer(dir, nil).Render("call.mp3", "hello world", "## Summary", "alice")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !regexp.MustCompile(`^relatorio_alice_\d{8}_\d{6}\.pdf$`).MatchString(filepath.Base(path)) {
		t.Fatalf("file name = %q", filepath.Base(path))
	}
}

func TestRenderNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	r := fixedRenderer(t, dir)

	first, err := r.Render("a.mp3", "um", "## A", "alice")
	if err != nil {
		t.Fatalf("first Render() error = %v", err)
	}
	second, err := r.Render("b.mp3", "dois", "## B", "alice")
	if err != nil {
		t.Fatalf("second Render() error = %v", err)
	}
	if first == second {
		t.Fatalf("second render reused path %q", first)
	}
	if filepath.Base(second) != "relatorio_alice_20261018_140509_2.pdf" {
		t.Fatalf("second path = %q", second)
	}
	data, _ := os.ReadFile(first)
	if !bytes.Contains(data, []byte("a.mp3")) {
		t.Fatal("first report was overwritten")
	}
}

func TestRenderUnwritableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := NewRenderer(filepath.Join(blocker, "resultados"), nil).Render("a.mp3", "t", "a", "alice")
	if !errors.Is(err, types.ErrIO) {
		t.Fatalf("Render() error = %v, want ErrIO", err)
	}
}

func TestRenderAccentedText(t *testing.T) {
	dir := t.TempDir()
	path, err := fixedRenderer(t, dir).Render("reunião.m4a", "Decisões sobre orçamento.", "## DECISÕES TOMADAS\n- **Aprovar** verba", "João Silva")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if filepath.Base(path) != "relatorio_Joao_Silva_20261018_140509.pdf" {
		t.Fatalf("file name = %q", filepath.Base(path))
	}
	data, _ := os.ReadFile(path)
	if bytes.Contains(data, []byte("**Aprovar**")) {
		t.Fatal("emphasis markers should be stripped")
	}
}

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"alice":            "alice",
		"João da Silva":    "Joao_da_Silva",
		"  Ana  Maria  ":   "Ana_Maria",
		"../../etc/passwd": "etcpasswd",
		"":                 "anonimo",
		"***":              "anonimo",
		"Zoë_O'Brien":      "Zoe_OBrien",
	}
	for in, want := range cases {
		if got := NormalizeName(in); got != want {
			t.Fatalf("NormalizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderDropsCharactersOutsideCP1252(t *testing.T) {
	path, err := fixedRenderer(t, t.TempDir()).Render("call.mp3", "budget approved \U0001F389 "+string([]byte{0xff})+" done", "## RESUMO\nok", "alice")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if !bytes.Contains(data, []byte("budget approved")) {
		t.Fatal("representable text should still be written")
	}
}

func TestUnrepresentable(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"Decisões sobre orçamento – “ok” €", 0},
		{"festa \U0001F389", 1},
		{"bad " + string([]byte{0xff, 0xfe}), 2},
		{"línea\n\tcon 日本", 2},
	}
	for _, tc := range cases {
		if got := unrepresentable(tc.in); got != tc.want {
			t.Fatalf("unrepresentable(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
