package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"audio-insights-go/internal/types"
	"audio-insights-go/internal/usage"
)

func TestRunExportsCSV(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "registro_uso.csv")
	sink := usage.NewCSVSink(in)
	at := time.Date(2026, 10, 18, 9, 0, 0, 0, time.Local)
	for _, name := range []string{"Alice", "Bob", "Alice"} {
		rec := types.UsageRecord{At: at, SubmitterName: name, RecipientEmail: "a@x.com", SourceFilename: "call.mp3"}
		if err := sink.Append(context.Background(), rec); err != nil {
			t.Fatal(err)
		}
	}

	out := filepath.Join(dir, "uso.xlsx")
	sum, err := run(in, out)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if sum.Total != 3 || sum.BySubmitter[0].Key != "Alice" {
		t.Fatalf("summary = %+v", sum)
	}

	// the workbook is itself a valid input
	again, err := run(out, filepath.Join(dir, "uso2.xlsx"))
	if err != nil {
		t.Fatalf("run(xlsx) error = %v", err)
	}
	if again.Total != 3 {
		t.Fatalf("Total = %d, want 3", again.Total)
	}
}

func TestRunRejectsUnknownInput(t *testing.T) {
	if _, err := run("log.txt", filepath.Join(t.TempDir(), "uso.xlsx")); err == nil {
		t.Fatal("run() error = nil, want unsupported input")
	}
}
