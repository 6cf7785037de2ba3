package usage

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"audio-insights-go/internal/types"
)

// Header is the first line of the local usage log.
var Header = []string{"data", "hora", "nome", "email", "arquivo"}

// One mutex per log path: appends from concurrent runs in this process never interleave.
var csvLocks sync.Map

func lockFor(path string) *sync.Mutex {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	mu, _ := csvLocks.LoadOrStore(abs, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// CSVSink appends to a local file, writing the header when the file is new.
type CSVSink struct {
	path string
}

func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

func (s *CSVSink) Name() string { return "csv:" + s.path }

func (s *CSVSink) Append(_ context.Context, rec types.UsageRecord) error {
	mu := lockFor(s.path)
	mu.Lock()
	defer mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if st.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return err
		}
	}
	if err := w.Write(rec.Row()); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	// single write per record so O_APPEND keeps rows whole
	_, err = f.Write(buf.Bytes())
	return err
}

// ReadCSV loads every record of a usage log.
func ReadCSV(path string) ([]types.UsageRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)
	var out []types.UsageRecord
	for line := 1; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if line == 1 && strings.EqualFold(row[0], Header[0]) {
			continue
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		out = append(out, rec)
	}
}

func parseRow(row []string) (types.UsageRecord, error) {
	if len(row) < len(Header) {
		return types.UsageRecord{}, fmt.Errorf("want %d fields, got %d", len(Header), len(row))
	}
	at, err := time.ParseInLocation(types.DateLayout+" "+types.TimeLayout, strings.TrimSpace(row[0])+" "+strings.TrimSpace(row[1]), time.Local)
	if err != nil {
		return types.UsageRecord{}, fmt.Errorf("timestamp: %w", err)
	}
	return types.UsageRecord{
		At:             at,
		SubmitterName:  row[2],
		RecipientEmail: row[3],
		SourceFilename: row[4],
	}, nil
}
