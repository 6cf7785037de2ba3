package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"audio-insights-go/internal/logger"
	"audio-insights-go/internal/types"
)

const maxCollisions = 100

// Renderer writes the PDF report into the results directory.
type Renderer struct {
	resultsDir string
	now        func() time.Time
	log        *logger.Logger
}

func NewRenderer(resultsDir string, log *logger.Logger) *Renderer {
	if log == nil {
		log = logger.Discard()
	}
	return &Renderer{resultsDir: resultsDir, now: time.Now, log: log.Component("report")}
}

// Render writes a new PDF and returns its path. Existing files are never overwritten.
func (r *Renderer) Render(sourceFilename, transcript, analysis, submitter string) (string, error) {
	generatedAt := r.now()
	doc := buildDocument(document{
		Submitter:   submitter,
		Source:      sourceFilename,
		GeneratedAt: generatedAt,
		Analysis:    analysis,
		Transcript:  transcript,
	})
	if n := unrepresentable(analysis) + unrepresentable(transcript); n > 0 {
		r.log.WithField("dropped_chars", n).Warn("characters outside cp1252 are left out of the report")
	}
	if err := doc.Error(); err != nil {
		return "", fmt.Errorf("%w: layout: %w", types.ErrIO, err)
	}

	if err := os.MkdirAll(r.resultsDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrIO, err)
	}
	f, path, err := r.create(FileName(submitter, generatedAt))
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrIO, err)
	}
	if err := doc.Output(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("%w: write %s: %w", types.ErrIO, path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: close %s: %w", types.ErrIO, path, err)
	}

	r.log.WithField("path", path).Info("report written")
	return path, nil
}

// create opens name exclusively, adding _2, _3... when a report with that name exists.
func (r *Renderer) create(name string) (*os.File, string, error) {
	base := strings.TrimSuffix(name, ".pdf")
	for i := 1; i <= maxCollisions; i++ {
		candidate := name
		if i > 1 {
			candidate = fmt.Sprintf("%s_%d.pdf", base, i)
		}
		path := filepath.Join(r.resultsDir, candidate)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("too many reports named %s", name)
}
