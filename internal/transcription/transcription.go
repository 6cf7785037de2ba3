package transcription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"audio-insights-go/internal/logger"
	"audio-insights-go/internal/types"
)

// Response is what a backend hands back. Exactly one of TextResult, MappingResult or Failure.
type Response interface {
	isResponse()
}

// TextResult is a typed response that already carries the text.
type TextResult struct {
	Text string
}

// MappingResult is a loosely shaped JSON object expected to hold a "text" field.
type MappingResult struct {
	Fields map[string]any
}

// Failure is a backend call that did not produce a response.
type Failure struct {
	Err error
}

func (TextResult) isResponse()    {}
func (MappingResult) isResponse() {}
func (Failure) isResponse()       {}

// Backend is a speech-to-text service.
type Backend interface {
	Name() string
	Transcribe(ctx context.Context, audioPath, language string) Response
}

// Text extracts the transcript from any response shape.
func Text(r Response) (string, error) {
	switch v := r.(type) {
	case TextResult:
		return v.Text, nil
	case MappingResult:
		s, ok := v.Fields["text"].(string)
		if !ok {
			return "", errors.New("response has no text field")
		}
		return s, nil
	case Failure:
		if v.Err == nil {
			return "", errors.New("backend failed")
		}
		return "", v.Err
	case nil:
		return "", errors.New("backend returned no response")
	default:
		return "", fmt.Errorf("unexpected response %T", r)
	}
}

// Transcriber sends normalized audio to one backend, once.
type Transcriber struct {
	backend  Backend
	language string
	log      *logger.Logger
}

func New(backend Backend, language string, log *logger.Logger) *Transcriber {
	if log == nil {
		log = logger.Discard()
	}
	return &Transcriber{backend: backend, language: language, log: log.Component("transcription")}
}

// Transcribe returns non-blank text or an ErrTranscription.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	log := t.log.WithField("backend", t.backend.Name()).WithField("language", t.language)
	log.Info("starting transcription")

	text, err := Text(t.backend.Transcribe(ctx, audioPath, t.language))
	if err != nil {
		log.WithError(err).Error("transcription failed")
		return "", fmt.Errorf("%w: %s: %w", types.ErrTranscription, t.backend.Name(), err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		log.Warn("transcription returned no text")
		return "", fmt.Errorf("%w: %s returned no speech", types.ErrTranscription, t.backend.Name())
	}

	log.WithField("chars", len(text)).Info("transcription done")
	return text, nil
}
