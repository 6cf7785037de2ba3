package usage

import (
	"context"
	"errors"
	"fmt"

	"audio-insights-go/internal/logger"
	"audio-insights-go/internal/types"
)

// ErrSinkNotConfigured means the sink was never set up, as opposed to failing.
var ErrSinkNotConfigured = errors.New("usage sink not configured")

// Sink is one place a usage record can be appended to.
type Sink interface {
	Name() string
	Append(ctx context.Context, rec types.UsageRecord) error
}

// Recorder appends each record to the first sink that accepts it.
type Recorder struct {
	sinks []Sink
	log   *logger.Logger
}

func NewRecorder(log *logger.Logger, sinks ...Sink) *Recorder {
	if log == nil {
		log = logger.Discard()
	}
	return &Recorder{sinks: sinks, log: log.Component("usage")}
}

// Record never fails the caller. It returns the name of the sink that took the record,
// or "" when every sink failed.
func (r *Recorder) Record(ctx context.Context, rec types.UsageRecord) string {
	log := r.log.WithField("submitter", rec.SubmitterName).WithField("source", rec.SourceFilename)
	for _, s := range r.sinks {
		err := safeAppend(ctx, s, rec)
		if err == nil {
			log.WithField("sink", s.Name()).Info("usage recorded")
			return s.Name()
		}
		if errors.Is(err, ErrSinkNotConfigured) {
			log.WithField("sink", s.Name()).Debug("usage sink not configured")
		} else {
			log.WithError(err).WithField("sink", s.Name()).Warn("usage sink failed, trying next")
		}
	}
	log.Error("usage record dropped, no sink accepted it")
	return ""
}

func safeAppend(ctx context.Context, s Sink, rec types.UsageRecord) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("sink panicked: %v", p)
		}
	}()
	return s.Append(ctx, rec)
}
