package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"audio-insights-go/internal/audio"
	"audio-insights-go/internal/logger"
	"audio-insights-go/internal/types"
)

type Stage string

const (
	Submitted    Stage = "Submitted"
	Normalizing  Stage = "Normalizing"
	Transcribing Stage = "Transcribing"
	Analyzing    Stage = "Analyzing"
	Rendering    Stage = "Rendering"
	Dispatching  Stage = "Dispatching"
	Recording    Stage = "Recording"
	Completed    Stage = "Completed"
	Failed       Stage = "Failed"
)

// StageError is a run failure tagged with the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailedStage returns the stage carried by err, or "" when err is not a StageError.
func FailedStage(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

type Normalizer interface {
	Normalize(ctx context.Context, raw []byte, ext string) (*audio.Normalized, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, transcript string) (string, error)
}

type Renderer interface {
	Render(sourceFilename, transcript, analysis, submitter string) (string, error)
}

type Dispatcher interface {
	Deliver(ctx context.Context, recipient, artifactPath, originalFilename string) error
}

// Recorder absorbs its own failures; the returned string names the sink used.
type Recorder interface {
	Record(ctx context.Context, rec types.UsageRecord) string
}

// Result is what a run produced, complete or not.
type Result struct {
	RunID        string        `json:"run_id"`
	Stage        Stage         `json:"stage"`
	ArtifactPath string        `json:"artifact_path,omitempty"`
	Transcript   string        `json:"transcript,omitempty"`
	Analysis     string        `json:"analysis,omitempty"`
	Decoder      string        `json:"decoder,omitempty"`
	UsageSink    string        `json:"usage_sink,omitempty"`
	Duration     time.Duration `json:"duration"`
}

type Deps struct {
	Normalizer  Normalizer
	Transcriber Transcriber
	Analyzer    Analyzer
	Renderer    Renderer
	Dispatcher  Dispatcher
	Recorder    Recorder
	Log         *logger.Logger
	// OnStage, when set, is called on every transition with the run id.
	OnStage func(runID string, stage Stage)
}

// Orchestrator drives one job through every stage in order.
type Orchestrator struct {
	d   Deps
	now func() time.Time
	log *logger.Logger
}

func New(d Deps) *Orchestrator {
	log := d.Log
	if log == nil {
		log = logger.Discard()
	}
	return &Orchestrator{d: d, now: time.Now, log: log.Component("pipeline")}
}

// Run processes job synchronously. On failure the error is a *StageError and
// Result.Stage is Failed; Result keeps whatever was produced before the failure.
func (o *Orchestrator) Run(ctx context.Context, job types.Job) (Result, error) {
	start := o.now()
	res := Result{RunID: uuid.NewString(), Stage: Submitted}
	log := o.log.WithRun(res.RunID)
	log.WithField("submitter", job.SubmitterName).WithField("source", job.Filename).Info("run submitted")
	o.enter(&res, Submitted)

	fail := func(stage Stage, err error) (Result, error) {
		res.Stage = Failed
		res.Duration = o.now().Sub(start)
		o.emit(res.RunID, Failed)
		log.WithError(err).WithField("stage", stage).Error("run failed")
		return res, &StageError{Stage: stage, Err: err}
	}

	if err := job.Validate(); err != nil {
		return fail(Submitted, err)
	}

	o.enter(&res, Normalizing)
	norm, err := o.d.Normalizer.Normalize(ctx, job.Audio, job.Ext())
	if err != nil {
		return fail(Normalizing, err)
	}
	defer norm.Close()
	res.Decoder = norm.Decoder
	log.WithField("format", norm.Format.String()).WithField("decoder", norm.Decoder).Debug("audio normalized")

	o.enter(&res, Transcribing)
	transcript, err := o.d.Transcriber.Transcribe(ctx, norm.Path)
	// released as soon as the transcript is in; the deferred Close is then a no-op
	if cerr := norm.Close(); cerr != nil {
		log.WithError(cerr).Warn("could not remove temporary audio")
	}
	if err != nil {
		return fail(Transcribing, err)
	}
	res.Transcript = transcript

	o.enter(&res, Analyzing)
	analysis, err := o.d.Analyzer.Analyze(ctx, transcript)
	if err != nil {
		return fail(Analyzing, err)
	}
	res.Analysis = analysis

	o.enter(&res, Rendering)
	artifact, err := o.d.Renderer.Render(job.Filename, transcript, analysis, job.SubmitterName)
	if err != nil {
		return fail(Rendering, err)
	}
	res.ArtifactPath = artifact

	o.enter(&res, Dispatching)
	if err := o.d.Dispatcher.Deliver(ctx, job.RecipientEmail, artifact, job.Filename); err != nil {
		// the report stays on disk for a manual resend
		return fail(Dispatching, err)
	}

	o.enter(&res, Recording)
	res.UsageSink = o.d.Recorder.Record(ctx, types.UsageRecord{
		At:             o.now(),
		SubmitterName:  job.SubmitterName,
		RecipientEmail: job.RecipientEmail,
		SourceFilename: job.Filename,
	})

	o.enter(&res, Completed)
	res.Duration = o.now().Sub(start)
	log.WithField("artifact", artifact).WithField("duration_ms", res.Duration.Milliseconds()).Info("run completed")
	return res, nil
}

func (o *Orchestrator) enter(res *Result, s Stage) {
	res.Stage = s
	o.emit(res.RunID, s)
}

func (o *Orchestrator) emit(runID string, s Stage) {
	if o.d.OnStage != nil {
		o.d.OnStage(runID, s)
	}
}
