package processor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"audio-insights-go/internal/pipeline"
	"audio-insights-go/internal/types"
)

// Runner is satisfied by *pipeline.Orchestrator.
type Runner interface {
	Run(ctx context.Context, job types.Job) (pipeline.Result, error)
}

// ProcessResult is returned by /process.
type ProcessResult struct {
	RunID        string `json:"run_id"`
	Stage        string `json:"stage"`
	FailedStage  string `json:"failed_stage,omitempty"`
	ArtifactPath string `json:"artifact_path,omitempty"`
	Transcript   string `json:"transcript,omitempty"`
	Analysis     string `json:"analysis,omitempty"`
	DurationMs   int64  `json:"duration_ms"`
	Error        string `json:"error,omitempty"`
	Message      string `json:"message"`

	err error
}

// Err is the run error behind the result, nil on success.
func (p ProcessResult) Err() error { return p.err }

// Process runs one job and folds the outcome into a single response value.
func Process(ctx context.Context, r Runner, job types.Job) ProcessResult {
	start := time.Now()
	res, err := r.Run(ctx, job)
	out := ProcessResult{
		RunID:        res.RunID,
		Stage:        string(res.Stage),
		ArtifactPath: res.ArtifactPath,
		Transcript:   res.Transcript,
		Analysis:     res.Analysis,
		DurationMs:   time.Since(start).Milliseconds(),
		Message:      UserMessage(err),
	}
	if err != nil {
		out.err = err
		out.Error = err.Error()
		out.FailedStage = string(pipeline.FailedStage(err))
	}
	return out
}

var stageNames = map[pipeline.Stage]string{
	pipeline.Submitted:    "validação do envio",
	pipeline.Normalizing:  "conversão do áudio",
	pipeline.Transcribing: "transcrição",
	pipeline.Analyzing:    "análise",
	pipeline.Rendering:    "geração do relatório",
	pipeline.Dispatching:  "envio do e-mail",
	pipeline.Recording:    "registro de uso",
}

// UserMessage explains err in plain Portuguese, naming the step that failed.
func UserMessage(err error) string {
	if err == nil {
		return "Relatório gerado e enviado por e-mail com sucesso."
	}
	var detail string
	switch {
	case errors.Is(err, types.ErrInvalidJob):
		detail = "verifique o nome, o e-mail e o arquivo de áudio enviados."
	case errors.Is(err, types.ErrDecode):
		detail = "o arquivo de áudio não pôde ser lido. Tente outro formato (mp3, wav, m4a)."
	case errors.Is(err, types.ErrTranscription):
		detail = "o serviço de transcrição não retornou texto para este áudio."
	case errors.Is(err, types.ErrEmptyInput):
		detail = "a transcrição ficou vazia, não há o que analisar."
	case errors.Is(err, types.ErrAnalysis):
		detail = "o serviço de análise não respondeu. Tente novamente em alguns minutos."
	case errors.Is(err, types.ErrIO):
		detail = "não foi possível salvar o relatório no servidor."
	case errors.Is(err, types.ErrAuthentication):
		detail = "o servidor de e-mail recusou as credenciais. Verifique a senha de aplicativo."
	case errors.Is(err, types.ErrDelivery):
		detail = "o e-mail não pôde ser enviado. O relatório foi salvo no servidor."
	case errors.Is(err, types.ErrConfiguration):
		detail = "o serviço não está configurado corretamente."
	default:
		detail = "ocorreu um erro inesperado."
	}
	if name, ok := stageNames[pipeline.FailedStage(err)]; ok {
		return "Falha na etapa de " + name + ": " + detail
	}
	return "Falha no processamento: " + detail
}

// StatusCode maps a run error to the HTTP status returned by /process.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, types.ErrInvalidJob):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrAuthentication), errors.Is(err, types.ErrDelivery):
		return http.StatusBadGateway
	case pipeline.FailedStage(err) != "":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
