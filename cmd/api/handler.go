package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"audio-insights-go/internal/logger"
	"audio-insights-go/internal/processor"
	"audio-insights-go/internal/types"
)

const maxUploadBytes = 100 << 20

func healthz(log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.WithRequest(r).Debug("health check")
		fmt.Fprint(w, "ok")
	}
}

type processHandler struct {
	runner   processor.Runner
	maxBytes int64
	log      *logger.Logger
}

func (h *processHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqLog := h.log.WithRequest(r).WithField("handler", "process")
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	job, err := h.readJob(w, r)
	if err != nil {
		reqLog.WithError(err).Warn("rejected upload")
		writeJSON(w, http.StatusBadRequest, processor.ProcessResult{
			Stage:   "Submitted",
			Error:   err.Error(),
			Message: processor.UserMessage(err),
		}, reqLog)
		return
	}
	reqLog = reqLog.WithField("submitter", job.SubmitterName).WithField("filename", job.Filename).WithField("bytes", len(job.Audio))
	reqLog.Info("process request received")

	res := processor.Process(r.Context(), h.runner, job)
	status := processor.StatusCode(res.Err())
	reqLog.WithField("run_id", res.RunID).WithField("status", status).WithField("duration_ms", res.DurationMs).Info("processor finished")
	writeJSON(w, status, res, reqLog)
}

func (h *processHandler) readJob(w http.ResponseWriter, r *http.Request) (types.Job, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return types.Job{}, fmt.Errorf("%w: upload larger than %d MiB", types.ErrInvalidJob, h.maxBytes>>20)
		}
		return types.Job{}, fmt.Errorf("%w: %v", types.ErrInvalidJob, err)
	}
	defer r.MultipartForm.RemoveAll()

	f, hdr, err := r.FormFile("audio")
	if err != nil {
		return types.Job{}, fmt.Errorf("%w: audio file is required", types.ErrInvalidJob)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return types.Job{}, fmt.Errorf("%w: read upload: %v", types.ErrInvalidJob, err)
	}

	job := types.Job{
		SubmitterName:  strings.TrimSpace(r.FormValue("name")),
		RecipientEmail: strings.TrimSpace(r.FormValue("email")),
		Filename:       filepath.Base(hdr.Filename),
		Audio:          data,
	}
	return job, job.Validate()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, log *logrus.Entry) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.WithError(err).Error("failed to write response")
	}
}
