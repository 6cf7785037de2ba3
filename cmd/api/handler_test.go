package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"audio-insights-go/internal/logger"
	"audio-insights-go/internal/pipeline"
	"audio-insights-go/internal/processor"
	"audio-insights-go/internal/types"
)

type fakeRunner struct {
	jobs []types.Job
	res  pipeline.Result
	err  error
}

func (f *fakeRunner) Run(ctx context.Context, job types.Job) (pipeline.Result, error) {
	f.jobs = append(f.jobs, job)
	return f.res, f.err
}

func upload(t *testing.T, fields map[string]string, filename string, audio []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("audio", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(audio)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/process", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) processor.ProcessResult {
	t.Helper()
	var out processor.ProcessResult
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v\n%s", err, rec.Body.String())
	}
	return out
}

func newHandler(r processor.Runner) *processHandler {
	return &processHandler{runner: r, maxBytes: maxUploadBytes, log: logger.Discard()}
}

func TestProcessHandlerSuccess(t *testing.T) {
	runner := &fakeRunner{res: pipeline.Result{RunID: "r1", Stage: pipeline.Completed, ArtifactPath: "resultados/x.pdf"}}
	rec := httptest.NewRecorder()
	newHandler(runner).ServeHTTP(rec, upload(t, map[string]string{"name": " Alice ", "email": "a@x.com"}, "dir/call.mp3", []byte("ID3")))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if got := decode(t, rec); got.RunID != "r1" || got.Stage != "Completed" {
		t.Fatalf("response = %+v", got)
	}
	if len(runner.jobs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runner.jobs))
	}
	job := runner.jobs[0]
	if job.SubmitterName != "Alice" || job.Filename != "call.mp3" || string(job.Audio) != "ID3" {
		t.Fatalf("job = %+v", job)
	}
}

func TestProcessHandlerRejectsInvalidUpload(t *testing.T) {
	cases := []struct {
		name     string
		fields   map[string]string
		filename string
	}{
		{"missing audio", map[string]string{"name": "Alice", "email": "a@x.com"}, ""},
		{"missing name", map[string]string{"email": "a@x.com"}, "call.mp3"},
		{"bad email", map[string]string{"name": "Alice", "email": "nope"}, "call.mp3"},
		{"no extension", map[string]string{"name": "Alice", "email": "a@x.com"}, "call"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runner := &fakeRunner{}
			rec := httptest.NewRecorder()
			newHandler(runner).ServeHTTP(rec, upload(t, tc.fields, tc.filename, []byte("data")))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if len(runner.jobs) != 0 {
				t.Fatal("runner must not be called")
			}
			if got := decode(t, rec); got.Message == "" {
				t.Fatal("message is empty")
			}
		})
	}
}

func TestProcessHandlerTooLarge(t *testing.T) {
	h := newHandler(&fakeRunner{})
	h.maxBytes = 1 << 10
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, upload(t, map[string]string{"name": "Alice", "email": "a@x.com"}, "call.mp3", bytes.Repeat([]byte("x"), 4<<10)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestProcessHandlerStageFailures(t *testing.T) {
	cases := []struct {
		stage pipeline.Stage
		kind  error
		want  int
	}{
		{pipeline.Transcribing, types.ErrTranscription, http.StatusUnprocessableEntity},
		{pipeline.Dispatching, types.ErrAuthentication, http.StatusBadGateway},
	}
	for _, tc := range cases {
		runner := &fakeRunner{
			res: pipeline.Result{RunID: "r2", Stage: pipeline.Failed},
			err: &pipeline.StageError{Stage: tc.stage, Err: fmt.Errorf("%w: boom", tc.kind)},
		}
		rec := httptest.NewRecorder()
		newHandler(runner).ServeHTTP(rec, upload(t, map[string]string{"name": "Alice", "email": "a@x.com"}, "call.mp3", []byte("ID3")))
		if rec.Code != tc.want {
			t.Fatalf("%s: status = %d, want %d", tc.stage, rec.Code, tc.want)
		}
		if got := decode(t, rec); got.FailedStage != string(tc.stage) {
			t.Fatalf("failed_stage = %q, want %q", got.FailedStage, tc.stage)
		}
	}
}

func TestProcessHandlerMethod(t *testing.T) {
	rec := httptest.NewRecorder()
	newHandler(&fakeRunner{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/process", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	healthz(logger.Discard())(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}
