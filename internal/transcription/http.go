package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var httpClient = &http.Client{Timeout: 10 * time.Minute}

// HTTPBackend talks to a whisper-compatible server (whisper.cpp server, faster-whisper, a gateway).
// Such servers answer either with a JSON object or with the bare text.
type HTTPBackend struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// NewHTTPBackend points at baseURL + /audio/transcriptions.
func NewHTTPBackend(baseURL, apiKey, model string) *HTTPBackend {
	return &HTTPBackend{
		endpoint: strings.TrimRight(baseURL, "/") + "/audio/transcriptions",
		apiKey:   apiKey,
		model:    model,
		client:   httpClient,
	}
}

func (b *HTTPBackend) Name() string { return "http:" + b.endpoint }

func (b *HTTPBackend) Transcribe(ctx context.Context, audioPath, language string) Response {
	req, err := b.buildRequest(ctx, audioPath, language)
	if err != nil {
		return Failure{Err: err}
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return Failure{Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Failure{Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode >= 300 {
		return Failure{Err: fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}
	return decodeBody(resp.Header.Get("Content-Type"), body)
}

func (b *HTTPBackend) buildRequest(ctx context.Context, audioPath, language string) (*http.Request, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if b.model != "" {
		if err := w.WriteField("model", b.model); err != nil {
			return nil, err
		}
	}
	if language != "" {
		if err := w.WriteField("language", language); err != nil {
			return nil, err
		}
	}
	if err := w.WriteField("response_format", "json"); err != nil {
		return nil, err
	}
	fw, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}
	return req, nil
}

// decodeBody maps a JSON object to MappingResult and anything else to TextResult.
func decodeBody(contentType string, body []byte) Response {
	trimmed := bytes.TrimSpace(body)
	if strings.Contains(contentType, "json") || bytes.HasPrefix(trimmed, []byte("{")) {
		var fields map[string]any
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return Failure{Err: fmt.Errorf("json decode error: %v body=%s", err, string(body))}
		}
		return MappingResult{Fields: fields}
	}
	return TextResult{Text: string(body)}
}
