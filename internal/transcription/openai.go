package transcription

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

type transcriptionClient interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// OpenAIBackend uses the hosted whisper model.
type OpenAIBackend struct {
	client transcriptionClient
	model  string
}

func NewOpenAIBackend(apiKey, model string) *OpenAIBackend {
	return newOpenAIBackend(openai.NewClient(apiKey), model)
}

func newOpenAIBackend(client transcriptionClient, model string) *OpenAIBackend {
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAIBackend{client: client, model: model}
}

func (b *OpenAIBackend) Name() string { return "openai:" + b.model }

func (b *OpenAIBackend) Transcribe(ctx context.Context, audioPath, language string) Response {
	resp, err := b.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    b.model,
		FilePath: audioPath,
		Language: language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return Failure{Err: err}
	}
	return TextResult{Text: resp.Text}
}
