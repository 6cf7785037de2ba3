package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"audio-insights-go/internal/logger"
	"audio-insights-go/internal/types"
)

// Temperature is kept low so the report sticks to what was said.
const Temperature float32 = 0.3

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Analyzer turns a transcript into the markdown report.
type Analyzer struct {
	client chatClient
	model  string
	log    *logger.Logger
}

func New(apiKey, model string, log *logger.Logger) *Analyzer {
	return newAnalyzer(openai.NewClient(apiKey), model, log)
}

func newAnalyzer(client chatClient, model string, log *logger.Logger) *Analyzer {
	if model == "" {
		model = openai.GPT4
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Analyzer{client: client, model: model, log: log.Component("analysis")}
}

// Analyze makes exactly one chat completion call and returns its content verbatim.
// Missing sections are logged, not enforced.
func (a *Analyzer) Analyze(ctx context.Context, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", fmt.Errorf("%w: transcript is empty", types.ErrEmptyInput)
	}

	log := a.log.WithField("model", a.model).WithField("transcript_chars", len(transcript))
	log.Info("requesting analysis")

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(transcript)},
		},
		Temperature: Temperature,
	})
	if err != nil {
		log.WithError(err).Error("analysis request failed")
		return "", fmt.Errorf("%w: %w", types.ErrAnalysis, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %w", types.ErrAnalysis, errors.New("no choices in response"))
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: %w", types.ErrAnalysis, errors.New("empty completion"))
	}
	if missing := MissingSections(content); len(missing) > 0 {
		log.WithField("missing_sections", strings.Join(missing, ", ")).Warn("analysis is missing sections")
	}

	log.WithField("usage_tokens", resp.Usage.TotalTokens).Info("analysis done")
	return content, nil
}
