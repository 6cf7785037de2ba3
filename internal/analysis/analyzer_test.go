package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"

	"audio-insights-go/internal/types"
)

type fakeChat struct {
	calls int
	req   openai.ChatCompletionRequest
	resp  openai.ChatCompletionResponse
	err   error
}

func (f *fakeChat) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	f.req = req
	return f.resp, f.err
}

func reply(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
	}}
}

func TestAnalyzeEmptyTranscriptMakesNoCall(t *testing.T) {
	for _, in := range []string{"", "   \n"} {
		chat := &fakeChat{}
		_, err := newAnalyzer(chat, "", nil).Analyze(context.Background(), in)
		if !errors.Is(err, types.ErrEmptyInput) {
			t.Fatalf("Analyze(%q) error = %v, want ErrEmptyInput", in, err)
		}
		if chat.calls != 0 {
			t.Fatalf("calls = %d, want 0", chat.calls)
		}
	}
}

func TestAnalyzeRequestShape(t *testing.T) {
	chat := &fakeChat{resp: reply("## 1. RESUMO EXECUTIVO\nOrçamento discutido.")}
	got, err := newAnalyzer(chat, "gpt-4", nil).Analyze(context.Background(), "We discussed the budget.")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got != "## 1. RESUMO EXECUTIVO\nOrçamento discutido." {
		t.Fatalf("analysis = %q, want verbatim content", got)
	}
	if chat.calls != 1 {
		t.Fatalf("calls = %d, want 1", chat.calls)
	}
	if chat.req.Temperature != Temperature {
		t.Fatalf("temperature = %v, want %v", chat.req.Temperature, Temperature)
	}
	if len(chat.req.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(chat.req.Messages))
	}
	sys, user := chat.req.Messages[0], chat.req.Messages[1]
	if sys.Role != openai.ChatMessageRoleSystem || user.Role != openai.ChatMessageRoleUser {
		t.Fatalf("roles = %s/%s", sys.Role, user.Role)
	}
	for _, s := range Sections {
		if !strings.Contains(sys.Content, s) {
			t.Fatalf("system prompt missing %q", s)
		}
	}
	if !strings.Contains(user.Content, "We discussed the budget.") {
		t.Fatalf("user content = %q", user.Content)
	}
}

func TestAnalyzeFailures(t *testing.T) {
	cases := []struct {
		name string
		chat *fakeChat
	}{
		{"call error", &fakeChat{err: errors.New("rate limited")}},
		{"no choices", &fakeChat{resp: openai.ChatCompletionResponse{}}},
		{"blank content", &fakeChat{resp: reply("  ")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newAnalyzer(tc.chat, "", nil).Analyze(context.Background(), "texto")
			if !errors.Is(err, types.ErrAnalysis) {
				t.Fatalf("Analyze() error = %v, want ErrAnalysis", err)
			}
		})
	}
}

func TestMissingSections(t *testing.T) {
	full := strings.Join(Sections, "\n")
	if got := MissingSections(full); len(got) != 0 {
		t.Fatalf("MissingSections(full) = %v", got)
	}
	got := MissingSections("## 1. Resumo Executivo\n## 2. Participantes")
	if len(got) != len(Sections)-2 {
		t.Fatalf("MissingSections = %v, want %d entries", got, len(Sections)-2)
	}
}
