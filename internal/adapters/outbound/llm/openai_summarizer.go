// Package llm generates change summaries with a hosted language model.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/buildtrace/buildtrace/internal/domain"
	"github.com/buildtrace/buildtrace/internal/domain/summary"
	"github.com/sashabaranov/go-openai"
)

const systemPrompt = "You summarize construction drawing revisions for architects and construction managers."

// ChatCompleter is the subset of *openai.Client the summarizer needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAISummarizer implements domain.Summarizer with a chat completion.
// Wrap it in summary.Fallback so failures degrade to the template text.
type OpenAISummarizer struct {
	client ChatCompleter
	model  string
	log    *slog.Logger
}

// NewOpenAISummarizer creates a summarizer authenticated with apiKey.
func NewOpenAISummarizer(apiKey, model string, log *slog.Logger) (*OpenAISummarizer, error) {
	if apiKey == "" {
		return nil, errors.New("openai summarizer requires OPENAI_API_KEY")
	}
	return NewOpenAISummarizerWithClient(openai.NewClient(apiKey), model, log), nil
}

// NewOpenAISummarizerWithClient wraps an existing client.
func NewOpenAISummarizerWithClient(client ChatCompleter, model string, log *slog.Logger) *OpenAISummarizer {
	if model == "" {
		model = openai.GPT4oMini
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &OpenAISummarizer{client: client, model: model, log: log}
}

// Summarize implements domain.Summarizer.
func (s *OpenAISummarizer) Summarize(ctx context.Context, cs domain.ChangeSet) (string, error) {
	if cs.IsEmpty() {
		return summary.NoChanges, nil
	}

	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: summary.Prompt(cs)},
		},
		Temperature: 0.2,
	}

	s.log.Debug("requesting summary", slog.String("model", s.model), slog.Int("changes", cs.Stats().TotalChanges))
	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("openai returned an empty summary")
	}
	return text, nil
}
