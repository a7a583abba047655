package ai

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"clinical-consult-assistant/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.CompletionAdapter = (*OpenAIAdapter)(nil)

// OpenAIAdapter implements adapter.CompletionAdapter using the Chat
// Completions API. Each Complete call is a single-turn request: the fixed
// system instruction plus one user-role prompt.
type OpenAIAdapter struct {
	client *openai.Client
}

func NewOpenAIAdapter(apiKey string) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	return &OpenAIAdapter{client: openai.NewClient(apiKey)}, nil
}

func (o *OpenAIAdapter) Complete(ctx context.Context, model, system, prompt string, temperature float32) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choice content")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
