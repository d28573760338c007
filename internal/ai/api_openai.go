package ai

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIProvider implements the OpenAI API using the official SDK.
type OpenAIProvider struct {
	client openai.Client
	model  string
	hasKey bool
}

// NewOpenAIProvider creates an OpenAI provider.
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIProvider{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		hasKey: apiKey != "",
	}
}

// ID returns the provider identifier
func (p *OpenAIProvider) ID() string { return "openai" }

// OnDevice returns false
func (p *OpenAIProvider) OnDevice() bool { return false }

// Availability is a configuration check only.
func (p *OpenAIProvider) Availability(ctx context.Context) Status {
	if !p.hasKey {
		return StatusNotAvailable
	}
	return StatusReady
}

// Prompt sends a single user turn.
func (p *OpenAIProvider) Prompt(ctx context.Context, text string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(text),
		},
	})
	if err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) {
			return "", &ProviderError{Provider: "openai", StatusCode: apierr.StatusCode, Message: apierr.Error()}
		}
		return "", &ProviderError{Provider: "openai", Message: err.Error()}
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: "openai", Code: "empty_response", Message: "no choices in response"}
	}
	return resp.Choices[0].Message.Content, nil
}
