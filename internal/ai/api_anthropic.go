package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 1024

// AnthropicProvider implements the Anthropic API using the official SDK.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
	hasKey bool
}

// NewAnthropicProvider creates an Anthropic provider.
func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		hasKey: apiKey != "",
	}
}

// ID returns the provider identifier
func (p *AnthropicProvider) ID() string { return "anthropic" }

// OnDevice returns false
func (p *AnthropicProvider) OnDevice() bool { return false }

// Availability is a configuration check: cloud providers don't probe
// the network at selection time.
func (p *AnthropicProvider) Availability(ctx context.Context) Status {
	// The SDK reads the key from its options; an empty key surfaces on
	// the first call, so check the config here instead.
	if !p.configured() {
		return StatusNotAvailable
	}
	return StatusReady
}

func (p *AnthropicProvider) configured() bool {
	// A client is always constructed; track configuration separately.
	return p.hasKey
}

// Prompt sends a single user turn.
func (p *AnthropicProvider) Prompt(ctx context.Context, text string) (string, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		var apierr *anthropic.Error
		if errors.As(err, &apierr) {
			return "", &ProviderError{Provider: "anthropic", StatusCode: apierr.StatusCode, Message: apierr.Error()}
		}
		return "", &ProviderError{Provider: "anthropic", Message: err.Error()}
	}

	var out strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	return out.String(), nil
}
