package ai

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// LocalRuntimeProvider talks to an OpenAI-compatible inference server
// running on this machine (llama.cpp server, LM Studio, vLLM). It is
// the "built-in platform model" slot in the chain: used only when the
// runtime is already up and reporting ready.
type LocalRuntimeProvider struct {
	client  openai.Client
	baseURL string
	model   string
}

// NewLocalRuntimeProvider creates a provider over baseURL, e.g.
// "http://localhost:8080".
func NewLocalRuntimeProvider(baseURL, model string) *LocalRuntimeProvider {
	baseURL = strings.TrimSuffix(baseURL, "/")
	client := openai.NewClient(
		option.WithBaseURL(baseURL+"/v1/"),
		// Local runtimes ignore auth but the SDK requires a key option.
		option.WithAPIKey("local"),
	)
	return &LocalRuntimeProvider{client: client, baseURL: baseURL, model: model}
}

// ID returns the provider identifier
func (p *LocalRuntimeProvider) ID() string { return "local" }

// OnDevice returns true
func (p *LocalRuntimeProvider) OnDevice() bool { return true }

// Availability probes the models endpoint with a short timeout.
func (p *LocalRuntimeProvider) Availability(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/models", nil)
	if err != nil {
		return StatusError
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return StatusNotAvailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return StatusError
	}
	return StatusReady
}

// Prompt sends a single user turn.
func (p *LocalRuntimeProvider) Prompt(ctx context.Context, text string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(text),
		},
	}
	if p.model != "" {
		params.Model = shared.ChatModel(p.model)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", &ProviderError{Provider: "local", Code: "chat_failed", Message: err.Error()}
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: "local", Code: "empty_response", Message: "runtime returned no choices"}
	}
	return resp.Choices[0].Message.Content, nil
}
