package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/tabops/tabpilot/internal/logging"
)

// OllamaProvider runs prompts against a local Ollama server using the
// official SDK. It serves both chain slots: warm (model already
// present) at top priority, and cold-started (pull on first use) when
// the user opted in.
type OllamaProvider struct {
	client  *api.Client
	baseURL string
	model   string
}

// NewOllamaProvider creates an Ollama provider.
func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "qwen3:4b"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		parsedURL, _ = url.Parse("http://localhost:11434")
	}

	// Longer timeout for local inference
	httpClient := &http.Client{Timeout: 5 * time.Minute}

	return &OllamaProvider{
		client:  api.NewClient(parsedURL, httpClient),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
	}
}

// ID returns the provider identifier
func (p *OllamaProvider) ID() string { return "ollama" }

// OnDevice returns true: Ollama inference never leaves the machine.
func (p *OllamaProvider) OnDevice() bool { return true }

// Availability reports ready when the server is up and the model is
// present locally, downloading when the server is up but the model
// would need a pull, and not_available when the server is down.
func (p *OllamaProvider) Availability(ctx context.Context) Status {
	if !p.serverUp(ctx) {
		return StatusNotAvailable
	}

	models, err := p.listModels(ctx)
	if err != nil {
		return StatusError
	}
	if p.hasModel(models) {
		return StatusReady
	}
	return StatusDownloading
}

// Prompt sends the text as a single user turn. A missing model is
// pulled first (the cold-start path).
func (p *OllamaProvider) Prompt(ctx context.Context, text string) (string, error) {
	models, err := p.listModels(ctx)
	if err != nil {
		return "", &ProviderError{Provider: "ollama", Code: "unreachable", Message: err.Error()}
	}
	if !p.hasModel(models) {
		if err := p.pull(ctx); err != nil {
			return "", &ProviderError{Provider: "ollama", Code: "pull_failed", Message: err.Error()}
		}
	}

	stream := false
	req := &api.ChatRequest{
		Model:    p.model,
		Stream:   &stream,
		Messages: []api.Message{{Role: "user", Content: text}},
	}

	var out strings.Builder
	err = p.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		out.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", &ProviderError{Provider: "ollama", Code: "chat_failed", Message: err.Error()}
	}
	return out.String(), nil
}

// serverUp probes the tags endpoint with a short timeout.
func (p *OllamaProvider) serverUp(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (p *OllamaProvider) listModels(ctx context.Context) ([]string, error) {
	resp, err := p.client.List(ctx)
	if err != nil {
		return nil, err
	}
	models := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, m.Name)
	}
	return models, nil
}

// hasModel matches the configured model against the local list,
// tolerating Ollama's tag suffixes ("qwen3:4b", "model:latest").
func (p *OllamaProvider) hasModel(models []string) bool {
	for _, m := range models {
		if m == p.model || strings.HasPrefix(m, p.model+":") || strings.TrimSuffix(m, ":latest") == p.model {
			return true
		}
	}
	return false
}

// pull downloads the model, logging coarse progress.
func (p *OllamaProvider) pull(ctx context.Context) error {
	logging.Infof("ollama: model %s not present, pulling...", p.model)

	var lastPct string
	err := p.client.Pull(ctx, &api.PullRequest{Model: p.model}, func(resp api.ProgressResponse) error {
		if resp.Total > 0 {
			pct := fmt.Sprintf("%d%%", resp.Completed*100/resp.Total)
			if pct != lastPct {
				lastPct = pct
				logging.Infof("ollama: pulling %s: %s", p.model, pct)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to pull %s: %w", p.model, err)
	}

	logging.Infof("ollama: model %s ready", p.model)
	return nil
}
