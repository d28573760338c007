package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider implements the Google Gemini REST API with typed
// request/response structs.
type GeminiProvider struct {
	apiKey string
	model  string
	client *http.Client
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// NewGeminiProvider creates a Gemini provider.
func NewGeminiProvider(apiKey, model string) *GeminiProvider {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiProvider{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

// ID returns the provider identifier
func (p *GeminiProvider) ID() string { return "gemini" }

// OnDevice returns false
func (p *GeminiProvider) OnDevice() bool { return false }

// Availability is a configuration check only.
func (p *GeminiProvider) Availability(ctx context.Context) Status {
	if p.apiKey == "" {
		return StatusNotAvailable
	}
	return StatusReady
}

// Prompt sends a single user turn via generateContent.
func (p *GeminiProvider) Prompt(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: text}}}},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", geminiBaseURL, p.model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: "gemini", Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{Provider: "gemini", StatusCode: resp.StatusCode, Message: err.Error()}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &ProviderError{Provider: "gemini", StatusCode: resp.StatusCode, Message: "unparsable response"}
	}

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		code := ""
		if parsed.Error != nil {
			msg = parsed.Error.Message
			code = parsed.Error.Status
		}
		return "", &ProviderError{Provider: "gemini", StatusCode: resp.StatusCode, Code: code, Message: msg}
	}

	var out strings.Builder
	for _, c := range parsed.Candidates {
		for _, part := range c.Content.Parts {
			out.WriteString(part.Text)
		}
	}
	if out.Len() == 0 {
		return "", &ProviderError{Provider: "gemini", Code: "empty_response", Message: "no candidates in response"}
	}
	return out.String(), nil
}
