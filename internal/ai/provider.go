// Package ai dispatches prompts to AI providers behind a rate-limited
// gateway. On-device providers (Ollama, a local OpenAI-compatible
// runtime) are preferred and exempt from rate limiting; one configured
// cloud provider serves as the paid fallback.
package ai

import (
	"context"
	"fmt"
	"strings"
)

// Status describes an on-device provider's availability. Availability
// checks report through this enum and never panic or return opaque
// errors: an unavailable runtime is a state, not a failure.
type Status string

const (
	StatusReady        Status = "ready"
	StatusDownloading  Status = "downloading"
	StatusNotAvailable Status = "not_available"
	StatusError        Status = "error"
)

// Provider is a single AI backend.
type Provider interface {
	// ID returns the provider identifier (e.g. "ollama", "anthropic")
	ID() string

	// OnDevice reports whether inference runs locally. On-device
	// providers bypass quota accounting.
	OnDevice() bool

	// Availability probes whether the provider can serve a prompt now.
	Availability(ctx context.Context) Status

	// Prompt sends text and returns the completion.
	Prompt(ctx context.Context, text string) (string, error)
}

// ProviderError is a typed failure from a provider call. It renders in
// the kind:detail convention so UI surfaces can pattern-match.
type ProviderError struct {
	Provider   string
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	b.WriteString("provider_error:")
	b.WriteString(e.Provider)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " status %d", e.StatusCode)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// QuotaError rejects a cloud call that would exceed a ceiling. Scope is
// "hourly_limit" or "daily_limit".
type QuotaError struct {
	Scope     string
	Limit     int
	Used      int
	ResetHint string
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota:%s reached (%d/%d calls), %s", e.Scope, e.Used, e.Limit, e.ResetHint)
}

// IsQuotaError reports whether err is a quota rejection.
func IsQuotaError(err error) bool {
	_, ok := err.(*QuotaError)
	return ok
}

// ClassifyErrorReason buckets an error for UI remediation hints.
// Returns: "quota", "rate_limit", "auth", "billing", "timeout", or "other".
func ClassifyErrorReason(err error) string {
	if err == nil {
		return "other"
	}
	if IsQuotaError(err) {
		return "quota"
	}

	if pe, ok := err.(*ProviderError); ok {
		switch pe.StatusCode {
		case 401, 403:
			return "auth"
		case 402:
			return "billing"
		case 429:
			return "rate_limit"
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "billing", "insufficient", "payment", "credit", "spending limit"):
		return "billing"
	case containsAny(msg, "rate limit", "rate_limit", "too many requests", "429", "throttl"):
		return "rate_limit"
	case containsAny(msg, "unauthorized", "authentication", "api key", "invalid credentials", "401", "403"):
		return "auth"
	case containsAny(msg, "timeout", "timed out", "deadline exceeded", "context canceled"):
		return "timeout"
	}
	return "other"
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
