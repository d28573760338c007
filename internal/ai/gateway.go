package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tabops/tabpilot/internal/logging"
	"github.com/tabops/tabpilot/internal/store"
)

const usageKey = "ai_usage"

// cloudCostCents is the advisory per-call cost estimate booked against
// each cloud provider. On-device calls are free. Not billing-accurate.
var cloudCostCents = map[string]float64{
	"anthropic": 1.2,
	"openai":    1.0,
	"gemini":    0.5,
}

// Decision is the result of a quota check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// ProviderStatus describes one chain member for introspection.
type ProviderStatus struct {
	ID       string `json:"id"`
	OnDevice bool   `json:"onDevice"`
	Status   Status `json:"status"`
	Active   bool   `json:"active"`
}

// candidate pairs a provider with the availability it must report to
// be selected. The cold-start Ollama entry accepts "downloading".
type candidate struct {
	provider   Provider
	acceptCold bool
}

// Gateway selects one provider at initialization and dispatches
// prompts through it, gating cloud calls behind the usage counters.
// Provider selection is re-evaluated only on Reconfigure, never
// mid-call.
type Gateway struct {
	mu         sync.Mutex
	cfg        Config
	store      *store.Store
	now        func() time.Time
	candidates []candidate // nil unless injected by tests
	chain      []candidate
	active     Provider
	usage      Usage
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithClock injects the time source, for deterministic rollover tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// WithCandidates overrides the provider chain, for tests.
func WithCandidates(providers ...Provider) Option {
	return func(g *Gateway) {
		for _, p := range providers {
			g.candidates = append(g.candidates, candidate{provider: p})
		}
	}
}

// NewGateway builds the provider chain from cfg and selects the active
// provider. st may be nil; usage then lives only in memory.
func NewGateway(ctx context.Context, cfg Config, st *store.Store, opts ...Option) *Gateway {
	g := &Gateway{store: st, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}

	if st != nil {
		if _, err := st.GetJSON(usageKey, &g.usage); err != nil {
			logging.Warnf("failed to load AI usage state: %v", err)
		}
	}

	g.Reconfigure(ctx, cfg)
	return g
}

// Reconfigure rebuilds the chain and re-selects the active provider.
// Also wired as the config hot-reload callback.
func (g *Gateway) Reconfigure(ctx context.Context, cfg Config) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.cfg = cfg
	g.chain = g.candidates
	if g.chain == nil {
		g.chain = buildChain(cfg)
	}

	g.active = nil
	for _, c := range g.chain {
		status := c.provider.Availability(ctx)
		if status == StatusReady || (c.acceptCold && status == StatusDownloading) {
			g.active = c.provider
			logging.Infof("AI provider selected: %s (status %s)", c.provider.ID(), status)
			return
		}
		logging.Debugf("AI provider %s skipped (status %s)", c.provider.ID(), status)
	}
	logging.Infof("no AI provider available; insights disabled")
}

// buildChain assembles the fixed priority order:
// warm preferred Ollama model, ready local runtime, cold-started Ollama
// (opt-in), then the configured cloud provider.
func buildChain(cfg Config) []candidate {
	var chain []candidate

	od := cfg.OnDevice
	var ollama *OllamaProvider
	if od.PreferredModel != "" {
		ollama = NewOllamaProvider(od.OllamaURL, od.PreferredModel)
		chain = append(chain, candidate{provider: ollama})
	}

	if od.LocalRuntimeURL != "" {
		chain = append(chain, candidate{provider: NewLocalRuntimeProvider(od.LocalRuntimeURL, od.LocalRuntimeModel)})
	}

	if ollama != nil && od.AllowColdStart {
		chain = append(chain, candidate{provider: ollama, acceptCold: true})
	}

	if name := cfg.Cloud.Provider; name != "" {
		pc := cfg.Cloud.Providers[name]
		if p := newCloudProvider(name, pc); p != nil {
			chain = append(chain, candidate{provider: p})
		}
	}

	return chain
}

// newCloudProvider maps a provider name to its implementation.
func newCloudProvider(name string, pc CloudProviderConfig) Provider {
	switch name {
	case "anthropic":
		return NewAnthropicProvider(pc.APIKey, pc.Model)
	case "openai":
		return NewOpenAIProvider(pc.APIKey, pc.Model)
	case "gemini":
		return NewGeminiProvider(pc.APIKey, pc.Model)
	default:
		logging.Warnf("unknown cloud provider %q ignored", name)
		return nil
	}
}

// ActiveProviderID returns the selected provider's ID, or "".
func (g *Gateway) ActiveProviderID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active == nil {
		return ""
	}
	return g.active.ID()
}

// ChainStatus probes each chain member's availability.
func (g *Gateway) ChainStatus(ctx context.Context) []ProviderStatus {
	g.mu.Lock()
	chain := g.chain
	active := g.active
	g.mu.Unlock()

	seen := make(map[string]bool)
	var out []ProviderStatus
	for _, c := range chain {
		if seen[c.provider.ID()] {
			continue
		}
		seen[c.provider.ID()] = true
		out = append(out, ProviderStatus{
			ID:       c.provider.ID(),
			OnDevice: c.provider.OnDevice(),
			Status:   c.provider.Availability(ctx),
			Active:   active != nil && active.ID() == c.provider.ID(),
		})
	}
	return out
}

// CanMakeCall reports whether a call would be admitted right now.
// On-device providers are always allowed regardless of counters.
func (g *Gateway) CanMakeCall() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active == nil {
		return Decision{Allowed: false, Reason: "no_provider"}
	}
	if g.active.OnDevice() {
		return Decision{Allowed: true}
	}
	d, _ := g.decisionLocked()
	return d
}

// decisionLocked evaluates the cloud quota. Counters roll over first.
func (g *Gateway) decisionLocked() (Decision, *QuotaError) {
	now := g.now()
	g.usage.rollover(now)

	limits := g.cfg.Limits
	if g.usage.HourCalls >= limits.MaxPerHour {
		qe := &QuotaError{
			Scope: "hourly_limit", Limit: limits.MaxPerHour,
			Used: g.usage.HourCalls, ResetHint: resetHint("hourly_limit", now),
		}
		return Decision{Allowed: false, Reason: "hourly_limit"}, qe
	}
	if g.usage.TodayCalls >= limits.MaxPerDay {
		qe := &QuotaError{
			Scope: "daily_limit", Limit: limits.MaxPerDay,
			Used: g.usage.TodayCalls, ResetHint: resetHint("daily_limit", now),
		}
		return Decision{Allowed: false, Reason: "daily_limit"}, qe
	}

	d := Decision{Allowed: true}
	if float64(g.usage.HourCalls) >= limits.WarnFraction*float64(limits.MaxPerHour) {
		d.Warning = fmt.Sprintf("approaching hourly limit (%d/%d calls)", g.usage.HourCalls, limits.MaxPerHour)
	} else if float64(g.usage.TodayCalls) >= limits.WarnFraction*float64(limits.MaxPerDay) {
		d.Warning = fmt.Sprintf("approaching daily limit (%d/%d calls)", g.usage.TodayCalls, limits.MaxPerDay)
	}
	return d, nil
}

// Prompt dispatches text to the active provider. Cloud calls are
// quota-gated and booked on success. There is no mid-call fallback: a
// failing provider surfaces its typed error.
func (g *Gateway) Prompt(ctx context.Context, text string) (string, error) {
	g.mu.Lock()
	p := g.active
	if p == nil {
		g.mu.Unlock()
		return "", &ProviderError{
			Provider: "none", Code: "no_provider",
			Message: "no AI provider is available; configure one in providers.yaml",
		}
	}

	cost := 0.0
	if !p.OnDevice() {
		d, qe := g.decisionLocked()
		if qe != nil {
			g.mu.Unlock()
			return "", qe
		}
		if d.Warning != "" {
			logging.Warnf("AI usage: %s", d.Warning)
		}
		cost = cloudCostCents[p.ID()]
	}
	g.mu.Unlock()

	out, err := p.Prompt(ctx, text)
	if err != nil {
		return "", err
	}

	g.mu.Lock()
	g.usage.record(g.now(), cost)
	g.persistUsageLocked()
	g.mu.Unlock()

	return out, nil
}

// Usage returns the counters with rollover applied.
func (g *Gateway) Usage() Usage {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.usage.rollover(g.now())
	return g.usage
}

// ResetUsage zeroes all counters and the cost accumulator.
func (g *Gateway) ResetUsage() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.usage = Usage{}
	g.persistUsageLocked()
}

func (g *Gateway) persistUsageLocked() {
	if g.store == nil {
		return
	}
	if err := g.store.SetJSON(usageKey, g.usage); err != nil {
		logging.Warnf("failed to persist AI usage state: %v", err)
	}
}
