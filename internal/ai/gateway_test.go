package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabops/tabpilot/internal/store"
)

type fakeProvider struct {
	id       string
	onDevice bool
	status   Status
	reply    string
	err      error
	calls    int
}

func (f *fakeProvider) ID() string                                 { return f.id }
func (f *fakeProvider) OnDevice() bool                             { return f.onDevice }
func (f *fakeProvider) Availability(ctx context.Context) Status    { return f.status }
func (f *fakeProvider) Prompt(ctx context.Context, text string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testConfig() Config {
	c := DefaultConfig()
	c.Limits = Limits{MaxPerHour: 30, MaxPerDay: 200, WarnFraction: 0.8}
	return c
}

func TestChainOrdering(t *testing.T) {
	down := &fakeProvider{id: "ollama", onDevice: true, status: StatusNotAvailable}
	ready := &fakeProvider{id: "local", onDevice: true, status: StatusReady, reply: "ok"}
	cloud := &fakeProvider{id: "anthropic", status: StatusReady, reply: "cloud"}

	g := NewGateway(context.Background(), testConfig(), nil, WithCandidates(down, ready, cloud))
	assert.Equal(t, "local", g.ActiveProviderID())

	// First available wins, later providers are never consulted
	out, err := g.Prompt(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Zero(t, cloud.calls)
}

func TestNoProviderFailsClosed(t *testing.T) {
	down := &fakeProvider{id: "ollama", onDevice: true, status: StatusNotAvailable}
	g := NewGateway(context.Background(), testConfig(), nil, WithCandidates(down))

	assert.Equal(t, "", g.ActiveProviderID())

	d := g.CanMakeCall()
	assert.False(t, d.Allowed)
	assert.Equal(t, "no_provider", d.Reason)

	_, err := g.Prompt(context.Background(), "hi")
	require.Error(t, err)
	pe, ok := err.(*ProviderError)
	require.True(t, ok, "expected *ProviderError, got %T", err)
	assert.Equal(t, "no_provider", pe.Code)
}

func TestQuotaGateHourly(t *testing.T) {
	now := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)
	cloud := &fakeProvider{id: "anthropic", status: StatusReady, reply: "x"}
	g := NewGateway(context.Background(), testConfig(), nil,
		WithCandidates(cloud), WithClock(fixedClock(now)))

	g.usage = Usage{HourCalls: 30, TodayCalls: 30, LastCallDate: "2025-06-01", LastCallHour: 14}

	d := g.CanMakeCall()
	assert.False(t, d.Allowed)
	assert.Equal(t, "hourly_limit", d.Reason)

	_, err := g.Prompt(context.Background(), "hi")
	require.Error(t, err)
	qe, ok := err.(*QuotaError)
	require.True(t, ok, "expected *QuotaError, got %T", err)
	assert.Equal(t, "hourly_limit", qe.Scope)
	assert.Contains(t, qe.Error(), "hourly_limit")
	assert.Zero(t, cloud.calls, "gated call must not reach the provider")
}

func TestOnDeviceBypassesQuota(t *testing.T) {
	now := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)
	local := &fakeProvider{id: "local", onDevice: true, status: StatusReady, reply: "x"}
	g := NewGateway(context.Background(), testConfig(), nil,
		WithCandidates(local), WithClock(fixedClock(now)))

	g.usage = Usage{HourCalls: 999, TodayCalls: 999, LastCallDate: "2025-06-01", LastCallHour: 14}

	d := g.CanMakeCall()
	assert.True(t, d.Allowed, "on-device calls are exempt from rate limiting")

	_, err := g.Prompt(context.Background(), "hi")
	require.NoError(t, err)
}

func TestDayRolloverResetsCounters(t *testing.T) {
	// Stored state is from yesterday with 50 calls; the first access
	// after midnight must reset before evaluating allowance.
	now := time.Date(2025, 6, 2, 0, 10, 0, 0, time.UTC)
	cloud := &fakeProvider{id: "anthropic", status: StatusReady, reply: "x"}
	g := NewGateway(context.Background(), testConfig(), nil,
		WithCandidates(cloud), WithClock(fixedClock(now)))

	g.usage = Usage{TotalCalls: 50, TodayCalls: 50, HourCalls: 30, LastCallDate: "2025-06-01", LastCallHour: 23}

	d := g.CanMakeCall()
	assert.True(t, d.Allowed)

	u := g.Usage()
	assert.Equal(t, 0, u.TodayCalls)
	assert.Equal(t, 0, u.HourCalls)
	assert.Equal(t, 50, u.TotalCalls, "total never resets on rollover")
}

func TestHourRolloverResetsHourOnly(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 0, 1, 0, time.UTC)
	cloud := &fakeProvider{id: "anthropic", status: StatusReady, reply: "x"}
	g := NewGateway(context.Background(), testConfig(), nil,
		WithCandidates(cloud), WithClock(fixedClock(now)))

	g.usage = Usage{TodayCalls: 40, HourCalls: 30, LastCallDate: "2025-06-01", LastCallHour: 14}

	u := g.Usage()
	assert.Equal(t, 0, u.HourCalls)
	assert.Equal(t, 40, u.TodayCalls, "day counter survives an hour rollover")
}

func TestWarningThreshold(t *testing.T) {
	now := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)
	cloud := &fakeProvider{id: "anthropic", status: StatusReady, reply: "x"}
	g := NewGateway(context.Background(), testConfig(), nil,
		WithCandidates(cloud), WithClock(fixedClock(now)))

	// 24/30 = 80% of the hourly ceiling
	g.usage = Usage{TodayCalls: 24, HourCalls: 24, LastCallDate: "2025-06-01", LastCallHour: 14}

	d := g.CanMakeCall()
	assert.True(t, d.Allowed)
	assert.Contains(t, d.Warning, "hourly")
}

func TestPromptBooksUsageAndCost(t *testing.T) {
	now := time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC)
	cloud := &fakeProvider{id: "anthropic", status: StatusReady, reply: "x"}

	st, err := store.OpenInMemory()
	require.NoError(t, err)
	defer st.Close()

	g := NewGateway(context.Background(), testConfig(), st,
		WithCandidates(cloud), WithClock(fixedClock(now)))

	_, err = g.Prompt(context.Background(), "hi")
	require.NoError(t, err)
	_, err = g.Prompt(context.Background(), "again")
	require.NoError(t, err)

	u := g.Usage()
	assert.Equal(t, 2, u.TotalCalls)
	assert.Equal(t, 2, u.TodayCalls)
	assert.Equal(t, 2, u.HourCalls)
	assert.InDelta(t, 2*cloudCostCents["anthropic"], u.EstimatedCostCents, 0.001)

	// Usage persists and a fresh gateway picks it up
	g2 := NewGateway(context.Background(), testConfig(), st,
		WithCandidates(cloud), WithClock(fixedClock(now)))
	assert.Equal(t, 2, g2.Usage().TotalCalls)
}

func TestOnDeviceCallsAreFree(t *testing.T) {
	local := &fakeProvider{id: "ollama", onDevice: true, status: StatusReady, reply: "x"}
	g := NewGateway(context.Background(), testConfig(), nil, WithCandidates(local))

	_, err := g.Prompt(context.Background(), "hi")
	require.NoError(t, err)

	u := g.Usage()
	assert.Equal(t, 1, u.TotalCalls)
	assert.Zero(t, u.EstimatedCostCents)
}

func TestReconfigureReselects(t *testing.T) {
	p := &fakeProvider{id: "local", onDevice: true, status: StatusNotAvailable}
	g := NewGateway(context.Background(), testConfig(), nil, WithCandidates(p))
	assert.Equal(t, "", g.ActiveProviderID())

	p.status = StatusReady
	g.Reconfigure(context.Background(), testConfig())
	assert.Equal(t, "local", g.ActiveProviderID())
}

func TestResetUsage(t *testing.T) {
	cloud := &fakeProvider{id: "openai", status: StatusReady, reply: "x"}
	g := NewGateway(context.Background(), testConfig(), nil, WithCandidates(cloud))

	_, err := g.Prompt(context.Background(), "hi")
	require.NoError(t, err)
	require.NotZero(t, g.Usage().TotalCalls)

	g.ResetUsage()
	u := g.Usage()
	assert.Zero(t, u.TotalCalls)
	assert.Zero(t, u.EstimatedCostCents)
}
