package autopilot

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tabops/tabpilot/internal/ai"
	"github.com/tabops/tabpilot/internal/logging"
	"github.com/tabops/tabpilot/internal/store"
	"github.com/tabops/tabpilot/internal/tabs"
)

const memoryHogLimit = 5

// Engine is the AutoPilot core: it aggregates classifier, scorer, and
// duplicate-detector output into a report and optionally executes the
// recommendations. All collaborators are injected; the gateway may be
// nil when AI enrichment is unconfigured.
type Engine struct {
	inv      tabs.Inventory
	gateway  *ai.Gateway
	store    *store.Store
	executor *Executor
	now      func() time.Time

	mu       sync.Mutex
	settings *Settings // cached until ReloadSettings
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock injects the time source for deterministic staleness tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an AutoPilot engine.
func NewEngine(inv tabs.Inventory, gateway *ai.Gateway, st *store.Store, opts ...EngineOption) *Engine {
	e := &Engine{
		inv:      inv,
		gateway:  gateway,
		store:    st,
		executor: NewExecutor(inv),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Settings returns the cached settings, loading them on first use.
func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settingsLocked()
}

func (e *Engine) settingsLocked() Settings {
	if e.settings == nil {
		s, err := LoadSettings(e.store)
		if err != nil {
			logging.Warnf("failed to load settings, using defaults: %v", err)
			s = DefaultSettings()
		}
		e.settings = &s
	}
	return *e.settings
}

// ReloadSettings drops the cache so the next access re-reads the store.
func (e *Engine) ReloadSettings() {
	e.mu.Lock()
	e.settings = nil
	e.mu.Unlock()
}

// SaveSettings persists s and updates the cache.
func (e *Engine) SaveSettings(s Settings) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := SaveSettings(e.store, s); err != nil {
		return err
	}
	e.settings = &s
	return nil
}

// Analyze runs one read-only analysis pass over the full inventory.
func (e *Engine) Analyze(ctx context.Context) (*Report, error) {
	return e.analyze(ctx, nil)
}

// AnalyzeWithAICategories asks the gateway to categorize the tabs and
// runs the analysis with those categories where the AI produced a
// known label, falling back to the rule-based category per tab.
func (e *Engine) AnalyzeWithAICategories(ctx context.Context) (*Report, error) {
	all, err := e.inv.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	overrides, err := CategorizeWithAI(ctx, e.gateway, all)
	if err != nil {
		logging.Warnf("AI categorization unavailable: %v", err)
		overrides = nil
	}
	return e.analyze(ctx, overrides)
}

func (e *Engine) analyze(ctx context.Context, categoryOverrides map[string]string) (*Report, error) {
	e.ReloadSettings()
	s := e.Settings()

	all, err := e.inv.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	dupGroups := tabs.FindDuplicates(all)
	dupIDs := tabs.DuplicateIDSet(dupGroups)
	now := e.now()

	r := &Report{
		ID:             uuid.NewString(),
		GeneratedAt:    now,
		TotalTabs:      len(all),
		TotalMemoryMB:  tabs.TotalMemoryMB(all),
		DuplicateCount: tabs.DuplicateCount(dupGroups),
	}

	// Bucket by category in insertion order; collect suggestions in
	// the same pass so everything inherits inventory order.
	bucketIdx := make(map[string]int)
	ungroupedIDs := make(map[string][]string)
	var hogs []MemoryHog

	for _, tab := range all {
		h := ScoreTab(tab, dupIDs, s, now)
		if cat, ok := categoryOverrides[tab.ID]; ok {
			h.Category = cat
		}

		idx, ok := bucketIdx[h.Category]
		if !ok {
			idx = len(r.CategoryGroups)
			bucketIdx[h.Category] = idx
			r.CategoryGroups = append(r.CategoryGroups, CategoryGroup{Name: h.Category})
		}
		r.CategoryGroups[idx].Tabs = append(r.CategoryGroups[idx].Tabs, h)

		if h.IsStale {
			r.StaleCount++
		}
		if h.Recommendation == RecommendClose {
			r.Recommendations.CloseSuggestions = append(r.Recommendations.CloseSuggestions, h)
		}

		// Tabs already sitting in a group are not re-suggested; this
		// is what makes a second AutoPilot pass converge to a no-op.
		if tab.GroupID == tabs.GroupNone {
			ungroupedIDs[h.Category] = append(ungroupedIDs[h.Category], tab.ID)
		}

		if mb := tabs.EstimateMemoryMB(tab); mb > s.MemoryThresholdMB {
			hogs = append(hogs, MemoryHog{TabID: tab.ID, Title: tab.Title, URL: tab.URL, EstimatedMB: mb})
		}
	}

	for _, g := range r.CategoryGroups {
		if g.Name == tabs.CategoryOther {
			continue
		}
		ids := ungroupedIDs[g.Name]
		if len(ids) >= 2 {
			r.Recommendations.GroupSuggestions = append(r.Recommendations.GroupSuggestions,
				GroupSuggestion{Name: g.Name, TabIDs: ids})
		}
	}

	// Top 5 by estimate; stable sort keeps inventory order on ties.
	sort.SliceStable(hogs, func(i, j int) bool { return hogs[i].EstimatedMB > hogs[j].EstimatedMB })
	if len(hogs) > memoryHogLimit {
		hogs = hogs[:memoryHogLimit]
	}
	r.Recommendations.MemoryHogs = hogs

	return r, nil
}

// AnalyzeWithAI extends Analyze with a short narrative insight from
// the AI gateway. Gateway failure is soft: the structured report is
// still returned, with AIInsights carrying the explanation.
func (e *Engine) AnalyzeWithAI(ctx context.Context) (*Report, error) {
	r, err := e.Analyze(ctx)
	if err != nil {
		return nil, err
	}

	if e.gateway == nil {
		r.AIInsights = "AI insights unavailable: no provider configured"
		return r, nil
	}

	prompt := "You are a browser tab assistant. Given this tab summary, reply with " +
		"2-3 plain sentences of actionable cleanup advice. No markdown.\n\n" + r.digest()

	insight, err := e.gateway.Prompt(ctx, prompt)
	if err != nil {
		logging.Warnf("AI insights failed: %v", err)
		r.AIInsights = "AI insights unavailable: " + err.Error()
		return r, nil
	}

	r.AIInsights = insight
	return r, nil
}

// ExecuteResult pairs the report with what was actually done.
type ExecuteResult struct {
	Report  *Report `json:"report"`
	Closed  int     `json:"closed"`
	Grouped int     `json:"grouped"`
}

// Execute runs one full AutoPilot pass: a single shared analysis, then
// conditional auto-close of stale-or-duplicate tabs, then conditional
// auto-grouping — sequentially, so a tab can't be closed and grouped
// in the same pass. Idempotent on an unchanged tab set: after one
// mutating run, a second finds nothing left to close or group.
func (e *Engine) Execute(ctx context.Context) (*ExecuteResult, error) {
	r, err := e.AnalyzeWithAI(ctx)
	if err != nil {
		return nil, err
	}

	s := e.Settings()
	result := &ExecuteResult{Report: r}

	if s.AutoCloseStale {
		toClose := r.StaleOrDuplicate()
		ids := make([]string, 0, len(toClose))
		for _, h := range toClose {
			ids = append(ids, h.TabID)
		}
		closed, err := e.executor.ExecuteCleanup(ctx, ids)
		if err != nil {
			return result, err
		}
		result.Closed = closed
	}

	if s.AutoGroupByCategory {
		grouped, err := e.executor.ExecuteGrouping(ctx, r.Recommendations.GroupSuggestions)
		if err != nil {
			return result, err
		}
		result.Grouped = grouped
	}

	return result, nil
}

// Executor exposes the remediation executor for callers that apply a
// previously computed report.
func (e *Engine) Executor() *Executor {
	return e.executor
}
