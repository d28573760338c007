package autopilot

import (
	"fmt"
	"strings"
	"time"
)

// CategoryGroup is one category bucket in the report. A slice keeps
// insertion order; a map would scramble it.
type CategoryGroup struct {
	Name string      `json:"name"`
	Tabs []TabHealth `json:"tabs"`
}

// GroupSuggestion proposes collecting tabs under a named tab group.
type GroupSuggestion struct {
	Name   string   `json:"name"`
	TabIDs []string `json:"tabIds"`
}

// MemoryHog flags a tab whose estimated footprint exceeds the
// configured threshold.
type MemoryHog struct {
	TabID       string `json:"tabId"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	EstimatedMB int    `json:"estimatedMB"`
}

// Recommendations is the actionable section of a report.
type Recommendations struct {
	CloseSuggestions []TabHealth       `json:"closeSuggestions"`
	GroupSuggestions []GroupSuggestion `json:"groupSuggestions"`
	MemoryHogs       []MemoryHog       `json:"memoryHogs"`
}

// Report is one analysis pass over the tab inventory. Ephemeral:
// callers may cache it but nothing here is persisted.
type Report struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generatedAt"`

	TotalTabs      int `json:"totalTabs"`
	TotalMemoryMB  int `json:"totalMemoryMB"`
	StaleCount     int `json:"staleCount"`
	DuplicateCount int `json:"duplicateCount"`

	CategoryGroups  []CategoryGroup `json:"categoryGroups"`
	Recommendations Recommendations `json:"recommendations"`

	// AIInsights is free text, populated only when enrichment ran.
	// On gateway failure it carries an explanatory message instead.
	AIInsights string `json:"aiInsights,omitempty"`
}

// digest renders the compact textual summary sent to the AI gateway
// for narrative insights. Counts only — no URLs or titles leave the
// machine unless the user picked a cloud provider anyway.
func (r *Report) digest() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Open tabs: %d (est. %d MB)\n", r.TotalTabs, r.TotalMemoryMB)
	fmt.Fprintf(&b, "Stale: %d, duplicates: %d\n", r.StaleCount, r.DuplicateCount)
	for _, g := range r.CategoryGroups {
		fmt.Fprintf(&b, "%s: %d\n", g.Name, len(g.Tabs))
	}
	fmt.Fprintf(&b, "Close suggestions: %d, group suggestions: %d\n",
		len(r.Recommendations.CloseSuggestions), len(r.Recommendations.GroupSuggestions))
	return b.String()
}

// StaleOrDuplicate returns the close suggestions that are stale or
// duplicate. Auto-close acts only on these, not on tabs flagged close
// by any future rule.
func (r *Report) StaleOrDuplicate() []TabHealth {
	var out []TabHealth
	for _, h := range r.Recommendations.CloseSuggestions {
		if h.IsStale || h.IsDuplicate {
			out = append(out, h)
		}
	}
	return out
}
