package autopilot

import (
	"fmt"
	"time"

	"github.com/tabops/tabpilot/internal/tabs"
)

// Recommendation is the per-tab verdict.
type Recommendation string

const (
	RecommendKeep   Recommendation = "keep"
	RecommendClose  Recommendation = "close"
	RecommendReview Recommendation = "review"
)

const msPerDay = 86_400_000

// TabHealth is the scored state of one tab. Created fresh on every
// analysis pass, never mutated afterwards, and discarded with its
// report.
type TabHealth struct {
	TabID       string `json:"tabId"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	FavIconURL  string `json:"favIconUrl,omitempty"`
	StaleDays   int    `json:"staleDays"`
	Category    string `json:"category"`
	IsStale     bool   `json:"isStale"`
	IsDuplicate bool   `json:"isDuplicate"`

	Recommendation Recommendation `json:"recommendation"`
	Reason         string         `json:"reason"`
}

// ScoreTab computes a tab's health. The checks form a priority
// cascade: pinned and active exclusions win over the duplicate flag,
// which wins over staleness. An unknown LastAccessed counts as
// accessed now, never as infinitely stale.
func ScoreTab(tab tabs.Tab, duplicateIDs map[string]bool, s Settings, now time.Time) TabHealth {
	staleDays := 0
	if tab.LastAccessed > 0 {
		if ms := now.UnixMilli() - tab.LastAccessed; ms > 0 {
			staleDays = int(ms / msPerDay)
		}
	}

	h := TabHealth{
		TabID:       tab.ID,
		Title:       tab.Title,
		URL:         tab.URL,
		FavIconURL:  tab.FavIconURL,
		StaleDays:   staleDays,
		Category:    tabs.Categorize(tab),
		IsStale:     staleDays >= s.StaleDaysThreshold,
		IsDuplicate: duplicateIDs[tab.ID],
	}

	switch {
	case tab.Pinned && s.ExcludePinned:
		h.Recommendation = RecommendKeep
		h.Reason = "Pinned tab"
	case tab.Active && s.ExcludeActive:
		h.Recommendation = RecommendKeep
		h.Reason = "Currently active"
	case h.IsDuplicate:
		h.Recommendation = RecommendClose
		h.Reason = "Duplicate tab"
	case staleDays >= s.StaleDaysThreshold:
		h.Recommendation = RecommendClose
		h.Reason = fmt.Sprintf("Not accessed in %d days", staleDays)
	case staleDays >= s.StaleDaysThreshold/2:
		h.Recommendation = RecommendReview
		h.Reason = fmt.Sprintf("Not accessed in %d days", staleDays)
	default:
		h.Recommendation = RecommendKeep
		h.Reason = "Active tab"
	}

	return h
}
