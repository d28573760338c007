package tabs

import "strings"

// Per-tab memory estimates in MB. These are heuristics calibrated from
// typical renderer footprints, not measurements; the report treats them
// as advisory. Heavy single-page apps get domain overrides, everything
// else falls back to a per-category base.

var heavyDomainMB = map[string]int{
	"figma.com":       900,
	"canva.com":       700,
	"youtube.com":     600,
	"twitch.tv":       600,
	"netflix.com":     550,
	"maps.google.com": 520,
	"meet.google.com": 500,
	"zoom.us":         500,
	"docs.google.com": 450,
	"notion.so":       400,
}

var categoryBaseMB = map[string]int{
	"Entertainment":  250,
	"Social Media":   220,
	"Communication":  200,
	"Productivity":   200,
	"Development":    180,
	"Shopping":       150,
	"News & Reading": 120,
	"Finance":        120,
	"Search":         80,
	CategoryOther:    100,
}

// EstimateMemoryMB returns the estimated renderer memory for a tab.
func EstimateMemoryMB(tab Tab) int {
	lower := strings.ToLower(tab.URL)
	for domain, mb := range heavyDomainMB {
		if strings.Contains(lower, domain) {
			return mb
		}
	}

	if mb, ok := categoryBaseMB[Categorize(tab)]; ok {
		return mb
	}
	return categoryBaseMB[CategoryOther]
}

// TotalMemoryMB sums the estimates over an inventory.
func TotalMemoryMB(all []Tab) int {
	total := 0
	for _, tab := range all {
		total += EstimateMemoryMB(tab)
	}
	return total
}
