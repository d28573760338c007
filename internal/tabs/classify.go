package tabs

import "strings"

// CategoryOther is the fallback category for tabs matching no rule.
const CategoryOther = "Other"

// categoryRule maps a category to the substrings that select it.
// Matching is case-insensitive over URL and title.
type categoryRule struct {
	category string
	patterns []string
}

// categoryRules is checked in order and the first match wins. The
// ordering is load-bearing: a GitHub URL whose title mentions "news"
// must still classify as Development because that rule runs first.
// Reordering or inserting rules changes categorization of live tabs,
// so treat this list as append-within-rule only.
var categoryRules = []categoryRule{
	{"Social Media", []string{
		"facebook.com", "twitter.com", "x.com", "instagram.com",
		"reddit.com", "linkedin.com", "tiktok.com", "threads.net",
		"bsky.app", "mastodon",
	}},
	{"Development", []string{
		"github.com", "gitlab.com", "stackoverflow.com", "localhost",
		"bitbucket.org", "npmjs.com", "developer.mozilla.org",
		"codepen.io", "vercel.com", "jsfiddle.net", "pkg.go.dev",
	}},
	{"Communication", []string{
		"mail.google.com", "outlook.", "slack.com", "discord.com",
		"teams.microsoft.com", "telegram.org", "web.whatsapp.com",
		"zoom.us", "meet.google.com",
	}},
	{"Shopping", []string{
		"amazon.", "ebay.", "etsy.com", "aliexpress.com",
		"walmart.com", "temu.com", "shop",
	}},
	{"Entertainment", []string{
		"youtube.com", "netflix.com", "spotify.com", "twitch.tv",
		"hulu.com", "disneyplus.com", "soundcloud.com", "vimeo.com",
	}},
	{"News & Reading", []string{
		"news", "nytimes.com", "bbc.", "cnn.com", "medium.com",
		"substack.com", "theguardian.com", "wikipedia.org",
	}},
	{"Productivity", []string{
		"notion.so", "docs.google.com", "sheets.google.com",
		"trello.com", "asana.com", "airtable.com",
		"calendar.google.com", "linear.app", "atlassian.net",
	}},
	{"Search", []string{
		"google.com/search", "bing.com", "duckduckgo.com", "search",
	}},
	{"Finance", []string{
		"paypal.com", "stripe.com", "coinbase.com", "bank",
		"chase.com", "fidelity.com", "robinhood.com", "bloomberg.com",
	}},
}

// Categorize returns the category label for a tab. Pure function of
// the tab's URL and title; defaults to CategoryOther.
func Categorize(tab Tab) string {
	haystack := strings.ToLower(tab.URL) + " " + strings.ToLower(tab.Title)

	for _, rule := range categoryRules {
		for _, pattern := range rule.patterns {
			if strings.Contains(haystack, pattern) {
				return rule.category
			}
		}
	}
	return CategoryOther
}

// Categories returns the fixed taxonomy in rule order, excluding the
// fallback category.
func Categories() []string {
	out := make([]string, 0, len(categoryRules))
	for _, rule := range categoryRules {
		out = append(out, rule.category)
	}
	return out
}

// IsKnownCategory reports whether name is in the fixed taxonomy
// (including the fallback). AI-suggested categories outside the
// taxonomy are discarded by callers.
func IsKnownCategory(name string) bool {
	if name == CategoryOther {
		return true
	}
	for _, rule := range categoryRules {
		if rule.category == name {
			return true
		}
	}
	return false
}
