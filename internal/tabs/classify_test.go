package tabs

import (
	"context"
	"testing"
)

func TestCategorizeFixtures(t *testing.T) {
	tests := []struct {
		url   string
		title string
		want  string
	}{
		{"https://github.com/golang/go/pulls", "Pull requests", "Development"},
		{"https://stackoverflow.com/questions/1", "How do I...", "Development"},
		{"https://www.reddit.com/r/golang", "r/golang", "Social Media"},
		{"https://mail.google.com/mail/u/0", "Inbox", "Communication"},
		{"https://www.amazon.com/dp/B01", "Widget", "Shopping"},
		{"https://www.youtube.com/watch?v=abc", "Video", "Entertainment"},
		{"https://www.nytimes.com/section/world", "World", "News & Reading"},
		{"https://www.notion.so/workspace", "Notes", "Productivity"},
		{"https://duckduckgo.com/?q=go", "go at DuckDuckGo", "Search"},
		{"https://www.chase.com/personal", "Accounts", "Finance"},
		{"https://example.org/page", "Plain page", "Other"},
	}

	for _, tt := range tests {
		got := Categorize(Tab{URL: tt.url, Title: tt.title})
		if got != tt.want {
			t.Errorf("Categorize(%s) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

// Rule order is load-bearing: a GitHub tab whose title mentions "news"
// must resolve through the Development rule, which runs first.
func TestCategorizeRulePrecedence(t *testing.T) {
	tab := Tab{URL: "https://github.com/trending", Title: "GitHub news for the week"}
	if got := Categorize(tab); got != "Development" {
		t.Errorf("Categorize = %q, want Development (rule order broken?)", got)
	}

	// reddit.com contains no dev pattern but the title mentions code;
	// Social Media still wins because it is checked earlier.
	tab = Tab{URL: "https://reddit.com/r/programming", Title: "code talk"}
	if got := Categorize(tab); got != "Social Media" {
		t.Errorf("Categorize = %q, want Social Media", got)
	}
}

func TestIsKnownCategory(t *testing.T) {
	for _, name := range Categories() {
		if !IsKnownCategory(name) {
			t.Errorf("category %q should be known", name)
		}
	}
	if !IsKnownCategory(CategoryOther) {
		t.Error("Other should be known")
	}
	if IsKnownCategory("Memes") {
		t.Error("unknown category accepted")
	}
}

func TestEstimateMemoryMB(t *testing.T) {
	heavy := Tab{URL: "https://www.figma.com/file/x"}
	light := Tab{URL: "https://duckduckgo.com/?q=go"}
	if EstimateMemoryMB(heavy) <= EstimateMemoryMB(light) {
		t.Error("heavy SPA should estimate above a search page")
	}

	total := TotalMemoryMB([]Tab{heavy, light})
	if total != EstimateMemoryMB(heavy)+EstimateMemoryMB(light) {
		t.Errorf("TotalMemoryMB = %d, want sum of parts", total)
	}
}

// Group registry semantics work without a browser: repeated grouping
// with the same title merges into one group.
func TestGroupMerge(t *testing.T) {
	inv := NewCDPInventory("http://127.0.0.1:0", nil)
	ctx := context.Background()

	id1, err := inv.Group(ctx, []string{"a", "b"}, "Development")
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}

	id2, err := inv.Group(ctx, []string{"b", "c"}, "Development")
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}

	if id1 != id2 {
		t.Errorf("same title should merge into one group: %s vs %s", id1, id2)
	}

	groups := inv.Groups()
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	want := []string{"a", "b", "c"}
	if len(groups[0].TabIDs) != len(want) {
		t.Fatalf("expected union of tab ids, got %v", groups[0].TabIDs)
	}
	for i, id := range want {
		if groups[0].TabIDs[i] != id {
			t.Errorf("TabIDs[%d] = %s, want %s", i, groups[0].TabIDs[i], id)
		}
	}

	// Title matching is exact and case-sensitive
	id3, err := inv.Group(ctx, []string{"d"}, "development")
	if err != nil {
		t.Fatalf("Group failed: %v", err)
	}
	if id3 == id1 {
		t.Error("case-different title should create a separate group")
	}
}
