package tabs

import (
	"testing"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		same bool
	}{
		{"fragment ignored", "https://x.com/a?q=1#frag1", "https://x.com/a?q=1#frag2", true},
		{"query significant", "https://x.com/a?q=1", "https://x.com/a?q=2", false},
		{"host case folded", "https://X.COM/a", "https://x.com/a", true},
		{"trailing slash stripped", "https://x.com/a/", "https://x.com/a", true},
		{"path significant", "https://x.com/a", "https://x.com/b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka, kb := NormalizeURL(tt.a), NormalizeURL(tt.b)
			if (ka == kb) != tt.same {
				t.Errorf("NormalizeURL(%q)=%q, NormalizeURL(%q)=%q, want same=%v",
					tt.a, ka, tt.b, kb, tt.same)
			}
		})
	}
}

func TestNormalizeURLUnparsable(t *testing.T) {
	raw := "not a url at all"
	if got := NormalizeURL(raw); got != raw {
		t.Errorf("unparsable URL should key on its raw string, got %q", got)
	}
}

func TestFindDuplicates(t *testing.T) {
	all := []Tab{
		{ID: "1", URL: "https://x.com/a?q=1#one"},
		{ID: "2", URL: "https://y.com/solo"},
		{ID: "3", URL: "https://x.com/a?q=1#two"},
		{ID: "4", URL: "https://x.com/a?q=1"},
		{ID: "5", URL: "https://x.com/a?q=2"},
	}

	groups := FindDuplicates(all)
	if len(groups) != 1 {
		t.Fatalf("expected 1 duplicate group, got %d", len(groups))
	}
	if len(groups[0]) != 3 {
		t.Fatalf("expected group of 3, got %d", len(groups[0]))
	}

	// First-seen order preserved within the group
	wantIDs := []string{"1", "3", "4"}
	for i, tab := range groups[0] {
		if tab.ID != wantIDs[i] {
			t.Errorf("group[%d].ID = %s, want %s", i, tab.ID, wantIDs[i])
		}
	}

	if n := DuplicateCount(groups); n != 2 {
		t.Errorf("DuplicateCount = %d, want 2", n)
	}

	ids := DuplicateIDSet(groups)
	if !ids["1"] || !ids["3"] || !ids["4"] || ids["2"] || ids["5"] {
		t.Errorf("unexpected duplicate id set: %v", ids)
	}
}

func TestFindDuplicatesEmpty(t *testing.T) {
	if groups := FindDuplicates(nil); len(groups) != 0 {
		t.Errorf("expected no groups for empty input, got %d", len(groups))
	}
}

func TestFindDuplicatesUnparsableURLsGroupTogether(t *testing.T) {
	all := []Tab{
		{ID: "1", URL: "garbage value"},
		{ID: "2", URL: "garbage value"},
		{ID: "3", URL: "different garbage"},
	}
	groups := FindDuplicates(all)
	if len(groups) != 1 || len(groups[0]) != 2 {
		t.Fatalf("unparsable URLs with the same raw string should form one group, got %v", groups)
	}
}
