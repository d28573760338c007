// Package tabs models open browser tabs and the operations AutoPilot
// needs over them: enumeration, duplicate detection, categorization,
// closing, and grouping. The concrete inventory talks to a running
// Chromium-family browser over the DevTools Protocol.
package tabs

import "context"

// GroupNone is the GroupID sentinel for an ungrouped tab.
const GroupNone = ""

// Tab is a single open browser tab. ID is the DevTools target ID and
// is unique only while the tab stays open.
type Tab struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	FavIconURL string `json:"favIconUrl,omitempty"`
	Pinned     bool   `json:"pinned"`
	Active     bool   `json:"active"`
	GroupID    string `json:"groupId,omitempty"`
	WindowID   string `json:"windowId,omitempty"`

	// LastAccessed is epoch milliseconds. Zero means unknown and is
	// treated as "accessed now", never as infinitely stale.
	LastAccessed int64 `json:"lastAccessed,omitempty"`
}

// TabGroup is a named group of tabs.
type TabGroup struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	TabIDs []string `json:"tabIds"`
}

// Inventory enumerates and mutates the browser's open tabs.
type Inventory interface {
	// ListAll returns every open tab across all windows.
	ListAll(ctx context.Context) ([]Tab, error)

	// ListInWindow returns tabs in the given window. An empty windowID
	// returns all tabs.
	ListInWindow(ctx context.Context, windowID string) ([]Tab, error)

	// Close closes tabs by id. Closing an already-closed tab is treated
	// as already satisfied, not an error.
	Close(ctx context.Context, ids ...string) error

	// Group adds the tabs to the group with exactly the given title,
	// creating it if absent, and returns the group ID. Repeated calls
	// with the same title converge on a single group.
	Group(ctx context.Context, tabIDs []string, title string) (string, error)

	// ExtractText returns the visible page text for a tab, best effort.
	// Failures yield an empty string. Output is bounded.
	ExtractText(ctx context.Context, tabID string) string

	// Activate focuses a tab.
	Activate(ctx context.Context, tabID string) error
}
