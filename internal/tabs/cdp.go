package tabs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"github.com/tabops/tabpilot/internal/logging"
	"github.com/tabops/tabpilot/internal/store"
)

const (
	// DefaultCDPURL is where a Chrome started with
	// --remote-debugging-port=9222 listens.
	DefaultCDPURL = "http://127.0.0.1:9222"

	// maxExtractChars bounds ExtractText output.
	maxExtractChars = 4096

	seenKey   = "tab_seen"
	groupsKey = "tab_groups"
)

// cdpTarget is one entry in Chrome's /json/list response.
type cdpTarget struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	FaviconURL string `json:"faviconUrl"`
}

// seenRecord tracks when a tab was first observed and last activated.
// The DevTools endpoint doesn't expose per-tab access times, so
// first-seen serves as the staleness baseline.
type seenRecord struct {
	FirstSeen  int64 `json:"firstSeen"`
	LastActive int64 `json:"lastActive,omitempty"`
}

// CDPInventory implements Inventory against a running Chrome's
// DevTools Protocol endpoint. Tab groups are not a CDP primitive, so
// the inventory owns a persisted group registry with find-or-create-by-
// title semantics.
type CDPInventory struct {
	baseURL string
	client  *http.Client
	store   *store.Store
	now     func() time.Time

	mu     sync.Mutex
	seen   map[string]*seenRecord
	groups []TabGroup

	allocOnce sync.Once
	allocCtx  context.Context
	allocStop context.CancelFunc
}

// NewCDPInventory creates an inventory over the given CDP base URL.
// st may be nil; registries then live only in memory.
func NewCDPInventory(cdpURL string, st *store.Store) *CDPInventory {
	if cdpURL == "" {
		cdpURL = DefaultCDPURL
	}
	inv := &CDPInventory{
		baseURL: strings.TrimSuffix(cdpURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
		store:   st,
		now:     time.Now,
		seen:    make(map[string]*seenRecord),
	}
	inv.loadRegistries()
	return inv
}

// Reachable checks whether the CDP endpoint is responding.
func (inv *CDPInventory) Reachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, inv.baseURL+"/json/version", nil)
	if err != nil {
		return false
	}
	resp, err := inv.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ListAll returns all open page tabs.
func (inv *CDPInventory) ListAll(ctx context.Context) ([]Tab, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, inv.baseURL+"/json/list", nil)
	if err != nil {
		return nil, err
	}
	resp, err := inv.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("browser unreachable at %s: %w", inv.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("browser returned status %d listing tabs", resp.StatusCode)
	}

	var targets []cdpTarget
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return nil, fmt.Errorf("failed to decode tab list: %w", err)
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	nowMs := inv.now().UnixMilli()
	open := make(map[string]bool, len(targets))
	var out []Tab

	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		// DevTools frontends and extension pages are not user tabs.
		if strings.HasPrefix(t.URL, "devtools://") || strings.HasPrefix(t.URL, "chrome-extension://") {
			continue
		}
		open[t.ID] = true

		rec := inv.seen[t.ID]
		if rec == nil {
			rec = &seenRecord{FirstSeen: nowMs}
			inv.seen[t.ID] = rec
		}
		last := rec.LastActive
		if last == 0 {
			last = rec.FirstSeen
		}

		out = append(out, Tab{
			ID:           t.ID,
			Title:        t.Title,
			URL:          t.URL,
			FavIconURL:   t.FaviconURL,
			GroupID:      inv.groupIDForLocked(t.ID),
			LastAccessed: last,
		})
	}

	// Drop registry entries for tabs that have been closed.
	for id := range inv.seen {
		if !open[id] {
			delete(inv.seen, id)
		}
	}
	inv.saveRegistriesLocked()

	return out, nil
}

// ListInWindow filters by window. The DevTools HTTP endpoint doesn't
// report window membership, so every tab carries the empty window ID
// and any other filter returns nothing.
func (inv *CDPInventory) ListInWindow(ctx context.Context, windowID string) ([]Tab, error) {
	all, err := inv.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if windowID == "" {
		return all, nil
	}
	var out []Tab
	for _, tab := range all {
		if tab.WindowID == windowID {
			out = append(out, tab)
		}
	}
	return out, nil
}

// Close closes tabs by id. A 404 means the tab is already gone and is
// treated as success.
func (inv *CDPInventory) Close(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, inv.baseURL+"/json/close/"+id, nil)
		if err != nil {
			return err
		}
		resp, err := inv.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to close tab %s: %w", id, err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
			return fmt.Errorf("browser returned status %d closing tab %s", resp.StatusCode, id)
		}
	}
	return nil
}

// Activate focuses a tab and records the access time.
func (inv *CDPInventory) Activate(ctx context.Context, tabID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, inv.baseURL+"/json/activate/"+tabID, nil)
	if err != nil {
		return err
	}
	resp, err := inv.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to activate tab %s: %w", tabID, err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("browser returned status %d activating tab %s", resp.StatusCode, tabID)
	}

	inv.mu.Lock()
	if rec := inv.seen[tabID]; rec != nil {
		rec.LastActive = inv.now().UnixMilli()
	} else {
		inv.seen[tabID] = &seenRecord{FirstSeen: inv.now().UnixMilli(), LastActive: inv.now().UnixMilli()}
	}
	inv.saveRegistriesLocked()
	inv.mu.Unlock()
	return nil
}

// Group implements find-or-create-by-title with merge semantics.
// Title matching is exact and case-sensitive.
func (inv *CDPInventory) Group(ctx context.Context, tabIDs []string, title string) (string, error) {
	if title == "" {
		return "", fmt.Errorf("group title must not be empty")
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	for i := range inv.groups {
		if inv.groups[i].Title == title {
			inv.groups[i].TabIDs = unionIDs(inv.groups[i].TabIDs, tabIDs)
			inv.saveRegistriesLocked()
			return inv.groups[i].ID, nil
		}
	}

	g := TabGroup{ID: uuid.NewString(), Title: title, TabIDs: unionIDs(nil, tabIDs)}
	inv.groups = append(inv.groups, g)
	inv.saveRegistriesLocked()
	return g.ID, nil
}

// Groups returns a copy of the group registry.
func (inv *CDPInventory) Groups() []TabGroup {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make([]TabGroup, len(inv.groups))
	copy(out, inv.groups)
	return out
}

// ExtractText attaches to the tab over CDP and reads the visible body
// text. Best effort: any failure yields an empty string.
func (inv *CDPInventory) ExtractText(ctx context.Context, tabID string) string {
	alloc, err := inv.allocator(ctx)
	if err != nil {
		logging.Debugf("extract text: no CDP allocator: %v", err)
		return ""
	}

	tabCtx, cancel := chromedp.NewContext(alloc, chromedp.WithTargetID(target.ID(tabID)))
	defer cancel()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 10*time.Second)
	defer cancelTimeout()

	var text string
	if err := chromedp.Run(tabCtx, chromedp.Text("body", &text, chromedp.ByQuery)); err != nil {
		logging.Debugf("extract text from %s failed: %v", tabID, err)
		return ""
	}

	if len(text) > maxExtractChars {
		text = text[:maxExtractChars]
	}
	return text
}

// allocator lazily builds the remote chromedp allocator from the
// browser's reported WebSocket URL.
func (inv *CDPInventory) allocator(ctx context.Context) (context.Context, error) {
	var err error
	inv.allocOnce.Do(func() {
		var wsURL string
		wsURL, err = inv.webSocketURL(ctx)
		if err != nil {
			return
		}
		inv.allocCtx, inv.allocStop = chromedp.NewRemoteAllocator(context.Background(), wsURL, chromedp.NoModifyURL)
	})
	if inv.allocCtx == nil {
		if err == nil {
			err = fmt.Errorf("CDP allocator unavailable")
		}
		return nil, err
	}
	return inv.allocCtx, nil
}

// webSocketURL reads webSocketDebuggerUrl from /json/version.
func (inv *CDPInventory) webSocketURL(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, inv.baseURL+"/json/version", nil)
	if err != nil {
		return "", err
	}
	resp, err := inv.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var version struct {
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := json.Unmarshal(body, &version); err != nil {
		return "", err
	}
	if version.WebSocketDebuggerURL == "" {
		return "", fmt.Errorf("no webSocketDebuggerUrl in /json/version response")
	}
	return version.WebSocketDebuggerURL, nil
}

// Stop tears down the chromedp allocator.
func (inv *CDPInventory) Stop() {
	if inv.allocStop != nil {
		inv.allocStop()
	}
}

func (inv *CDPInventory) groupIDForLocked(tabID string) string {
	for _, g := range inv.groups {
		for _, id := range g.TabIDs {
			if id == tabID {
				return g.ID
			}
		}
	}
	return GroupNone
}

func (inv *CDPInventory) loadRegistries() {
	if inv.store == nil {
		return
	}
	if _, err := inv.store.GetJSON(seenKey, &inv.seen); err != nil {
		logging.Warnf("failed to load tab registry: %v", err)
	}
	if inv.seen == nil {
		inv.seen = make(map[string]*seenRecord)
	}
	if _, err := inv.store.GetJSON(groupsKey, &inv.groups); err != nil {
		logging.Warnf("failed to load group registry: %v", err)
	}
}

func (inv *CDPInventory) saveRegistriesLocked() {
	if inv.store == nil {
		return
	}
	if err := inv.store.SetJSON(seenKey, inv.seen); err != nil {
		logging.Warnf("failed to save tab registry: %v", err)
	}
	if err := inv.store.SetJSON(groupsKey, inv.groups); err != nil {
		logging.Warnf("failed to save group registry: %v", err)
	}
}

// unionIDs appends the ids in add that base doesn't already contain,
// preserving order.
func unionIDs(base, add []string) []string {
	seen := make(map[string]bool, len(base))
	out := make([]string, 0, len(base)+len(add))
	for _, id := range base {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range add {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
