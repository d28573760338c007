package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tabops/tabpilot/internal/autopilot"
	"github.com/tabops/tabpilot/internal/tabs"
)

type staticInventory struct {
	tabs []tabs.Tab
}

func (f *staticInventory) ListAll(ctx context.Context) ([]tabs.Tab, error) { return f.tabs, nil }

func (f *staticInventory) ListInWindow(ctx context.Context, windowID string) ([]tabs.Tab, error) {
	return f.tabs, nil
}

func (f *staticInventory) Close(ctx context.Context, ids ...string) error { return nil }

func (f *staticInventory) Group(ctx context.Context, tabIDs []string, title string) (string, error) {
	return "g1", nil
}

func (f *staticInventory) ExtractText(ctx context.Context, tabID string) string { return "" }

func (f *staticInventory) Activate(ctx context.Context, tabID string) error { return nil }

func testServer() *Server {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	inv := &staticInventory{tabs: []tabs.Tab{
		{ID: "t1", Title: "GitHub", URL: "https://github.com/a", LastAccessed: now.UnixMilli()},
		{ID: "t2", Title: "GitLab", URL: "https://gitlab.com/b", LastAccessed: now.UnixMilli()},
	}}
	engine := autopilot.NewEngine(inv, nil, nil, autopilot.WithClock(func() time.Time { return now }))
	return New(engine, nil)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer().Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestReportEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer().Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/report", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var report autopilot.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.TotalTabs != 2 {
		t.Errorf("totalTabs = %d, want 2", report.TotalTabs)
	}
	if len(report.Recommendations.GroupSuggestions) != 1 {
		t.Errorf("groupSuggestions = %d, want 1", len(report.Recommendations.GroupSuggestions))
	}
}

func TestUsageWithoutGateway(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer().Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/usage", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "no_provider") {
		t.Errorf("body = %s, want no_provider error", rec.Body.String())
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	srv := testServer()
	router := srv.Router()

	body := strings.NewReader(`{"staleDaysThreshold":14,"autoCloseStale":true,"memoryThresholdMB":500,"excludePinned":true,"excludeActive":true}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/settings", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	var s autopilot.Settings
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if s.StaleDaysThreshold != 14 || !s.AutoCloseStale {
		t.Errorf("settings not persisted: %+v", s)
	}
}

func TestPutSettingsBadJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer().Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader("{")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
