package daemon

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tabops/tabpilot/internal/autopilot"
	"github.com/tabops/tabpilot/internal/tabs"
)

type countingInventory struct {
	lists atomic.Int64
}

func (f *countingInventory) ListAll(ctx context.Context) ([]tabs.Tab, error) {
	f.lists.Add(1)
	return nil, nil
}

func (f *countingInventory) ListInWindow(ctx context.Context, windowID string) ([]tabs.Tab, error) {
	return nil, nil
}

func (f *countingInventory) Close(ctx context.Context, ids ...string) error { return nil }

func (f *countingInventory) Group(ctx context.Context, tabIDs []string, title string) (string, error) {
	return "", nil
}

func (f *countingInventory) ExtractText(ctx context.Context, tabID string) string { return "" }

func (f *countingInventory) Activate(ctx context.Context, tabID string) error { return nil }

func TestDebounceCoalescesBursts(t *testing.T) {
	inv := &countingInventory{}
	engine := autopilot.NewEngine(inv, nil, nil)
	d := New(engine, WithSchedule("@every 1h"), WithDebounce(30*time.Millisecond))

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()

	// Three updates to the same tab inside the window collapse into
	// one pass; an update to a different tab gets its own timer.
	d.NotifyTabUpdated("tab-1")
	d.NotifyTabUpdated("tab-1")
	d.NotifyTabUpdated("tab-1")
	d.NotifyTabUpdated("tab-2")

	deadline := time.After(2 * time.Second)
	for inv.lists.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("passes = %d, want 2", inv.lists.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}

	// Give any stray extra timers a chance to fire.
	time.Sleep(100 * time.Millisecond)
	if got := inv.lists.Load(); got != 2 {
		t.Errorf("passes = %d, want 2", got)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	engine := autopilot.NewEngine(&countingInventory{}, nil, nil)
	d := New(engine, WithSchedule("not a schedule"))
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("bad schedule should fail Start")
	}
}

func TestNotifyAfterStopIsNoop(t *testing.T) {
	inv := &countingInventory{}
	engine := autopilot.NewEngine(inv, nil, nil)
	d := New(engine, WithSchedule("@every 1h"), WithDebounce(time.Millisecond))

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	d.Stop()

	d.NotifyTabUpdated("tab-1")
	time.Sleep(50 * time.Millisecond)
	if got := inv.lists.Load(); got != 0 {
		t.Errorf("passes after stop = %d, want 0", got)
	}
}
