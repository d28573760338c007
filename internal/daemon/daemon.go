// Package daemon runs AutoPilot passes on a schedule and debounces
// per-tab change notifications into follow-up passes.
package daemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/tabops/tabpilot/internal/autopilot"
	"github.com/tabops/tabpilot/internal/logging"
)

// DefaultSchedule runs a pass every 15 minutes.
const DefaultSchedule = "@every 15m"

// defaultDebounce batches rapid tab-update bursts into one pass.
const defaultDebounce = 5 * time.Second

// Daemon drives periodic and event-triggered AutoPilot passes.
type Daemon struct {
	engine   *autopilot.Engine
	schedule string
	debounce time.Duration

	scheduler *cronlib.Cron

	mu     sync.Mutex
	timers map[string]*time.Timer // tab id -> pending debounce
	ctx    context.Context
	cancel context.CancelFunc
}

// DaemonOption configures a Daemon.
type DaemonOption func(*Daemon)

// WithSchedule overrides the cron schedule expression.
func WithSchedule(expr string) DaemonOption {
	return func(d *Daemon) { d.schedule = expr }
}

// WithDebounce overrides the per-tab debounce window.
func WithDebounce(window time.Duration) DaemonOption {
	return func(d *Daemon) { d.debounce = window }
}

// New creates a daemon around the engine.
func New(engine *autopilot.Engine, opts ...DaemonOption) *Daemon {
	d := &Daemon{
		engine:   engine,
		schedule: DefaultSchedule,
		debounce: defaultDebounce,
		timers:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start schedules periodic passes. It returns immediately; Stop tears
// down the scheduler and any pending debounce timers.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.scheduler != nil {
		return fmt.Errorf("daemon already started")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.scheduler = cronlib.New()
	if _, err := d.scheduler.AddFunc(d.schedule, func() { d.runPass("schedule") }); err != nil {
		d.scheduler = nil
		d.cancel()
		return fmt.Errorf("invalid schedule %q: %w", d.schedule, err)
	}
	d.scheduler.Start()
	logging.Infof("autopilot daemon started, schedule %q", d.schedule)
	return nil
}

// NotifyTabUpdated requests a pass after the debounce window. A newer
// notification for the same tab replaces the pending one, so a burst
// of updates to one tab yields a single pass.
func (d *Daemon) NotifyTabUpdated(tabID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.scheduler == nil {
		return
	}

	if t, ok := d.timers[tabID]; ok {
		t.Stop()
	}
	d.timers[tabID] = time.AfterFunc(d.debounce, func() {
		d.mu.Lock()
		delete(d.timers, tabID)
		d.mu.Unlock()
		d.runPass("tab " + tabID)
	})
}

func (d *Daemon) runPass(trigger string) {
	ctx := d.ctx
	if ctx == nil || ctx.Err() != nil {
		return
	}

	result, err := d.engine.Execute(ctx)
	if err != nil {
		logging.Warnf("autopilot pass (%s) failed: %v", trigger, err)
		return
	}
	logging.Infof("autopilot pass (%s): %d tabs, closed %d, grouped %d",
		trigger, result.Report.TotalTabs, result.Closed, result.Grouped)
}

// Stop halts the scheduler, cancels pending debounce timers, and waits
// for any in-flight scheduled pass to finish.
func (d *Daemon) Stop() {
	d.mu.Lock()
	scheduler := d.scheduler
	d.scheduler = nil
	for id, t := range d.timers {
		t.Stop()
		delete(d.timers, id)
	}
	cancel := d.cancel
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	logging.Infof("autopilot daemon stopped")
}
