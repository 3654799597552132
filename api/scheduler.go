/*
scheduler.go - Automated reconciliation scheduler

PURPOSE:
  Periodically recomputes the user's total XP and level from the
  transaction ledger so that cached stats never drift far from the
  source of truth, even if an earlier write was interrupted.

DESIGN:
  - Runs a background goroutine with configurable sweep interval
  - Sweeps once immediately on start, then on every tick
  - Errors are logged and the next tick retries; a failed sweep never
    stops the scheduler

CONFIGURATION:
  - Interval: how often to sweep (default: 1 hour)
  - Enabled: whether the scheduler is active (default: true)

USAGE:
  sched := NewReconciliationScheduler(rec, userID)
  sched.Start()
  // ... later
  sched.Stop()

SEE ALSO:
  - tracker/reconciler.go: Reevaluate, the actual recompute
  - handlers.go: ReevaluateUser endpoint (manual trigger)
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/grindstone/activity-engine/engine"
	"github.com/grindstone/activity-engine/tracker"
)

// ReconciliationScheduler sweeps the ledger on a fixed interval.
type ReconciliationScheduler struct {
	Reconciler *tracker.Reconciler
	UserID     engine.UserID
	Interval   time.Duration
	Enabled    bool

	logger *slog.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// SchedulerOption customizes a ReconciliationScheduler.
type SchedulerOption func(*ReconciliationScheduler)

// WithSchedulerLogger sets the logger used for sweep reporting.
func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(rs *ReconciliationScheduler) { rs.logger = l }
}

// NewReconciliationScheduler creates a scheduler with a 1 hour interval.
func NewReconciliationScheduler(rec *tracker.Reconciler, userID engine.UserID, opts ...SchedulerOption) *ReconciliationScheduler {
	rs := &ReconciliationScheduler{
		Reconciler: rec,
		UserID:     userID,
		Interval:   1 * time.Hour,
		Enabled:    true,
		logger:     slog.Default(),
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

// Start begins the background sweep loop.
func (rs *ReconciliationScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.logger.Info("reconciliation scheduler disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.Interval)
	rs.wg.Add(1)

	go rs.run()

	rs.logger.Info("reconciliation scheduler started", "interval", rs.Interval)
}

// Stop halts the sweep loop and waits for an in-flight sweep to finish.
func (rs *ReconciliationScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.logger.Info("reconciliation scheduler stopped")
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (rs *ReconciliationScheduler) RunNow() {
	rs.sweep()
}

func (rs *ReconciliationScheduler) run() {
	defer rs.wg.Done()

	// Sweep immediately on start
	rs.sweep()

	for {
		select {
		case <-rs.ticker.C:
			rs.sweep()
		case <-rs.stop:
			return
		}
	}
}

func (rs *ReconciliationScheduler) sweep() {
	ctx := context.Background()

	stats, err := rs.Reconciler.Reevaluate(ctx, rs.UserID)
	if err != nil {
		rs.logger.Error("reconciliation sweep failed", "user_id", rs.UserID, "error", err)
		return
	}
	rs.logger.Info("reconciliation sweep complete",
		"user_id", rs.UserID, "xp", stats.XP.String(), "level", stats.Level)
}
