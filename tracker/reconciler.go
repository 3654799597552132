/*
reconciler.go - Restores cached user stats from the transaction ledger

PURPOSE:
  The ledger is the source of truth for total XP; User.CurrentXP and
  CurrentLevel are a materialized view maintained incrementally on every
  Stop. Deleting a time entry shrinks the ledger underneath that view, so
  Reevaluate recomputes the view from the full transaction sum.

IDEMPOTENCE:
  Reevaluate writes exactly the values derived from the ledger, so running
  it twice in a row changes nothing. It can therefore also run on a timer
  as a drift sweep (see api/scheduler.go).

SEE ALSO:
  - tracker.go: the incremental update path this corrects
  - progression: LevelForXP
*/
package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grindstone/activity-engine/engine"
	"github.com/grindstone/activity-engine/progression"
)

// Stats is the reconciled view of a user's progression.
type Stats struct {
	XP    engine.XP
	Level int
}

// Reconciler recomputes cached XP/level from the transaction ledger.
type Reconciler struct {
	store  engine.LedgerStore
	logger *slog.Logger

	// Optional: a tracker whose in-memory cache mirrors the same user.
	tracker *Tracker
}

func NewReconciler(store engine.LedgerStore, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

type ReconcilerOption func(*Reconciler)

// WithReconcilerLogger sets the structured logger; nil means slog.Default().
func WithReconcilerLogger(l *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) { r.logger = l }
}

// ForTracker keeps the tracker's in-memory cache in sync with each
// reconciliation of its user.
func ForTracker(t *Tracker) ReconcilerOption {
	return func(r *Reconciler) { r.tracker = t }
}

// Reevaluate sums the user's ledger, persists the total as CurrentXP, and
// persists the level derived from it. A failure leaves the cached stats
// stale until the next successful run; nothing is partially derived.
func (r *Reconciler) Reevaluate(ctx context.Context, userID engine.UserID) (Stats, error) {
	total, err := r.store.SumXPTransactions(ctx, userID)
	if err != nil {
		r.logger.Error("reconcile: ledger sum failed", "user_id", string(userID), "error", err)
		return Stats{}, fmt.Errorf("sum xp transactions: %w", err)
	}

	level := progression.LevelForXP(total)

	if err := r.store.SetUserXP(ctx, userID, total); err != nil {
		r.logger.Error("reconcile: persist xp failed", "user_id", string(userID), "error", err)
		return Stats{}, fmt.Errorf("set user xp: %w", err)
	}
	if err := r.store.SetUserLevel(ctx, userID, level); err != nil {
		r.logger.Error("reconcile: persist level failed", "user_id", string(userID), "error", err)
		return Stats{}, fmt.Errorf("set user level: %w", err)
	}

	if r.tracker != nil && r.tracker.UserID() == userID {
		r.tracker.setCachedStats(total, level)
	}

	r.logger.Debug("reconciled user stats",
		"user_id", string(userID),
		"xp", total.String(),
		"level", level,
	)
	return Stats{XP: total, Level: level}, nil
}
