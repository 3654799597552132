/*
Package tracker owns the session lifecycle and the cached user stats.

PURPOSE:
  The Tracker is the engine's state machine: Idle (no open session) or
  Running (exactly one open time entry). Start opens an entry, Stop closes
  it and orchestrates the reward path - reward calculation, ledger append,
  cached XP/level update - and Elapsed serves the 1-second display poll
  without touching state.

STATE MACHINE:
  Idle --Start--> Running --Stop--> Idle
  - Start fails (and stays Idle) on validation or storage errors.
  - Stop is best-effort: every write failure is logged, never surfaced,
    and the machine ALWAYS lands in Idle. Losing one reward write is
    preferred over a timer stuck open.

CONCURRENCY:
  Start, Stop, and DeleteEntry are serialized by a mutex. Elapsed and
  Running take the same lock but only read; they are safe to call from a
  periodic refresh tick. There is no high-throughput requirement - this
  is a single-user engine.

SEE ALSO:
  - reconciler.go: restores cached stats from the ledger after deletions
  - reward: the earn computation invoked on Stop
  - progression: the level recomputation invoked on Stop
*/
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/grindstone/activity-engine/engine"
	"github.com/grindstone/activity-engine/progression"
	"github.com/grindstone/activity-engine/reward"
)

// =============================================================================
// TRACKER
// =============================================================================

// Tracker manages the single active session for the default user.
type Tracker struct {
	mu      sync.Mutex
	store   engine.LedgerStore
	rewards *reward.Calculator
	clock   Clock
	logger  *slog.Logger

	userID engine.UserID

	// Cached stats, a materialized view of the ledger. Updated
	// incrementally on Stop, fully by the reconciler.
	currentXP    engine.XP
	currentLevel int

	// Session state. running is true iff entryID points at an open entry.
	running   bool
	entryID   engine.EntryID
	startTime time.Time
}

type Option func(*Tracker)

// WithClock injects a fake clock. Tests only.
func WithClock(c Clock) Option { return func(t *Tracker) { t.clock = c } }

// WithRewards overrides the reward calculator (e.g. with a seeded RNG).
func WithRewards(c *reward.Calculator) Option { return func(t *Tracker) { t.rewards = c } }

// WithLogger sets the structured logger; nil means slog.Default().
func WithLogger(l *slog.Logger) Option { return func(t *Tracker) { t.logger = l } }

// New resolves the default user and loads its cached stats.
func New(ctx context.Context, store engine.LedgerStore, opts ...Option) (*Tracker, error) {
	t := &Tracker{
		store:   store,
		rewards: reward.NewCalculator(),
		clock:   SystemClock(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}

	user, err := store.GetOrCreateDefaultUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize default user: %w", err)
	}
	t.userID = user.ID
	t.currentXP = user.CurrentXP
	t.currentLevel = user.CurrentLevel

	t.logger.Info("tracker initialized",
		"user_id", string(user.ID),
		"xp", user.CurrentXP.String(),
		"level", user.CurrentLevel,
	)
	return t, nil
}

// UserID returns the default user the tracker operates on.
func (t *Tracker) UserID() engine.UserID { return t.userID }

// CurrentXP returns the cached XP total.
func (t *Tracker) CurrentXP() engine.XP {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentXP
}

// CurrentLevel returns the cached level.
func (t *Tracker) CurrentLevel() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentLevel
}

// Running reports whether a session is open.
func (t *Tracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// =============================================================================
// START / STOP / ELAPSED
// =============================================================================

// Start opens a session against the named activity. Preconditions: the
// tracker is Idle and at least one activity exists. On failure the state
// is unchanged.
func (t *Tracker) Start(ctx context.Context, activityName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return engine.ErrSessionRunning
	}
	if err := engine.ValidateActivityName(activityName); err != nil {
		return err
	}

	// Activities are a prerequisite, by policy rather than storage
	// constraint: a session must be attributable to something.
	activities, err := t.store.ListActivities(ctx, t.userID)
	if err != nil {
		return fmt.Errorf("list activities: %w", err)
	}
	if len(activities) == 0 {
		return engine.ErrNoActivities
	}

	start := t.clock.Now()
	entryID, err := t.store.OpenTimeEntry(ctx, t.userID, activityName)
	if err != nil {
		t.logger.Error("failed to open time entry", "activity", activityName, "error", err)
		return fmt.Errorf("open time entry: %w", err)
	}

	t.running = true
	t.entryID = entryID
	t.startTime = start

	t.logger.Debug("session started", "entry_id", string(entryID), "activity", activityName)
	return nil
}

// StopResult summarizes a completed session.
type StopResult struct {
	EntryID           engine.EntryID
	DurationSeconds   int64
	DurationFormatted string
	EarnedXP          engine.XP
	NewXP             engine.XP
	NewLevel          int
}

// Stop closes the open session, grants the reward for the selected tier,
// and returns to Idle. When Idle it is a no-op (ok is false).
//
// Stop never fails: each storage error along the way is logged and the
// remaining steps proceed, so the session can never get stuck open. The
// worst case is a stopped session whose reward write was lost; the
// reconciler will settle the cached stats against whatever the ledger
// actually holds.
func (t *Tracker) Stop(ctx context.Context, tier reward.Tier) (StopResult, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return StopResult{}, false
	}

	entryID := t.entryID
	duration := int64(t.clock.Now().Sub(t.startTime).Seconds())
	formatted := engine.FormatDuration(duration)

	// The machine is Idle from here on, whatever storage does.
	t.running = false
	t.entryID = ""
	t.startTime = time.Time{}

	if err := t.store.CloseTimeEntry(ctx, entryID, duration, formatted); err != nil {
		t.logger.Error("failed to close time entry", "entry_id", string(entryID), "error", err)
	}

	spec, ok := reward.RateFor(tier)
	if !ok {
		// Caller contract violation; grant nothing rather than guess.
		t.logger.Error("unknown reward tier on stop", "tier", string(tier))
		return StopResult{
			EntryID:           entryID,
			DurationSeconds:   duration,
			DurationFormatted: formatted,
			EarnedXP:          engine.XPFromInt(0),
			NewXP:             t.currentXP,
			NewLevel:          t.currentLevel,
		}, true
	}

	earned := t.rewards.Earn(duration, spec)
	t.grantReward(ctx, entryID, earned)

	t.logger.Info("session stopped",
		"entry_id", string(entryID),
		"duration", formatted,
		"tier", string(tier),
		"earned_xp", earned.String(),
		"level", t.currentLevel,
	)

	return StopResult{
		EntryID:           entryID,
		DurationSeconds:   duration,
		DurationFormatted: formatted,
		EarnedXP:          earned,
		NewXP:             t.currentXP,
		NewLevel:          t.currentLevel,
	}, true
}

// grantReward appends the ledger transaction and updates the cached
// XP/level incrementally. Best-effort; called with the mutex held.
func (t *Tracker) grantReward(ctx context.Context, entryID engine.EntryID, earned engine.XP) {
	if earned.IsZero() {
		return
	}

	if err := t.store.AppendXPTransaction(ctx, t.userID, earned, engine.SourceTimeSession, entryID); err != nil {
		t.logger.Error("failed to append xp transaction", "entry_id", string(entryID), "error", err)
		// Without the ledger row the cached totals must not move, or
		// they would exceed the ledger sum until the next reconcile.
		return
	}

	newXP := t.currentXP.Add(earned)
	if err := t.store.SetUserXP(ctx, t.userID, newXP); err != nil {
		t.logger.Error("failed to persist user xp", "error", err)
	}
	newLevel := progression.LevelForXP(newXP)
	if err := t.store.SetUserLevel(ctx, t.userID, newLevel); err != nil {
		t.logger.Error("failed to persist user level", "error", err)
	}

	t.currentXP = newXP
	t.currentLevel = newLevel
}

// Elapsed renders the time since the session started, "0:00:00" when
// Idle. Read-only; intended for a 1-second display poll.
func (t *Tracker) Elapsed() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return "0:00:00"
	}
	return engine.FormatDuration(int64(t.clock.Now().Sub(t.startTime).Seconds()))
}

// =============================================================================
// HISTORY AND ACTIVITIES
// =============================================================================

// DeleteEntry removes a time entry and its ledger transactions as one
// operation. The cached stats are stale afterwards; callers must run the
// reconciler (the API endpoint does both).
func (t *Tracker) DeleteEntry(ctx context.Context, entryID engine.EntryID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running && t.entryID == entryID {
		// The open entry belongs to the state machine until Stop.
		return engine.ErrSessionRunning
	}
	return t.store.DeleteTimeEntry(ctx, entryID, t.userID)
}

// RecentEntries returns up to limit history entries, most recent first.
func (t *Tracker) RecentEntries(ctx context.Context, limit int) ([]engine.TimeEntry, error) {
	return t.store.ListRecentTimeEntries(ctx, t.userID, limit)
}

// EntryCount returns the number of stored history entries.
func (t *Tracker) EntryCount(ctx context.Context) (int, error) {
	return t.store.CountTimeEntries(ctx, t.userID)
}

// CreateActivity validates the name and stores a new activity.
func (t *Tracker) CreateActivity(ctx context.Context, name string) (engine.Activity, error) {
	if err := engine.ValidateActivityName(name); err != nil {
		return engine.Activity{}, err
	}
	return t.store.CreateActivity(ctx, t.userID, name)
}

// Activities lists the user's activities, most recent first.
func (t *Tracker) Activities(ctx context.Context) ([]engine.Activity, error) {
	return t.store.ListActivities(ctx, t.userID)
}

// DeleteActivity removes an activity. Historical entries keep the name
// they were tracked under.
func (t *Tracker) DeleteActivity(ctx context.Context, id engine.ActivityID) error {
	return t.store.DeleteActivity(ctx, id, t.userID)
}

// setCachedStats is used by the reconciler to refresh the view.
func (t *Tracker) setCachedStats(xp engine.XP, level int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.currentXP = xp
	t.currentLevel = level
}
