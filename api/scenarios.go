/*
scenarios.go - Demo data seeding

PURPOSE:
  Seeds a recognizable demo state for development and UI work: a few
  activities, a handful of completed sessions with their ledger
  transactions, and reconciled user stats.

IDEMPOTENCE NOTE:
  Loading the scenario repeatedly appends more history; it does not reset
  the database. Point the server at a fresh (or :memory:) database for a
  clean slate.

SEE ALSO:
  - handlers.go: LoadDemoScenario is routed in server.go
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/grindstone/activity-engine/engine"
	"github.com/grindstone/activity-engine/reward"
)

// demoSession is one pre-baked completed session.
type demoSession struct {
	activity string
	seconds  int64
	tier     reward.Tier
}

var demoActivities = []string{"Reading", "Woodworking", "Practice guitar"}

var demoSessions = []demoSession{
	{activity: "Reading", seconds: 1500, tier: reward.TierZombie},
	{activity: "Woodworking", seconds: 3720, tier: reward.TierBlaze},
	{activity: "Practice guitar", seconds: 900, tier: reward.TierChicken},
	{activity: "Reading", seconds: 45, tier: reward.TierZombie}, // below reward threshold
}

// LoadDemoScenario seeds demo activities and history, then reconciles.
func (h *Handler) LoadDemoScenario(w http.ResponseWriter, r *http.Request) {
	if err := h.seedDemo(r.Context()); err != nil {
		h.respondError(w, err)
		return
	}

	stats, err := h.Reconciler.Reevaluate(r.Context(), h.Tracker.UserID())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, userStatsDTO(h.Tracker.UserID(), stats.XP, stats.Level))
}

func (h *Handler) seedDemo(ctx context.Context) error {
	userID := h.Tracker.UserID()

	for _, name := range demoActivities {
		if _, err := h.Store.CreateActivity(ctx, userID, name); err != nil {
			return fmt.Errorf("seed activity %q: %w", name, err)
		}
	}

	calc := reward.NewCalculator()
	for _, s := range demoSessions {
		entryID, err := h.Store.OpenTimeEntry(ctx, userID, s.activity)
		if err != nil {
			return fmt.Errorf("seed entry for %q: %w", s.activity, err)
		}
		if err := h.Store.CloseTimeEntry(ctx, entryID, s.seconds, engine.FormatDuration(s.seconds)); err != nil {
			return fmt.Errorf("close seeded entry: %w", err)
		}

		spec, _ := reward.RateFor(s.tier)
		earned := calc.Earn(s.seconds, spec)
		if earned.IsZero() {
			continue
		}
		if err := h.Store.AppendXPTransaction(ctx, userID, earned, engine.SourceTimeSession, entryID); err != nil {
			return fmt.Errorf("seed xp transaction: %w", err)
		}
	}
	return nil
}
