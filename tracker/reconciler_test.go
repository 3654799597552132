package tracker_test

import (
	"context"
	"testing"
	"time"

	"github.com/grindstone/activity-engine/engine"
	"github.com/grindstone/activity-engine/engine/store"
	"github.com/grindstone/activity-engine/reward"
	"github.com/grindstone/activity-engine/tracker"
)

func TestReevaluate_Idempotent(t *testing.T) {
	// GIVEN: A ledger with a few transactions
	// WHEN: Reevaluating twice in a row
	// THEN: Both runs derive identical stats and the store matches them

	ctx := context.Background()
	mem := store.NewMemory()
	user, err := mem.GetOrCreateDefaultUser(ctx)
	if err != nil {
		t.Fatalf("default user: %v", err)
	}

	mem.AppendXPTransaction(ctx, user.ID, engine.XPFromInt(10), engine.SourceTimeSession, "e-1")
	mem.AppendXPTransaction(ctx, user.ID, engine.XPFromInt(5), engine.SourceTimeSession, "e-2")

	rec := tracker.NewReconciler(mem)

	first, err := rec.Reevaluate(ctx, user.ID)
	if err != nil {
		t.Fatalf("first Reevaluate failed: %v", err)
	}
	second, err := rec.Reevaluate(ctx, user.ID)
	if err != nil {
		t.Fatalf("second Reevaluate failed: %v", err)
	}

	if !first.XP.Equal(second.XP) || first.Level != second.Level {
		t.Errorf("runs differ: %s/%d vs %s/%d", first.XP, first.Level, second.XP, second.Level)
	}
	if !first.XP.Equal(engine.XPFromInt(15)) || first.Level != 1 {
		t.Errorf("stats = %s XP level %d, want 15 XP level 1", first.XP, first.Level)
	}

	storedXP, _ := mem.GetUserXP(ctx, user.ID)
	storedLevel, _ := mem.GetUserLevel(ctx, user.ID)
	if !storedXP.Equal(first.XP) || storedLevel != first.Level {
		t.Errorf("store holds %s/%d, want %s/%d", storedXP, storedLevel, first.XP, first.Level)
	}
}

func TestReevaluate_EmptyLedger(t *testing.T) {
	// GIVEN: A user with no transactions
	// WHEN: Reevaluating
	// THEN: Stats settle at zero XP, level 0

	ctx := context.Background()
	mem := store.NewMemory()
	user, _ := mem.GetOrCreateDefaultUser(ctx)

	stats, err := tracker.NewReconciler(mem).Reevaluate(ctx, user.ID)
	if err != nil {
		t.Fatalf("Reevaluate failed: %v", err)
	}
	if !stats.XP.IsZero() || stats.Level != 0 {
		t.Errorf("stats = %s/%d, want 0/0", stats.XP, stats.Level)
	}
}

func TestReevaluate_AfterEntryDeletion(t *testing.T) {
	// GIVEN: Two rewarded sessions, then one entry deleted (cascading its
	//        transaction)
	// WHEN: Reevaluating
	// THEN: The stats drop by exactly the deleted session's reward, and the
	//       tracker's cache follows

	ctx := context.Background()
	clock := newFakeClock()
	mem := store.NewMemory()
	trk := newTestTracker(t, mem, clock)
	mustCreateActivity(t, trk, "Reading")

	rec := tracker.NewReconciler(mem, tracker.ForTracker(trk))

	// Session 1: 3 minutes on zombie -> 15 XP.
	if err := trk.Start(ctx, "Reading"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	clock.Advance(180 * time.Second)
	first, _ := trk.Stop(ctx, reward.TierZombie)

	// Session 2: 2 minutes on blaze -> 20 XP.
	if err := trk.Start(ctx, "Reading"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	clock.Advance(120 * time.Second)
	second, _ := trk.Stop(ctx, reward.TierBlaze)

	if !trk.CurrentXP().Equal(engine.XPFromInt(35)) {
		t.Fatalf("cached XP = %s, want 35 before deletion", trk.CurrentXP())
	}

	if err := trk.DeleteEntry(ctx, second.EntryID); err != nil {
		t.Fatalf("DeleteEntry failed: %v", err)
	}
	stats, err := rec.Reevaluate(ctx, trk.UserID())
	if err != nil {
		t.Fatalf("Reevaluate failed: %v", err)
	}

	if !stats.XP.Equal(first.EarnedXP) {
		t.Errorf("reconciled XP = %s, want %s (only session 1 remains)", stats.XP, first.EarnedXP)
	}
	if !trk.CurrentXP().Equal(first.EarnedXP) {
		t.Errorf("tracker cache = %s, want %s after reconcile", trk.CurrentXP(), first.EarnedXP)
	}
	if trk.CurrentLevel() != stats.Level {
		t.Errorf("tracker level = %d, reconciler says %d", trk.CurrentLevel(), stats.Level)
	}
}
