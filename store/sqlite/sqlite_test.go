package sqlite_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grindstone/activity-engine/engine"
	"github.com/grindstone/activity-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() { store.Close() })
	return store
}

func defaultUser(t *testing.T, store *sqlite.Store) engine.UserID {
	t.Helper()
	user, err := store.GetOrCreateDefaultUser(context.Background())
	require.NoError(t, err)
	return user.ID
}

// =============================================================================
// USERS
// =============================================================================

func TestGetOrCreateDefaultUser_Idempotent(t *testing.T) {
	// GIVEN: A fresh database
	// WHEN: Resolving the default user twice
	// THEN: The second call returns the same user, not a new one

	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.GetOrCreateDefaultUser(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.True(t, first.CurrentXP.IsZero())
	assert.Equal(t, 0, first.CurrentLevel)

	second, err := store.GetOrCreateDefaultUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestUserStats_RoundTrip(t *testing.T) {
	// GIVEN: The default user
	// WHEN: Persisting XP and level
	// THEN: Reads return what was written, exactly

	store := newTestStore(t)
	ctx := context.Background()
	userID := defaultUser(t, store)

	require.NoError(t, store.SetUserXP(ctx, userID, engine.XPFromFloat(123.5)))
	require.NoError(t, store.SetUserLevel(ctx, userID, 7))

	xp, err := store.GetUserXP(ctx, userID)
	require.NoError(t, err)
	assert.True(t, xp.Equal(engine.XPFromFloat(123.5)), "got %s", xp)

	level, err := store.GetUserLevel(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 7, level)
}

func TestUserStats_UnknownUser(t *testing.T) {
	// GIVEN: A user id that does not exist
	// WHEN: Reading or writing stats
	// THEN: ErrUserNotFound

	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetUserXP(ctx, "nope")
	assert.ErrorIs(t, err, engine.ErrUserNotFound)

	err = store.SetUserXP(ctx, "nope", engine.XPFromInt(1))
	assert.ErrorIs(t, err, engine.ErrUserNotFound)

	_, err = store.GetUserLevel(ctx, "nope")
	assert.ErrorIs(t, err, engine.ErrUserNotFound)

	err = store.SetUserLevel(ctx, "nope", 1)
	assert.ErrorIs(t, err, engine.ErrUserNotFound)
}

// =============================================================================
// ACTIVITIES
// =============================================================================

func TestActivities_CRUD(t *testing.T) {
	// GIVEN: Three activities created in order
	// WHEN: Listing and deleting
	// THEN: Listing is most recent first; deletion removes exactly one

	store := newTestStore(t)
	ctx := context.Background()
	userID := defaultUser(t, store)

	a1, err := store.CreateActivity(ctx, userID, "Reading")
	require.NoError(t, err)
	a2, err := store.CreateActivity(ctx, userID, "Guitar")
	require.NoError(t, err)
	a3, err := store.CreateActivity(ctx, userID, "Woodworking")
	require.NoError(t, err)

	list, err := store.ListActivities(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, a3.ID, list[0].ID, "most recent first")
	assert.Equal(t, a1.ID, list[2].ID)

	require.NoError(t, store.DeleteActivity(ctx, a2.ID, userID))

	list, err = store.ListActivities(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, a := range list {
		assert.NotEqual(t, a2.ID, a.ID)
	}

	err = store.DeleteActivity(ctx, a2.ID, userID)
	assert.ErrorIs(t, err, engine.ErrActivityNotFound)
}

// =============================================================================
// TIME ENTRIES
// =============================================================================

func TestTimeEntry_OpenClose(t *testing.T) {
	// GIVEN: An open entry
	// WHEN: Closing it with a duration
	// THEN: The stored entry carries end time and both duration forms

	store := newTestStore(t)
	ctx := context.Background()
	userID := defaultUser(t, store)

	entryID, err := store.OpenTimeEntry(ctx, userID, "Reading")
	require.NoError(t, err)

	entries, err := store.ListRecentTimeEntries(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Open())
	assert.Equal(t, "Reading", entries[0].ActivityName)

	require.NoError(t, store.CloseTimeEntry(ctx, entryID, 125, "0:02:05"))

	entries, err = store.ListRecentTimeEntries(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Open())
	require.NotNil(t, entries[0].DurationSeconds)
	assert.Equal(t, int64(125), *entries[0].DurationSeconds)
	require.NotNil(t, entries[0].DurationFormatted)
	assert.Equal(t, "0:02:05", *entries[0].DurationFormatted)

	err = store.CloseTimeEntry(ctx, "nope", 1, "0:00:01")
	assert.ErrorIs(t, err, engine.ErrEntryNotFound)
}

func TestTimeEntry_ListLimitAndCount(t *testing.T) {
	// GIVEN: Five closed entries
	// WHEN: Listing with limit 3
	// THEN: Only the three most recent come back; Count sees all five

	store := newTestStore(t)
	ctx := context.Background()
	userID := defaultUser(t, store)

	var last engine.EntryID
	for i := 0; i < 5; i++ {
		id, err := store.OpenTimeEntry(ctx, userID, "Reading")
		require.NoError(t, err)
		require.NoError(t, store.CloseTimeEntry(ctx, id, 60, "0:01:00"))
		last = id
	}

	entries, err := store.ListRecentTimeEntries(ctx, userID, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, last, entries[0].ID, "most recent first")

	count, err := store.CountTimeEntries(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestDeleteTimeEntry_CascadesTransactions(t *testing.T) {
	// GIVEN: Two closed entries, each with a ledger transaction
	// WHEN: Deleting one entry
	// THEN: Its transaction goes with it; the other survives

	store := newTestStore(t)
	ctx := context.Background()
	userID := defaultUser(t, store)

	e1, err := store.OpenTimeEntry(ctx, userID, "Reading")
	require.NoError(t, err)
	require.NoError(t, store.CloseTimeEntry(ctx, e1, 180, "0:03:00"))
	require.NoError(t, store.AppendXPTransaction(ctx, userID, engine.XPFromInt(15), engine.SourceTimeSession, e1))

	e2, err := store.OpenTimeEntry(ctx, userID, "Guitar")
	require.NoError(t, err)
	require.NoError(t, store.CloseTimeEntry(ctx, e2, 120, "0:02:00"))
	require.NoError(t, store.AppendXPTransaction(ctx, userID, engine.XPFromInt(20), engine.SourceTimeSession, e2))

	require.NoError(t, store.DeleteTimeEntry(ctx, e1, userID))

	txs, err := store.ListXPTransactions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, e2, txs[0].SourceID)

	sum, err := store.SumXPTransactions(ctx, userID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(engine.XPFromInt(20)), "got %s", sum)

	err = store.DeleteTimeEntry(ctx, e1, userID)
	assert.ErrorIs(t, err, engine.ErrEntryNotFound)
}

// =============================================================================
// LEDGER
// =============================================================================

func TestSumXPTransactions(t *testing.T) {
	// GIVEN: An empty ledger, then fractional amounts
	// WHEN: Summing
	// THEN: Empty sums to zero; decimal addition is exact

	store := newTestStore(t)
	ctx := context.Background()
	userID := defaultUser(t, store)

	sum, err := store.SumXPTransactions(ctx, userID)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())

	require.NoError(t, store.AppendXPTransaction(ctx, userID, engine.XPFromFloat(0.1), engine.SourceTimeSession, "e-1"))
	require.NoError(t, store.AppendXPTransaction(ctx, userID, engine.XPFromFloat(0.2), engine.SourceTimeSession, "e-2"))

	sum, err = store.SumXPTransactions(ctx, userID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(engine.XPFromFloat(0.3)), "got %s", sum)
}

func TestListXPTransactions_MostRecentFirst(t *testing.T) {
	// GIVEN: Three appended transactions
	// WHEN: Listing
	// THEN: Newest first, amounts and sources intact

	store := newTestStore(t)
	ctx := context.Background()
	userID := defaultUser(t, store)

	for i, amount := range []int64{5, 10, 15} {
		entryID := engine.EntryID(fmt.Sprintf("e-%d", i))
		require.NoError(t, store.AppendXPTransaction(ctx, userID, engine.XPFromInt(amount), engine.SourceTimeSession, entryID))
	}

	txs, err := store.ListXPTransactions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.True(t, txs[0].Amount.Equal(engine.XPFromInt(15)), "newest first, got %s", txs[0].Amount)
	assert.True(t, txs[2].Amount.Equal(engine.XPFromInt(5)))
	assert.Equal(t, engine.SourceTimeSession, txs[0].SourceType)
}
