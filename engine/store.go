/*
store.go - Persistence contract for the ledger store collaborator

PURPOSE:
  Defines the interface between the engine and the database. The engine
  treats persistence as a synchronous collaborator with atomic
  single-statement operations; layout on disk is the store's business.

LEDGER SEMANTICS:
  xp_transactions is append-only from the engine's point of view. The one
  exception is DeleteTimeEntry, which cascades to the entry's transactions
  so the ledger never references a deleted session. After that cascade the
  cached user stats are stale until the reconciler runs.

IMPLEMENTATIONS:
  - store/sqlite: durable SQLite store
  - engine/store: in-memory store for tests

SEE ALSO:
  - tracker: the primary consumer of this interface
  - types.go: the records exchanged across it
*/
package engine

import "context"

// LedgerStore is the storage collaborator for users, activities, time
// entries, and the XP transaction ledger.
type LedgerStore interface {
	// GetOrCreateDefaultUser returns the deployment's single user,
	// creating it lazily on first run.
	GetOrCreateDefaultUser(ctx context.Context) (User, error)

	// --- Activities ---

	CreateActivity(ctx context.Context, userID UserID, name string) (Activity, error)

	// ListActivities returns the user's activities, most recent first.
	ListActivities(ctx context.Context, userID UserID) ([]Activity, error)

	DeleteActivity(ctx context.Context, activityID ActivityID, userID UserID) error

	// --- Time entries ---

	// OpenTimeEntry creates an entry with only the start time populated.
	OpenTimeEntry(ctx context.Context, userID UserID, activityName string) (EntryID, error)

	// CloseTimeEntry fills duration and end time, closing the entry.
	CloseTimeEntry(ctx context.Context, entryID EntryID, durationSeconds int64, durationFormatted string) error

	// DeleteTimeEntry removes an entry AND its dependent time_session
	// transactions as one operation.
	DeleteTimeEntry(ctx context.Context, entryID EntryID, userID UserID) error

	// ListRecentTimeEntries returns up to limit entries, most recent first.
	ListRecentTimeEntries(ctx context.Context, userID UserID, limit int) ([]TimeEntry, error)

	CountTimeEntries(ctx context.Context, userID UserID) (int, error)

	// --- Cached user stats (materialized view of the ledger) ---

	GetUserXP(ctx context.Context, userID UserID) (XP, error)
	SetUserXP(ctx context.Context, userID UserID, value XP) error
	GetUserLevel(ctx context.Context, userID UserID) (int, error)
	SetUserLevel(ctx context.Context, userID UserID, level int) error

	// --- XP transaction ledger ---

	AppendXPTransaction(ctx context.Context, userID UserID, amount XP, sourceType SourceType, sourceID EntryID) error

	// SumXPTransactions returns the authoritative XP total: the sum of all
	// transaction amounts for the user, zero if none exist.
	SumXPTransactions(ctx context.Context, userID UserID) (XP, error)

	// ListXPTransactions returns the user's ledger, most recent first.
	ListXPTransactions(ctx context.Context, userID UserID) ([]XPTransaction, error)
}
