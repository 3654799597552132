/*
Package engine provides the core types and contracts for the activity
time-tracking and reward engine.

PURPOSE:
  This package contains the domain records and the storage collaborator
  contract shared by every other package. The engine tracks timed activity
  sessions, converts elapsed time into experience points (XP), and keeps a
  per-user ledger of XP transactions.

KEY CONCEPTS IN THIS FILE (types.go):
  - XP: A quantity of experience points (decimal, may be fractional)
  - User: The single default user with cached XP/level
  - Activity: A named thing the user tracks time against
  - TimeEntry: One tracked session; "open" while the timer runs
  - XPTransaction: An immutable ledger entry recording earned XP

DESIGN PRINCIPLES:
  1. Ledger as truth: the sum of XPTransactions is the authoritative total;
     User.CurrentXP / CurrentLevel are a materialized view of it.
  2. Precision: XP uses decimal.Decimal to avoid floating-point drift.
  3. Type Safety: Strong typing for IDs prevents mixing users and entries.
  4. Loose coupling: TimeEntry records the activity NAME at tracking time,
     not an Activity ID. Renaming or deleting an activity never rewrites
     history.

SEE ALSO:
  - store.go: LedgerStore collaborator contract
  - errors.go: Sentinel errors and classification helpers
  - format.go: Duration rendering shared by the whole engine
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// XP - Experience point quantity
// =============================================================================

// XP is a quantity of experience points. Amounts may be fractional; the
// decimal representation is used everywhere, including persisted rows.
type XP struct {
	Value decimal.Decimal
}

func XPFromInt(n int64) XP { return XP{Value: decimal.NewFromInt(n)} }

func XPFromFloat(f float64) XP { return XP{Value: decimal.NewFromFloat(f)} }

// ParseXP parses a stored decimal string. Invalid input yields zero XP;
// callers that care about the distinction should log it (see store/sqlite).
func ParseXP(s string) (XP, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return XP{}, false
	}
	return XP{Value: d}, true
}

func (x XP) Add(y XP) XP { return XP{Value: x.Value.Add(y.Value)} }

func (x XP) Sub(y XP) XP { return XP{Value: x.Value.Sub(y.Value)} }

func (x XP) Neg() XP { return XP{Value: x.Value.Neg()} }

func (x XP) IsZero() bool { return x.Value.IsZero() }

func (x XP) IsNegative() bool { return x.Value.IsNegative() }

func (x XP) Equal(y XP) bool { return x.Value.Equal(y.Value) }

func (x XP) Float64() float64 { return x.Value.InexactFloat64() }

func (x XP) String() string { return x.Value.String() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type ActivityID string
type EntryID string
type TransactionID string

// =============================================================================
// RECORDS
// =============================================================================

// User is the single default user of a deployment. CurrentXP and CurrentLevel
// are denormalized copies of ledger state; the Stats Reconciler restores them
// from the transaction ledger whenever they drift.
type User struct {
	ID           UserID
	CurrentXP    XP
	CurrentLevel int
}

// Activity is a named target for time tracking.
type Activity struct {
	ID        ActivityID
	UserID    UserID
	Name      string
	CreatedAt time.Time
}

// TimeEntry is one tracked session. An entry with a start time and no end
// time is "open": the session is still running. At most one open entry
// exists per user, enforced by the session tracker, not by storage.
type TimeEntry struct {
	ID                EntryID
	UserID            UserID
	ActivityName      string
	StartTime         time.Time
	EndTime           *time.Time
	DurationSeconds   *int64
	DurationFormatted *string
}

// Open reports whether the entry's session is still running.
func (e TimeEntry) Open() bool { return e.EndTime == nil }

// SourceType identifies what produced an XP transaction.
type SourceType string

const (
	// SourceTimeSession marks XP earned from a completed tracking session.
	// SourceID is the TimeEntry the reward was granted for.
	SourceTimeSession SourceType = "time_session"
)

// XPTransaction is an append-only ledger entry. Transactions are never
// updated; the only deletion is the cascade when the source TimeEntry is
// removed, after which the reconciler restores the cached totals.
type XPTransaction struct {
	ID         TransactionID
	UserID     UserID
	Amount     XP
	SourceType SourceType
	SourceID   EntryID
	CreatedAt  time.Time
}

// =============================================================================
// VALIDATION
// =============================================================================

// MaxActivityNameLen bounds activity names, matching the input limit of the
// presentation layer.
const MaxActivityNameLen = 50

// ValidateActivityName rejects empty and over-long names. This runs at the
// engine boundary; storage never sees an invalid name.
func ValidateActivityName(name string) error {
	if name == "" {
		return ErrEmptyActivityName
	}
	if len(name) > MaxActivityNameLen {
		return ErrActivityNameTooLong
	}
	return nil
}
