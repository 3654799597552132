// Package store provides LedgerStore implementations.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/grindstone/activity-engine/engine"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements engine.LedgerStore entirely in memory. Records are kept
// in insertion order; listings reverse on read to match the
// most-recent-first convention of the sqlite store.
type Memory struct {
	mu           sync.RWMutex
	now          func() time.Time
	users        map[engine.UserID]*engine.User
	defaultUser  engine.UserID
	activities   []engine.Activity
	entries      []engine.TimeEntry
	transactions []engine.XPTransaction
}

func NewMemory() *Memory {
	return &Memory{
		now:   func() time.Time { return time.Now().UTC() },
		users: make(map[engine.UserID]*engine.User),
	}
}

// SetNow overrides the record-timestamp clock. Tests only.
func (m *Memory) SetNow(now func() time.Time) { m.now = now }

func (m *Memory) GetOrCreateDefaultUser(_ context.Context) (engine.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.defaultUser != "" {
		return *m.users[m.defaultUser], nil
	}
	u := engine.User{ID: engine.UserID(uuid.New().String()), CurrentXP: engine.XPFromInt(0)}
	m.users[u.ID] = &u
	m.defaultUser = u.ID
	return u, nil
}

// --- Activities ---

func (m *Memory) CreateActivity(_ context.Context, userID engine.UserID, name string) (engine.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a := engine.Activity{
		ID:        engine.ActivityID(uuid.New().String()),
		UserID:    userID,
		Name:      name,
		CreatedAt: m.now(),
	}
	m.activities = append(m.activities, a)
	return a, nil
}

func (m *Memory) ListActivities(_ context.Context, userID engine.UserID) ([]engine.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []engine.Activity
	for i := len(m.activities) - 1; i >= 0; i-- {
		if m.activities[i].UserID == userID {
			result = append(result, m.activities[i])
		}
	}
	return result, nil
}

func (m *Memory) DeleteActivity(_ context.Context, activityID engine.ActivityID, userID engine.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, a := range m.activities {
		if a.ID == activityID && a.UserID == userID {
			m.activities = append(m.activities[:i], m.activities[i+1:]...)
			return nil
		}
	}
	return engine.ErrActivityNotFound
}

// --- Time entries ---

func (m *Memory) OpenTimeEntry(_ context.Context, userID engine.UserID, activityName string) (engine.EntryID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := engine.TimeEntry{
		ID:           engine.EntryID(uuid.New().String()),
		UserID:       userID,
		ActivityName: activityName,
		StartTime:    m.now(),
	}
	m.entries = append(m.entries, e)
	return e.ID, nil
}

func (m *Memory) CloseTimeEntry(_ context.Context, entryID engine.EntryID, durationSeconds int64, durationFormatted string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.entries {
		if m.entries[i].ID == entryID {
			end := m.now()
			m.entries[i].EndTime = &end
			m.entries[i].DurationSeconds = &durationSeconds
			m.entries[i].DurationFormatted = &durationFormatted
			return nil
		}
	}
	return engine.ErrEntryNotFound
}

func (m *Memory) DeleteTimeEntry(_ context.Context, entryID engine.EntryID, userID engine.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	for i, e := range m.entries {
		if e.ID == entryID && e.UserID == userID {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return engine.ErrEntryNotFound
	}

	// Cascade: drop the entry's ledger transactions in the same operation.
	kept := m.transactions[:0]
	for _, tx := range m.transactions {
		if tx.SourceType == engine.SourceTimeSession && tx.SourceID == entryID {
			continue
		}
		kept = append(kept, tx)
	}
	m.transactions = kept
	return nil
}

func (m *Memory) ListRecentTimeEntries(_ context.Context, userID engine.UserID, limit int) ([]engine.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []engine.TimeEntry
	for i := len(m.entries) - 1; i >= 0 && len(result) < limit; i-- {
		if m.entries[i].UserID == userID {
			result = append(result, m.entries[i])
		}
	}
	return result, nil
}

func (m *Memory) CountTimeEntries(_ context.Context, userID engine.UserID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, e := range m.entries {
		if e.UserID == userID {
			count++
		}
	}
	return count, nil
}

// --- Cached user stats ---

func (m *Memory) GetUserXP(_ context.Context, userID engine.UserID) (engine.XP, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return engine.XP{}, engine.ErrUserNotFound
	}
	return u.CurrentXP, nil
}

func (m *Memory) SetUserXP(_ context.Context, userID engine.UserID, value engine.XP) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return engine.ErrUserNotFound
	}
	u.CurrentXP = value
	return nil
}

func (m *Memory) GetUserLevel(_ context.Context, userID engine.UserID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return 0, engine.ErrUserNotFound
	}
	return u.CurrentLevel, nil
}

func (m *Memory) SetUserLevel(_ context.Context, userID engine.UserID, level int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return engine.ErrUserNotFound
	}
	u.CurrentLevel = level
	return nil
}

// --- XP transaction ledger ---

func (m *Memory) AppendXPTransaction(_ context.Context, userID engine.UserID, amount engine.XP, sourceType engine.SourceType, sourceID engine.EntryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.transactions = append(m.transactions, engine.XPTransaction{
		ID:         engine.TransactionID(uuid.New().String()),
		UserID:     userID,
		Amount:     amount,
		SourceType: sourceType,
		SourceID:   sourceID,
		CreatedAt:  m.now(),
	})
	return nil
}

func (m *Memory) SumXPTransactions(_ context.Context, userID engine.UserID) (engine.XP, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := engine.XPFromInt(0)
	for _, tx := range m.transactions {
		if tx.UserID == userID {
			total = total.Add(tx.Amount)
		}
	}
	return total, nil
}

func (m *Memory) ListXPTransactions(_ context.Context, userID engine.UserID) ([]engine.XPTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []engine.XPTransaction
	for i := len(m.transactions) - 1; i >= 0; i-- {
		if m.transactions[i].UserID == userID {
			result = append(result, m.transactions[i])
		}
	}
	return result, nil
}

// Compile-time check
var _ engine.LedgerStore = (*Memory)(nil)
