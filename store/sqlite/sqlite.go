/*
Package sqlite provides a SQLite-backed implementation of engine.LedgerStore.

PURPOSE:
  Durable persistence for users, activities, time entries, and the XP
  transaction ledger. The schema mirrors the engine records one table
  each; IDs are uuid strings minted here.

KEY TABLES:
  users:            The single default user with cached xp/level
  activities:       Named tracking targets
  time_entries:     Sessions; end_time NULL while a session is open
  xp_transactions:  The ledger; sum per user is the authoritative XP total

CASCADE:
  DeleteTimeEntry removes the entry and its time_session transactions in
  one SQL transaction, so the ledger never references a deleted session.

DEFENSIVE COERCION:
  Stored XP is a decimal string. A malformed value scans to zero with a
  logged warning rather than an error; the reconciler will rewrite it on
  its next pass.

WAL MODE:
  The database is opened with WAL and foreign keys on, the usual tradeoff
  of read concurrency against a single writer.

USAGE:
  store, err := sqlite.New("./data/tracker.db")   // or ":memory:"
  defer store.Close()

SEE ALSO:
  - engine/store.go: the interface this implements
  - engine/store/memory.go: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/grindstone/activity-engine/engine"
)

// Store implements engine.LedgerStore using SQLite.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	logger *slog.Logger
}

type Option func(*Store)

// WithLogger sets the structured logger; nil means slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(store)
	}
	if store.logger == nil {
		store.logger = slog.Default()
	}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		current_xp TEXT NOT NULL DEFAULT '0',
		current_level INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_activities_user
		ON activities(user_id, created_at DESC);

	-- Time entries reference the activity NAME, not its id: history keeps
	-- the name the session was tracked under even if the activity is
	-- renamed or deleted later.
	CREATE TABLE IF NOT EXISTS time_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		activity_name TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT,
		duration_seconds INTEGER,
		duration_formatted TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_time_entries_user
		ON time_entries(user_id, start_time DESC);

	CREATE TABLE IF NOT EXISTS xp_transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		xp_amount TEXT NOT NULL,
		source_type TEXT NOT NULL,
		source_id TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_xp_transactions_user
		ON xp_transactions(user_id);
	CREATE INDEX IF NOT EXISTS idx_xp_transactions_source
		ON xp_transactions(source_type, source_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// USERS
// =============================================================================

// GetOrCreateDefaultUser returns the deployment's single user, creating
// it on first run.
func (s *Store) GetOrCreateDefaultUser(ctx context.Context) (engine.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, current_xp, current_level FROM users ORDER BY created_at ASC LIMIT 1")

	var (
		id    string
		xpStr string
		level int
	)
	err := row.Scan(&id, &xpStr, &level)
	switch {
	case err == sql.ErrNoRows:
		user := engine.User{
			ID:        engine.UserID(uuid.New().String()),
			CurrentXP: engine.XPFromInt(0),
		}
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO users (id, current_xp, current_level, created_at) VALUES (?, '0', 0, ?)",
			string(user.ID), nowRFC3339())
		if err != nil {
			return engine.User{}, fmt.Errorf("failed to create default user: %w", err)
		}
		return user, nil
	case err != nil:
		return engine.User{}, fmt.Errorf("failed to load default user: %w", err)
	}

	return engine.User{
		ID:           engine.UserID(id),
		CurrentXP:    s.coerceXP(xpStr, id),
		CurrentLevel: level,
	}, nil
}

func (s *Store) GetUserXP(ctx context.Context, userID engine.UserID) (engine.XP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var xpStr string
	err := s.db.QueryRowContext(ctx,
		"SELECT current_xp FROM users WHERE id = ?", string(userID)).Scan(&xpStr)
	if err == sql.ErrNoRows {
		return engine.XP{}, engine.ErrUserNotFound
	}
	if err != nil {
		return engine.XP{}, fmt.Errorf("failed to load user xp: %w", err)
	}
	return s.coerceXP(xpStr, string(userID)), nil
}

func (s *Store) SetUserXP(ctx context.Context, userID engine.UserID, value engine.XP) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET current_xp = ? WHERE id = ?", value.String(), string(userID))
	if err != nil {
		return fmt.Errorf("failed to set user xp: %w", err)
	}
	return checkAffected(res, engine.ErrUserNotFound)
}

func (s *Store) GetUserLevel(ctx context.Context, userID engine.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var level int
	err := s.db.QueryRowContext(ctx,
		"SELECT current_level FROM users WHERE id = ?", string(userID)).Scan(&level)
	if err == sql.ErrNoRows {
		return 0, engine.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load user level: %w", err)
	}
	return level, nil
}

func (s *Store) SetUserLevel(ctx context.Context, userID engine.UserID, level int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET current_level = ? WHERE id = ?", level, string(userID))
	if err != nil {
		return fmt.Errorf("failed to set user level: %w", err)
	}
	return checkAffected(res, engine.ErrUserNotFound)
}

// =============================================================================
// ACTIVITIES
// =============================================================================

func (s *Store) CreateActivity(ctx context.Context, userID engine.UserID, name string) (engine.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := engine.Activity{
		ID:        engine.ActivityID(uuid.New().String()),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO activities (id, user_id, name, created_at) VALUES (?, ?, ?, ?)",
		string(a.ID), string(a.UserID), a.Name, a.CreatedAt.Format(timeLayout))
	if err != nil {
		return engine.Activity{}, fmt.Errorf("failed to create activity: %w", err)
	}
	return a, nil
}

func (s *Store) ListActivities(ctx context.Context, userID engine.UserID) ([]engine.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, created_at
		FROM activities
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, string(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []engine.Activity
	for rows.Next() {
		var (
			a         engine.Activity
			createdAt string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (s *Store) DeleteActivity(ctx context.Context, activityID engine.ActivityID, userID engine.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM activities WHERE id = ? AND user_id = ?",
		string(activityID), string(userID))
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return checkAffected(res, engine.ErrActivityNotFound)
}

// =============================================================================
// TIME ENTRIES
// =============================================================================

func (s *Store) OpenTimeEntry(ctx context.Context, userID engine.UserID, activityName string) (engine.EntryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := engine.EntryID(uuid.New().String())
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO time_entries (id, user_id, activity_name, start_time) VALUES (?, ?, ?, ?)",
		string(id), string(userID), activityName, nowRFC3339())
	if err != nil {
		return "", fmt.Errorf("failed to open time entry: %w", err)
	}
	return id, nil
}

func (s *Store) CloseTimeEntry(ctx context.Context, entryID engine.EntryID, durationSeconds int64, durationFormatted string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE time_entries
		SET end_time = ?, duration_seconds = ?, duration_formatted = ?
		WHERE id = ?`,
		nowRFC3339(), durationSeconds, durationFormatted, string(entryID))
	if err != nil {
		return fmt.Errorf("failed to close time entry: %w", err)
	}
	return checkAffected(res, engine.ErrEntryNotFound)
}

// DeleteTimeEntry removes the entry and its dependent ledger transactions
// atomically.
func (s *Store) DeleteTimeEntry(ctx context.Context, entryID engine.EntryID, userID engine.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM time_entries WHERE id = ? AND user_id = ?",
		string(entryID), string(userID))
	if err != nil {
		return fmt.Errorf("failed to delete time entry: %w", err)
	}
	if err := checkAffected(res, engine.ErrEntryNotFound); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"DELETE FROM xp_transactions WHERE source_type = ? AND source_id = ? AND user_id = ?",
		string(engine.SourceTimeSession), string(entryID), string(userID))
	if err != nil {
		return fmt.Errorf("failed to delete dependent transactions: %w", err)
	}

	return tx.Commit()
}

func (s *Store) ListRecentTimeEntries(ctx context.Context, userID engine.UserID, limit int) ([]engine.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, activity_name, start_time, end_time, duration_seconds, duration_formatted
		FROM time_entries
		WHERE user_id = ?
		ORDER BY start_time DESC, id DESC
		LIMIT ?`, string(userID), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query time entries: %w", err)
	}
	defer rows.Close()

	var entries []engine.TimeEntry
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) CountTimeEntries(ctx context.Context, userID engine.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM time_entries WHERE user_id = ?", string(userID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count time entries: %w", err)
	}
	return count, nil
}

func scanTimeEntry(rows *sql.Rows) (engine.TimeEntry, error) {
	var (
		e                 engine.TimeEntry
		startTime         string
		endTime           sql.NullString
		durationSeconds   sql.NullInt64
		durationFormatted sql.NullString
	)

	err := rows.Scan(&e.ID, &e.UserID, &e.ActivityName,
		&startTime, &endTime, &durationSeconds, &durationFormatted)
	if err != nil {
		return e, fmt.Errorf("failed to scan time entry: %w", err)
	}

	e.StartTime, _ = time.Parse(time.RFC3339Nano, startTime)
	if endTime.Valid {
		t, _ := time.Parse(time.RFC3339Nano, endTime.String)
		e.EndTime = &t
	}
	if durationSeconds.Valid {
		d := durationSeconds.Int64
		e.DurationSeconds = &d
	}
	if durationFormatted.Valid {
		f := durationFormatted.String
		e.DurationFormatted = &f
	}
	return e, nil
}

// =============================================================================
// XP TRANSACTION LEDGER
// =============================================================================

func (s *Store) AppendXPTransaction(ctx context.Context, userID engine.UserID, amount engine.XP, sourceType engine.SourceType, sourceID engine.EntryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO xp_transactions (id, user_id, xp_amount, source_type, source_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), string(userID), amount.String(),
		string(sourceType), string(sourceID), nowRFC3339())
	if err != nil {
		return fmt.Errorf("failed to append xp transaction: %w", err)
	}
	return nil
}

func (s *Store) SumXPTransactions(ctx context.Context, userID engine.UserID) (engine.XP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Summed in the application so decimal precision is preserved; SQLite
	// would coerce the TEXT amounts to float.
	rows, err := s.db.QueryContext(ctx,
		"SELECT xp_amount FROM xp_transactions WHERE user_id = ?", string(userID))
	if err != nil {
		return engine.XP{}, fmt.Errorf("failed to query xp transactions: %w", err)
	}
	defer rows.Close()

	total := engine.XPFromInt(0)
	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return engine.XP{}, fmt.Errorf("failed to scan xp amount: %w", err)
		}
		total = total.Add(s.coerceXP(amountStr, string(userID)))
	}
	return total, rows.Err()
}

func (s *Store) ListXPTransactions(ctx context.Context, userID engine.UserID) ([]engine.XPTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, xp_amount, source_type, source_id, created_at
		FROM xp_transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, string(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to query xp transactions: %w", err)
	}
	defer rows.Close()

	var transactions []engine.XPTransaction
	for rows.Next() {
		var (
			tx        engine.XPTransaction
			amountStr string
			createdAt string
		)
		err := rows.Scan(&tx.ID, &tx.UserID, &amountStr, &tx.SourceType, &tx.SourceID, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan xp transaction: %w", err)
		}
		tx.Amount = s.coerceXP(amountStr, string(userID))
		tx.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

// coerceXP parses a stored decimal, falling back to zero with a warning
// on malformed data. Bad rows never surface as errors to the UI.
func (s *Store) coerceXP(raw, userID string) engine.XP {
	xp, ok := engine.ParseXP(raw)
	if !ok {
		s.logger.Warn("malformed xp value in storage, coercing to zero",
			"user_id", userID, "raw", raw)
		return engine.XPFromInt(0)
	}
	return xp
}

func checkAffected(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}

// timeLayout is RFC3339 with a fixed-width fraction. RFC3339Nano trims
// trailing zeros, which breaks lexicographic ORDER BY on the TEXT column.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func nowRFC3339() string {
	return time.Now().UTC().Format(timeLayout)
}

// Compile-time check
var _ engine.LedgerStore = (*Store)(nil)
