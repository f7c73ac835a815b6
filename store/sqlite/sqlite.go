/*
Package sqlite provides a SQLite-backed implementation of core.TxStore.

PURPOSE:
  Production persistence for the two collections (users, leaves). The
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  users:  Directory records, email uniquely indexed
  leaves: Leave requests, indexed by owner

DECIMAL STORAGE:
  Day balances and day counts are stored as TEXT decimals and parsed on
  read. A row whose balance cannot be parsed surfaces ErrInternal - the
  "unreadable balance" invariant violation.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

CONCURRENCY:
  Uses sync.Mutex around write paths. WithTx holds the mutex for the
  whole callback so a leave write and its balance adjustment are a
  single critical section backed by one SQL transaction.

USAGE:
  store, err := sqlite.New("./data/leaves.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - core/store.go: Interface definitions
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/leave-tracker/core"
)

// Store implements core.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
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

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		email          TEXT NOT NULL,
		is_active      BOOLEAN NOT NULL DEFAULT FALSE,
		is_admin       BOOLEAN NOT NULL DEFAULT FALSE,
		available_days TEXT NOT NULL,
		created_at     TEXT NOT NULL,
		updated_at     TEXT
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email);

	CREATE TABLE IF NOT EXISTS leaves (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL REFERENCES users(id),
		start_date TEXT NOT NULL,
		end_date   TEXT NOT NULL,
		days       TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'PENDING',
		created_at TEXT NOT NULL,
		updated_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_leaves_user ON leaves(user_id);
	CREATE INDEX IF NOT EXISTS idx_leaves_user_range ON leaves(user_id, start_date, end_date);
	CREATE INDEX IF NOT EXISTS idx_leaves_status ON leaves(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

var _ core.TxStore = (*Store)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// USER STORE (core.UserStore interface)
// =============================================================================

func (s *Store) SaveUser(ctx context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveUser(ctx, s.db, u)
}

func (s *Store) GetUser(ctx context.Context, id core.UserID) (*core.User, error) {
	return getUser(ctx, s.db, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return getUserByEmail(ctx, s.db, email)
}

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	return listUsers(ctx, s.db)
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	return countUsers(ctx, s.db)
}

func saveUser(ctx context.Context, q querier, u core.User) error {
	query := `
		INSERT INTO users (id, name, email, is_active, is_admin, available_days, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			is_active = excluded.is_active,
			is_admin = excluded.is_admin,
			available_days = excluded.available_days,
			updated_at = excluded.updated_at
	`
	_, err := q.ExecContext(ctx, query,
		u.ID,
		u.Name,
		u.Email,
		u.IsActive,
		u.IsAdmin,
		u.AvailableDays.String(),
		u.CreatedAt.UTC().Format(time.RFC3339Nano),
		nullTime(u.UpdatedAt),
	)
	if isUniqueConstraintError(err) {
		return core.NewConflict("user", "email already registered")
	}
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

const userColumns = "id, name, email, is_active, is_admin, available_days, created_at, updated_at"

func getUser(ctx context.Context, q querier, id core.UserID) (*core.User, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
	u, err := scanUserRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func getUserByEmail(ctx context.Context, q querier, email string) (*core.User, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ?", email)
	u, err := scanUserRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func listUsers(ctx context.Context, q querier) ([]core.User, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func countUsers(ctx context.Context, q querier) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserRow(row rowScanner) (*core.User, error) {
	var (
		u         core.User
		days      string
		createdAt string
		updatedAt sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.IsActive, &u.IsAdmin, &days, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	balance, err := decimal.NewFromString(days)
	if err != nil {
		return nil, core.NewInternal("read balance", fmt.Errorf("user %s: unreadable available_days %q", u.ID, days))
	}
	u.AvailableDays = balance

	if u.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("user %s: bad created_at: %w", u.ID, err)
	}
	if t, ok := parseNullTime(updatedAt); ok {
		u.UpdatedAt = &t
	}
	return &u, nil
}

// =============================================================================
// LEAVE STORE (core.LeaveStore interface)
// =============================================================================

func (s *Store) SaveLeave(ctx context.Context, l core.Leave) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveLeave(ctx, s.db, l)
}

func (s *Store) GetLeave(ctx context.Context, id core.LeaveID) (*core.Leave, error) {
	return getLeave(ctx, s.db, id)
}

func (s *Store) ListLeavesByUser(ctx context.Context, userID core.UserID) ([]core.Leave, error) {
	return listLeavesByUser(ctx, s.db, userID)
}

func (s *Store) DeleteLeave(ctx context.Context, id core.LeaveID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteLeave(ctx, s.db, id)
}

func saveLeave(ctx context.Context, q querier, l core.Leave) error {
	query := `
		INSERT INTO leaves (id, user_id, start_date, end_date, days, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			days = excluded.days,
			status = excluded.status,
			updated_at = excluded.updated_at
	`
	_, err := q.ExecContext(ctx, query,
		l.ID,
		l.UserID,
		l.StartDate.UTC().Format(time.RFC3339Nano),
		l.EndDate.UTC().Format(time.RFC3339Nano),
		l.Days.String(),
		l.Status,
		l.CreatedAt.UTC().Format(time.RFC3339Nano),
		nullTime(l.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save leave: %w", err)
	}
	return nil
}

const leaveColumns = "id, user_id, start_date, end_date, days, status, created_at, updated_at"

func getLeave(ctx context.Context, q querier, id core.LeaveID) (*core.Leave, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+leaveColumns+" FROM leaves WHERE id = ?", id)
	l, err := scanLeaveRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return l, err
}

func listLeavesByUser(ctx context.Context, q querier, userID core.UserID) ([]core.Leave, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+leaveColumns+" FROM leaves WHERE user_id = ? ORDER BY start_date ASC, id ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaves: %w", err)
	}
	defer rows.Close()

	var leaves []core.Leave
	for rows.Next() {
		l, err := scanLeaveRow(rows)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, *l)
	}
	return leaves, rows.Err()
}

func deleteLeave(ctx context.Context, q querier, id core.LeaveID) error {
	res, err := q.ExecContext(ctx, "DELETE FROM leaves WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete leave: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.NewNotFound("leave", string(id))
	}
	return nil
}

func scanLeaveRow(row rowScanner) (*core.Leave, error) {
	var (
		l         core.Leave
		start     string
		end       string
		days      string
		createdAt string
		updatedAt sql.NullString
	)
	if err := row.Scan(&l.ID, &l.UserID, &start, &end, &days, &l.Status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if l.StartDate, err = time.Parse(time.RFC3339Nano, start); err != nil {
		return nil, fmt.Errorf("leave %s: bad start_date: %w", l.ID, err)
	}
	if l.EndDate, err = time.Parse(time.RFC3339Nano, end); err != nil {
		return nil, fmt.Errorf("leave %s: bad end_date: %w", l.ID, err)
	}
	if l.Days, err = decimal.NewFromString(days); err != nil {
		return nil, core.NewInternal("read days", fmt.Errorf("leave %s: unreadable days %q", l.ID, days))
	}
	if l.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("leave %s: bad created_at: %w", l.ID, err)
	}
	if t, ok := parseNullTime(updatedAt); ok {
		l.UpdatedAt = &t
	}
	return &l, nil
}

// =============================================================================
// TRANSACTIONS (core.TxStore interface)
// =============================================================================

// WithTx executes fn within a SQL transaction. The store mutex is held
// for the whole callback, so a WithTx region never interleaves with
// another writer.
func (s *Store) WithTx(ctx context.Context, fn func(core.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore exposes core.Store over an open *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

var _ core.Store = (*txStore)(nil)

func (t *txStore) SaveUser(ctx context.Context, u core.User) error { return saveUser(ctx, t.tx, u) }
func (t *txStore) GetUser(ctx context.Context, id core.UserID) (*core.User, error) {
	return getUser(ctx, t.tx, id)
}
func (t *txStore) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return getUserByEmail(ctx, t.tx, email)
}
func (t *txStore) ListUsers(ctx context.Context) ([]core.User, error) { return listUsers(ctx, t.tx) }
func (t *txStore) CountUsers(ctx context.Context) (int, error)        { return countUsers(ctx, t.tx) }
func (t *txStore) SaveLeave(ctx context.Context, l core.Leave) error  { return saveLeave(ctx, t.tx, l) }
func (t *txStore) GetLeave(ctx context.Context, id core.LeaveID) (*core.Leave, error) {
	return getLeave(ctx, t.tx, id)
}
func (t *txStore) ListLeavesByUser(ctx context.Context, userID core.UserID) ([]core.Leave, error) {
	return listLeavesByUser(ctx, t.tx, userID)
}
func (t *txStore) DeleteLeave(ctx context.Context, id core.LeaveID) error {
	return deleteLeave(ctx, t.tx, id)
}

// =============================================================================
// HELPERS
// =============================================================================

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

func parseNullTime(ns sql.NullString) (time.Time, bool) {
	if !ns.Valid {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, ns.String)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
