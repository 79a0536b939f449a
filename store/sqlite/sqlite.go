/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements ledger.TxStore for the two append-only ledgers (activities
  and grants) plus the auth.Store records (users, refresh tokens). In
  production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the activities or grants tables
  - No DELETE statements on the activities or grants tables

KEY TABLES:
  activities:     Immutable record of raw measurements
  grants:         Immutable reward ledger (source of truth for earned)
  users:          Accounts linked to Kakao identities
  refresh_tokens: Persisted long-lived credentials

INDEXES:
  - idx_grants_user_type_created: cap check and per-type daily sums (hot path)
  - idx_grants_user_created: history pagination and lifetime sums
  - idx_activities_user_type_created: today's raw totals

CONCURRENCY:
  Uses sync.RWMutex plus a single pooled connection. SQLite is opened
  with WAL (Write-Ahead Logging): multiple readers don't block, a single
  writer at a time, better crash recovery. The recorder's keyed lock
  serializes same-day writes for a user above this layer.

TIMESTAMPS:
  All times are stored as UTC RFC3339 text. Lexicographic comparison of
  fixed-offset RFC3339 strings matches chronological order, so the
  half-open window queries use plain string comparison.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fitcoin/reward-engine/auth"
	"github.com/fitcoin/reward-engine/ledger"
)

// Store implements ledger.TxStore and auth.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases coherent and lets
	// the mutex above be the only writer gate.
	db.SetMaxOpenConns(1)

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
	-- Raw activity measurements (append-only)
	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		value INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_activities_user_type_created
		ON activities(user_id, type, created_at);

	-- Reward grants (append-only ledger)
	CREATE TABLE IF NOT EXISTS grants (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		activity_type TEXT NOT NULL,
		amount INTEGER NOT NULL,
		reason TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Cap check: sum of today's grants for (user, type)
	CREATE INDEX IF NOT EXISTS idx_grants_user_type_created
		ON grants(user_id, activity_type, created_at);

	-- History pagination and lifetime sums
	CREATE INDEX IF NOT EXISTS idx_grants_user_created
		ON grants(user_id, created_at DESC);

	-- Users
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		kakao_id TEXT NOT NULL UNIQUE,
		nickname TEXT NOT NULL,
		profile_image TEXT,
		created_at TEXT NOT NULL
	);

	-- Refresh tokens
	CREATE TABLE IF NOT EXISTS refresh_tokens (
		token TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user
		ON refresh_tokens(user_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// querier covers *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// LEDGER STORE (ledger.Store interface)
// =============================================================================

// AppendObservation adds a raw measurement record.
func (s *Store) AppendObservation(ctx context.Context, obs ledger.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return appendObservation(ctx, s.db, obs)
}

func appendObservation(ctx context.Context, db querier, obs ledger.Observation) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO activities (id, user_id, type, value, created_at) VALUES (?, ?, ?, ?, ?)`,
		obs.ID, string(obs.UserID), string(obs.Type), obs.Value, formatTime(obs.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to append observation: %w", err)
	}
	return nil
}

// AppendGrant adds a reward ledger entry.
func (s *Store) AppendGrant(ctx context.Context, g ledger.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return appendGrant(ctx, s.db, g)
}

func appendGrant(ctx context.Context, db querier, g ledger.Grant) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO grants (id, user_id, activity_type, amount, reason, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		g.ID, string(g.UserID), string(g.ActivityType), g.Amount.Int64(), g.Reason, formatTime(g.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to append grant: %w", err)
	}
	return nil
}

// GrantedInWindow sums a user's grants for one activity type inside a window.
func (s *Store) GrantedInWindow(ctx context.Context, userID ledger.UserID, t ledger.ActivityType, w ledger.Window) (ledger.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return grantedInWindow(ctx, s.db, userID, t, w)
}

func grantedInWindow(ctx context.Context, db querier, userID ledger.UserID, t ledger.ActivityType, w ledger.Window) (ledger.Amount, error) {
	var sum int64
	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM grants
		 WHERE user_id = ? AND activity_type = ? AND created_at >= ? AND created_at < ?`,
		string(userID), string(t), formatTime(w.Start), formatTime(w.End),
	).Scan(&sum)
	if err != nil {
		return ledger.Amount{}, fmt.Errorf("failed to sum grants: %w", err)
	}
	return ledger.NewCoins(sum), nil
}

// GrantedTotalInWindow sums a user's grants across both activity types.
func (s *Store) GrantedTotalInWindow(ctx context.Context, userID ledger.UserID, w ledger.Window) (ledger.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return grantedTotalInWindow(ctx, s.db, userID, w)
}

func grantedTotalInWindow(ctx context.Context, db querier, userID ledger.UserID, w ledger.Window) (ledger.Amount, error) {
	var sum int64
	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM grants
		 WHERE user_id = ? AND created_at >= ? AND created_at < ?`,
		string(userID), formatTime(w.Start), formatTime(w.End),
	).Scan(&sum)
	if err != nil {
		return ledger.Amount{}, fmt.Errorf("failed to sum grants: %w", err)
	}
	return ledger.NewCoins(sum), nil
}

// GrantedTotal sums a user's all-time grants.
func (s *Store) GrantedTotal(ctx context.Context, userID ledger.UserID) (ledger.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return grantedTotal(ctx, s.db, userID)
}

func grantedTotal(ctx context.Context, db querier, userID ledger.UserID) (ledger.Amount, error) {
	var sum int64
	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM grants WHERE user_id = ?`,
		string(userID),
	).Scan(&sum)
	if err != nil {
		return ledger.Amount{}, fmt.Errorf("failed to sum grants: %w", err)
	}
	return ledger.NewCoins(sum), nil
}

// ObservedInWindow sums raw magnitudes for one (user, type) pair in a window.
func (s *Store) ObservedInWindow(ctx context.Context, userID ledger.UserID, t ledger.ActivityType, w ledger.Window) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return observedInWindow(ctx, s.db, userID, t, w)
}

func observedInWindow(ctx context.Context, db querier, userID ledger.UserID, t ledger.ActivityType, w ledger.Window) (int64, error) {
	var sum int64
	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(value), 0) FROM activities
		 WHERE user_id = ? AND type = ? AND created_at >= ? AND created_at < ?`,
		string(userID), string(t), formatTime(w.Start), formatTime(w.End),
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum activities: %w", err)
	}
	return sum, nil
}

// GrantHistory returns one page of a user's grants, newest first, plus the
// total grant count.
func (s *Store) GrantHistory(ctx context.Context, userID ledger.UserID, offset, limit int) ([]ledger.Grant, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return grantHistory(ctx, s.db, userID, offset, limit)
}

func grantHistory(ctx context.Context, db querier, userID ledger.UserID, offset, limit int) ([]ledger.Grant, int, error) {
	var total int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM grants WHERE user_id = ?`, string(userID),
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count grants: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, activity_type, amount, reason, created_at
		 FROM grants
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		string(userID), limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query grants: %w", err)
	}
	defer rows.Close()

	var grants []ledger.Grant
	for rows.Next() {
		var (
			g         ledger.Grant
			uid       string
			atype     string
			amount    int64
			createdAt string
		)
		if err := rows.Scan(&g.ID, &uid, &atype, &amount, &g.Reason, &createdAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan grant: %w", err)
		}
		g.UserID = ledger.UserID(uid)
		g.ActivityType = ledger.ActivityType(atype)
		g.Amount = ledger.NewCoins(amount)
		g.CreatedAt = parseTime(createdAt)
		grants = append(grants, g)
	}

	return grants, total, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (ledger.TxStore interface)
// =============================================================================

// WithTx executes a function within a single database transaction. The
// store passed to fn routes every call through that transaction, so
// reads observe the transaction's own writes.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
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

// txStore is the view of the store inside an open transaction. No
// locking here; WithTx already holds the write lock.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) AppendObservation(ctx context.Context, obs ledger.Observation) error {
	return appendObservation(ctx, ts.tx, obs)
}

func (ts *txStore) AppendGrant(ctx context.Context, g ledger.Grant) error {
	return appendGrant(ctx, ts.tx, g)
}

func (ts *txStore) GrantedInWindow(ctx context.Context, userID ledger.UserID, t ledger.ActivityType, w ledger.Window) (ledger.Amount, error) {
	return grantedInWindow(ctx, ts.tx, userID, t, w)
}

func (ts *txStore) GrantedTotalInWindow(ctx context.Context, userID ledger.UserID, w ledger.Window) (ledger.Amount, error) {
	return grantedTotalInWindow(ctx, ts.tx, userID, w)
}

func (ts *txStore) GrantedTotal(ctx context.Context, userID ledger.UserID) (ledger.Amount, error) {
	return grantedTotal(ctx, ts.tx, userID)
}

func (ts *txStore) ObservedInWindow(ctx context.Context, userID ledger.UserID, t ledger.ActivityType, w ledger.Window) (int64, error) {
	return observedInWindow(ctx, ts.tx, userID, t, w)
}

func (ts *txStore) GrantHistory(ctx context.Context, userID ledger.UserID, offset, limit int) ([]ledger.Grant, int, error) {
	return grantHistory(ctx, ts.tx, userID, offset, limit)
}

// =============================================================================
// USER STORE (auth.Store interface)
// =============================================================================

// UserByID retrieves a user by internal ID. Returns (nil, nil) if missing.
func (s *Store) UserByID(ctx context.Context, id string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryUser(ctx, `SELECT id, kakao_id, nickname, profile_image, created_at FROM users WHERE id = ?`, id)
}

// UserByKakaoID retrieves a user by provider identity. Returns (nil, nil)
// if missing.
func (s *Store) UserByKakaoID(ctx context.Context, kakaoID string) (*auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryUser(ctx, `SELECT id, kakao_id, nickname, profile_image, created_at FROM users WHERE kakao_id = ?`, kakaoID)
}

func (s *Store) queryUser(ctx context.Context, query string, arg any) (*auth.User, error) {
	var (
		u            auth.User
		profileImage sql.NullString
		createdAt    string
	)

	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.KakaoID, &u.Nickname, &profileImage, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	u.ProfileImage = profileImage.String
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

// SaveUser inserts a user or refreshes their provider profile fields.
func (s *Store) SaveUser(ctx context.Context, u auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO users (id, kakao_id, nickname, profile_image, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			nickname = excluded.nickname,
			profile_image = excluded.profile_image
	`

	var profileImage sql.NullString
	if u.ProfileImage != "" {
		profileImage = sql.NullString{String: u.ProfileImage, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.KakaoID, u.Nickname, profileImage, formatTime(u.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// SaveRefreshToken persists a refresh token. Re-issuing an identical token
// (same user, same second) refreshes its expiry instead of failing.
func (s *Store) SaveRefreshToken(ctx context.Context, t auth.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(token) DO UPDATE SET expires_at = excluded.expires_at`,
		t.Token, t.UserID, formatTime(t.ExpiresAt), formatTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

// RefreshTokenByValue retrieves a stored refresh token. Returns (nil, nil)
// if missing.
func (s *Store) RefreshTokenByValue(ctx context.Context, token string) (*auth.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		t         auth.RefreshToken
		expiresAt string
		createdAt string
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at, created_at FROM refresh_tokens WHERE token = ?`,
		token,
	).Scan(&t.Token, &t.UserID, &expiresAt, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query refresh token: %w", err)
	}

	t.ExpiresAt = parseTime(expiresAt)
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}
