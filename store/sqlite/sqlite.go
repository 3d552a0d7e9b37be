/*
Package sqlite provides the SQLite-backed storage for the rewards engine.

PURPOSE:
  Implements points.Store and redeem.Store on one database. In
  production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  codes:              Redeemable code registry (read-mostly)
  scan_events:        Append-only history of redemption attempts
  point_ledger:       Append-only point movements; source of truth
  wallets:            Cached per-user balance, derived from the ledger
  social_submissions: Pending social-media submissions

UNIQUENESS ENFORCEMENT:
  idx_unique_code_claim is a partial unique index on
  scan_events.claim_key; accepted scans of single-use codes stamp the
  code ID there, so the second concurrent writer for the same code
  fails at insert time and gets redeem.ErrClaimConflict.

  idx_ledger_source_ref makes the same originating event unable to
  credit a user twice (points.ErrDuplicateReference).

ATOMICITY:
  WithTx wraps the redemption accept path (reuse check, scan insert,
  ledger insert, wallet apply) in one SQL transaction serialized by the
  store's write lock. The wallet update is an explicit read-then-write
  inside the same transaction, not a database trigger, so the
  cache-equals-ledger-sum invariant is testable in Go.

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't
  block, a single writer at a time, better crash recovery.

SEE ALSO:
  - points/store.go, redeem/store.go: Interface definitions
  - points/store/memory.go: In-memory implementation for unit tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/loop/rewards-engine/points"
	"github.com/loop/rewards-engine/redeem"
)

// Store implements points.Store and redeem.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Writes are serialized by s.mu anyway, and ":memory:" gives every
	// pooled connection its own empty database.
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

func (s *Store) migrate() error {
	schema := `
	-- Code registry (immutable after creation)
	CREATE TABLE IF NOT EXISTS codes (
		id TEXT PRIMARY KEY,
		token TEXT NOT NULL UNIQUE,
		label TEXT,
		points_value TEXT NOT NULL,
		is_unique BOOLEAN NOT NULL DEFAULT FALSE,
		starts_at TEXT,
		ends_at TEXT,
		metadata_json TEXT,
		created_at TEXT NOT NULL
	);

	-- Scan events (append-only audit of every attempt)
	CREATE TABLE IF NOT EXISTS scan_events (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		code_id TEXT NOT NULL,
		submitted_code TEXT NOT NULL,
		result TEXT NOT NULL,
		reject_reason TEXT,
		claim_key TEXT,
		scanned_at TEXT NOT NULL
	);

	-- CRITICAL: at most one accepted scan per single-use code, across
	-- all users. Accepted scans of single-use codes stamp the code ID
	-- into claim_key; the losing concurrent writer fails here.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_code_claim
		ON scan_events(claim_key) WHERE claim_key IS NOT NULL;

	-- Cooldown check (hot path)
	CREATE INDEX IF NOT EXISTS idx_scans_user_code
		ON scan_events(user_id, code_id, result, scanned_at);
	CREATE INDEX IF NOT EXISTS idx_scans_code_result
		ON scan_events(code_id, result);
	CREATE INDEX IF NOT EXISTS idx_scans_user_time
		ON scan_events(user_id, scanned_at DESC);

	-- Point ledger (append-only; source of truth for balances)
	CREATE TABLE IF NOT EXISTS point_ledger (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		source TEXT NOT NULL,
		ref_id TEXT,
		delta TEXT NOT NULL,
		reason TEXT,
		created_at TEXT NOT NULL
	);

	-- One originating event credits a user at most once
	CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_source_ref
		ON point_ledger(source, ref_id) WHERE ref_id IS NOT NULL AND ref_id != '';
	CREATE INDEX IF NOT EXISTS idx_ledger_user_created
		ON point_ledger(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_ledger_created
		ON point_ledger(created_at);

	-- Wallets (derived cache of the ledger sum)
	CREATE TABLE IF NOT EXISTS wallets (
		user_id TEXT PRIMARY KEY,
		balance_cached TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Social submissions (pending review happens elsewhere)
	CREATE TABLE IF NOT EXISTS social_submissions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		platform TEXT NOT NULL,
		post_url TEXT NOT NULL,
		screenshot_url TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_social_user
		ON social_submissions(user_id, created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// CODE REGISTRY (redeem.Store)
// =============================================================================

// CreateCode inserts a new code into the registry.
func (s *Store) CreateCode(ctx context.Context, c redeem.Code) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	metadataJSON, _ := json.Marshal(c.Metadata)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO codes
		(id, token, label, points_value, is_unique, starts_at, ends_at, metadata_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(),
		c.Token,
		nullString(c.Label),
		c.Value.String(),
		c.IsUnique,
		nullTime(c.StartsAt),
		nullTime(c.EndsAt),
		string(metadataJSON),
		c.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return redeem.ErrDuplicateToken
		}
		return fmt.Errorf("failed to create code: %w", err)
	}
	return nil
}

// CodeByToken returns the code for a canonical token, or nil.
func (s *Store) CodeByToken(ctx context.Context, token string) (*redeem.Code, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, token, label, points_value, is_unique, starts_at, ends_at, metadata_json, created_at
		FROM codes WHERE token = ?`, token)

	var (
		c            redeem.Code
		id           string
		label        sql.NullString
		value        string
		startsAt     sql.NullString
		endsAt       sql.NullString
		metadataJSON sql.NullString
		createdAt    string
	)
	err := row.Scan(&id, &c.Token, &label, &value, &c.IsUnique, &startsAt, &endsAt, &metadataJSON, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load code: %w", err)
	}

	c.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid code id %q: %w", id, err)
	}
	c.Label = label.String
	c.Value, err = points.ParsePoints(value)
	if err != nil {
		return nil, fmt.Errorf("corrupt code value: %w", err)
	}
	c.StartsAt = parseNullTime(startsAt)
	c.EndsAt = parseNullTime(endsAt)
	if metadataJSON.Valid && metadataJSON.String != "" {
		json.Unmarshal([]byte(metadataJSON.String), &c.Metadata)
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &c, nil
}

// =============================================================================
// SCAN EVENTS (redeem.Store)
// =============================================================================

// RecordScan appends a scan event outside any redemption transaction.
// Used for rejected attempts; accepted scans go through WithTx.
func (s *Store) RecordScan(ctx context.Context, ev redeem.ScanEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return insertScan(ctx, s.db, ev, false)
}

func insertScan(ctx context.Context, q querier, ev redeem.ScanEvent, singleUse bool) error {
	var claimKey sql.NullString
	if singleUse && ev.Outcome == redeem.OutcomeAccepted {
		claimKey = sql.NullString{String: ev.CodeID.String(), Valid: true}
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO scan_events
		(id, user_id, code_id, submitted_code, result, reject_reason, claim_key, scanned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID,
		string(ev.UserID),
		ev.CodeID.String(),
		ev.Submitted,
		string(ev.Outcome),
		nullString(string(ev.RejectReason)),
		claimKey,
		ev.ScannedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) && strings.Contains(err.Error(), "claim_key") {
			return redeem.ErrClaimConflict
		}
		return fmt.Errorf("failed to insert scan event: %w", err)
	}
	return nil
}

// UserScans returns the most recent scan events for a user.
func (s *Store) UserScans(ctx context.Context, user points.UserID, limit int) ([]redeem.ScanEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, user_id, code_id, submitted_code, result, reject_reason, scanned_at
		FROM scan_events
		WHERE user_id = ?
		ORDER BY scanned_at DESC, id DESC`
	args := []any{string(user)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan events: %w", err)
	}
	defer rows.Close()

	var events []redeem.ScanEvent
	for rows.Next() {
		var (
			ev        redeem.ScanEvent
			userID    string
			codeID    string
			reason    sql.NullString
			scannedAt string
		)
		if err := rows.Scan(&ev.ID, &userID, &codeID, &ev.Submitted, &ev.Outcome, &reason, &scannedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		ev.UserID = points.UserID(userID)
		ev.CodeID, _ = uuid.Parse(codeID)
		ev.RejectReason = redeem.RejectReason(reason.String)
		ev.ScannedAt, _ = time.Parse(time.RFC3339, scannedAt)
		events = append(events, ev)
	}
	return events, rows.Err()
}

func hasAcceptedScan(ctx context.Context, q querier, codeID uuid.UUID) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM scan_events
		WHERE code_id = ? AND result = 'accepted'`, codeID.String()).Scan(&count)
	return count > 0, err
}

func hasAcceptedScanSince(ctx context.Context, q querier, user points.UserID, codeID uuid.UUID, t time.Time) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM scan_events
		WHERE user_id = ? AND code_id = ? AND result = 'accepted' AND scanned_at >= ?`,
		string(user), codeID.String(), t.UTC().Format(time.RFC3339)).Scan(&count)
	return count > 0, err
}

// =============================================================================
// REDEMPTION TRANSACTION (redeem.Store)
// =============================================================================

// WithTx runs fn inside one SQL transaction, serialized against all
// other writes by the store's lock. If fn returns an error the
// transaction is rolled back and nothing is committed.
func (s *Store) WithTx(ctx context.Context, fn func(redeem.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&redeemTx{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// redeemTx implements redeem.Tx over an open *sql.Tx.
type redeemTx struct {
	tx *sql.Tx
}

func (t *redeemTx) HasAcceptedScan(ctx context.Context, codeID uuid.UUID) (bool, error) {
	return hasAcceptedScan(ctx, t.tx, codeID)
}

func (t *redeemTx) HasAcceptedScanSince(ctx context.Context, user points.UserID, codeID uuid.UUID, since time.Time) (bool, error) {
	return hasAcceptedScanSince(ctx, t.tx, user, codeID, since)
}

func (t *redeemTx) InsertScan(ctx context.Context, ev redeem.ScanEvent, singleUse bool) error {
	return insertScan(ctx, t.tx, ev, singleUse)
}

func (t *redeemTx) AppendEntry(ctx context.Context, e points.LedgerEntry) error {
	return appendEntry(ctx, t.tx, e)
}

func (t *redeemTx) WalletBalance(ctx context.Context, user points.UserID) (points.Points, error) {
	w, err := loadWallet(ctx, t.tx, user)
	if err != nil {
		return points.Points{}, err
	}
	return w.Balance, nil
}

var _ redeem.Tx = (*redeemTx)(nil)
var _ redeem.Store = (*Store)(nil)

// =============================================================================
// POINT LEDGER + WALLET (points.Store)
// =============================================================================

// AppendEntry inserts a ledger entry and applies its delta to the
// wallet in one transaction.
func (s *Store) AppendEntry(ctx context.Context, e points.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := appendEntry(ctx, sqlTx, e); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// appendEntry writes the ledger row and the derived wallet update.
// Both run on the same querier so callers control atomicity.
func appendEntry(ctx context.Context, q querier, e points.LedgerEntry) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO point_ledger (id, user_id, source, ref_id, delta, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(e.ID),
		string(e.UserID),
		string(e.Source),
		nullString(e.ReferenceID),
		e.Delta.String(),
		nullString(e.Reason),
		e.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			if strings.Contains(err.Error(), "point_ledger") {
				return points.ErrDuplicateReference
			}
			return points.ErrConcurrentConflict
		}
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	// Derived wallet update, same atomic unit as the entry insert.
	w, err := loadWallet(ctx, q, e.UserID)
	if err != nil {
		return err
	}
	w = points.Apply(w, e)

	_, err = q.ExecContext(ctx, `
		INSERT INTO wallets (user_id, balance_cached, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			balance_cached = excluded.balance_cached,
			updated_at = excluded.updated_at`,
		string(w.UserID),
		w.Balance.String(),
		w.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
	}
	return nil
}

func loadWallet(ctx context.Context, q querier, user points.UserID) (points.Wallet, error) {
	var (
		balance   string
		updatedAt string
	)
	err := q.QueryRowContext(ctx,
		"SELECT balance_cached, updated_at FROM wallets WHERE user_id = ?",
		string(user)).Scan(&balance, &updatedAt)
	if err == sql.ErrNoRows {
		return points.Wallet{UserID: user, Balance: points.Zero()}, nil
	}
	if err != nil {
		return points.Wallet{}, fmt.Errorf("failed to load wallet: %w", err)
	}

	w := points.Wallet{UserID: user}
	w.Balance, err = points.ParsePoints(balance)
	if err != nil {
		return points.Wallet{}, fmt.Errorf("corrupt wallet balance: %w", err)
	}
	w.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return w, nil
}

// Entries returns ledger entries for a user, newest first.
func (s *Store) Entries(ctx context.Context, user points.UserID, limit int) ([]points.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, user_id, source, ref_id, delta, reason, created_at
		FROM point_ledger
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`
	args := []any{string(user)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.queryEntries(ctx, query, args...)
}

// EntriesSince returns entries created at or after t, oldest first.
func (s *Store) EntriesSince(ctx context.Context, user points.UserID, t time.Time) ([]points.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryEntries(ctx, `
		SELECT id, user_id, source, ref_id, delta, reason, created_at
		FROM point_ledger
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at ASC, id ASC`,
		string(user), t.UTC().Format(time.RFC3339))
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]points.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var entries []points.LedgerEntry
	for rows.Next() {
		var (
			e         points.LedgerEntry
			id        string
			userID    string
			source    string
			refID     sql.NullString
			delta     string
			reason    sql.NullString
			createdAt string
		)
		if err := rows.Scan(&id, &userID, &source, &refID, &delta, &reason, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		e.ID = points.EntryID(id)
		e.UserID = points.UserID(userID)
		e.Source = points.Source(source)
		e.ReferenceID = refID.String
		e.Delta, err = points.ParsePoints(delta)
		if err != nil {
			return nil, fmt.Errorf("corrupt ledger delta: %w", err)
		}
		e.Reason = reason.String
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SumDeltas recomputes a balance from ledger rows alone.
func (s *Store) SumDeltas(ctx context.Context, user points.UserID) (points.Points, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT delta FROM point_ledger WHERE user_id = ?", string(user))
	if err != nil {
		return points.Points{}, fmt.Errorf("failed to query deltas: %w", err)
	}
	defer rows.Close()

	sum := points.Zero()
	for rows.Next() {
		var delta string
		if err := rows.Scan(&delta); err != nil {
			return points.Points{}, err
		}
		d, err := points.ParsePoints(delta)
		if err != nil {
			return points.Points{}, fmt.Errorf("corrupt ledger delta: %w", err)
		}
		sum = sum.Add(d)
	}
	return sum, rows.Err()
}

// Wallet returns the cached wallet; zero balance if none exists yet.
func (s *Store) Wallet(ctx context.Context, user points.UserID) (points.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return loadWallet(ctx, s.db, user)
}

var _ points.Store = (*Store)(nil)

// =============================================================================
// LEADERBOARD
// =============================================================================

// LeaderboardRow is one ranked user.
type LeaderboardRow struct {
	UserID points.UserID
	Earned points.Points
}

// Leaderboard returns the top users by positive scan/social deltas
// earned at or after since. Admin corrections and refunds never rank a
// user. Computed on read; no materialization. Deltas are stored as
// decimal strings, so the summing happens in Go rather than as a REAL
// aggregate in SQL.
func (s *Store) Leaderboard(ctx context.Context, since time.Time, limit int) ([]LeaderboardRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, delta
		FROM point_ledger
		WHERE created_at >= ? AND source IN (?, ?)`,
		since.UTC().Format(time.RFC3339),
		string(points.SourceScan), string(points.SourceSocial))
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	earned := make(map[points.UserID]points.Points)
	for rows.Next() {
		var (
			userID string
			delta  string
		)
		if err := rows.Scan(&userID, &delta); err != nil {
			return nil, err
		}
		d, err := points.ParsePoints(delta)
		if err != nil {
			return nil, fmt.Errorf("corrupt ledger delta: %w", err)
		}
		if !d.IsPositive() {
			continue
		}
		user := points.UserID(userID)
		earned[user] = earned[user].Add(d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]LeaderboardRow, 0, len(earned))
	for user, total := range earned {
		out = append(out, LeaderboardRow{UserID: user, Earned: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Earned.Equal(out[j].Earned) {
			return out[i].Earned.GreaterThan(out[j].Earned)
		}
		return out[i].UserID < out[j].UserID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// =============================================================================
// SOCIAL SUBMISSIONS
// =============================================================================

// SaveSocialSubmission stores a pending submission.
func (s *Store) SaveSocialSubmission(ctx context.Context, sub redeem.SocialSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO social_submissions
		(id, user_id, platform, post_url, screenshot_url, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.ID.String(),
		string(sub.UserID),
		string(sub.Platform),
		sub.PostURL,
		nullString(sub.ScreenshotURL),
		string(sub.Status),
		sub.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save social submission: %w", err)
	}
	return nil
}

// SocialSubmissionsByUser returns a user's submissions, newest first.
func (s *Store) SocialSubmissionsByUser(ctx context.Context, user points.UserID) ([]redeem.SocialSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, platform, post_url, screenshot_url, status, created_at
		FROM social_submissions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, string(user))
	if err != nil {
		return nil, fmt.Errorf("failed to query social submissions: %w", err)
	}
	defer rows.Close()

	var subs []redeem.SocialSubmission
	for rows.Next() {
		var (
			sub        redeem.SocialSubmission
			id         string
			userID     string
			screenshot sql.NullString
			createdAt  string
		)
		if err := rows.Scan(&id, &userID, &sub.Platform, &sub.PostURL, &screenshot, &sub.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission row: %w", err)
		}
		sub.ID, _ = uuid.Parse(id)
		sub.UserID = points.UserID(userID)
		sub.ScreenshotURL = screenshot.String
		sub.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
