/*
store.go - Persistence interface for codes and scan events

PURPOSE:
  Defines what the redemption function needs from storage. The accept
  path runs inside WithTx: the reuse check, the accepted scan insert,
  the ledger append, and the wallet apply all commit or roll back as
  one unit.

CONCURRENCY CONTRACT:
  WithTx serializes against all other redemption transactions, so a
  check made inside fn cannot be invalidated before the commit. As a
  backstop, implementations must enforce at-most-one accepted scan per
  single-use code with a storage-level uniqueness constraint and return
  ErrClaimConflict when it fires.

SEE ALSO:
  - redeem.go: The redemption function driving this interface
  - store/sqlite: Production implementation
*/
package redeem

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/loop/rewards-engine/points"
)

// Store handles persistence for the code registry and scan history.
type Store interface {
	CodeLookup

	// CreateCode inserts a new code. Returns ErrDuplicateToken if the
	// token is already registered.
	CreateCode(ctx context.Context, c Code) error

	// RecordScan appends a scan event (used for rejected attempts;
	// accepted scans are written inside WithTx).
	RecordScan(ctx context.Context, ev ScanEvent) error

	// UserScans returns the most recent scan events for a user,
	// newest first. limit <= 0 means no limit.
	UserScans(ctx context.Context, user points.UserID, limit int) ([]ScanEvent, error)

	// WithTx executes fn within a single storage transaction that is
	// serialized against other redemption transactions. If fn returns
	// an error the transaction is rolled back.
	WithTx(ctx context.Context, fn func(Tx) error) error
}

// CodeLookup resolves canonical tokens to codes. Satisfied by both the
// Store and the read-through cache in front of it.
type CodeLookup interface {
	// CodeByToken returns the code for a canonical token, or nil if no
	// code matches.
	CodeByToken(ctx context.Context, token string) (*Code, error)
}

// Tx is the transactional view used by the accept path.
type Tx interface {
	// HasAcceptedScan reports whether any accepted scan exists for the
	// code, across all users. Single-use reuse check.
	HasAcceptedScan(ctx context.Context, codeID uuid.UUID) (bool, error)

	// HasAcceptedScanSince reports whether the user has an accepted
	// scan for the code at or after t. Repeatable cooldown check.
	HasAcceptedScanSince(ctx context.Context, user points.UserID, codeID uuid.UUID, t time.Time) (bool, error)

	// InsertScan appends a scan event within the transaction. For
	// accepted scans of single-use codes the implementation must stamp
	// the uniqueness claim that makes a losing writer fail with
	// ErrClaimConflict.
	InsertScan(ctx context.Context, ev ScanEvent, singleUse bool) error

	// AppendEntry inserts a ledger entry and applies its delta to the
	// user's wallet, all within the transaction.
	AppendEntry(ctx context.Context, e points.LedgerEntry) error

	// WalletBalance reads the cached balance within the transaction.
	WalletBalance(ctx context.Context, user points.UserID) (points.Points, error)
}
