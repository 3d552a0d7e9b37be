/*
store.go - Persistence interface for the point ledger and wallets

PURPOSE:
  Defines the interface between the engine and the database. The Store
  keeps the ledger append-only and the wallet cache in lockstep with it.

APPEND-ONLY CONTRACT:
  - AppendEntry() is the ONLY write operation
  - No Update() or Delete() methods exist
  - Corrections are made via refund entries, never edits

ATOMIC APPLY:
  AppendEntry must insert the entry AND apply its delta to the wallet
  row in one atomic unit. A LedgerEntry without its wallet update (or
  the reverse) must be impossible, even across crashes.

IMPLEMENTATIONS:
  - store/sqlite:      production SQLite store (shared with redemption)
  - points/store:      in-memory store for unit tests

SEE ALSO:
  - ledger.go: Higher-level operations using Store
*/
package points

import (
	"context"
	"time"
)

// Store handles persistence of ledger entries and the derived wallet.
// IMPORTANT: the ledger is APPEND-ONLY. No Update, No Delete. Ever.
type Store interface {
	// AppendEntry persists an entry and applies its delta to the user's
	// wallet in the same atomic unit. Returns ErrDuplicateReference if
	// an entry for the same (source, reference) already exists.
	AppendEntry(ctx context.Context, e LedgerEntry) error

	// Entries returns the most recent entries for a user, newest first.
	// limit <= 0 means no limit.
	Entries(ctx context.Context, user UserID, limit int) ([]LedgerEntry, error)

	// EntriesSince returns entries for a user created at or after t.
	EntriesSince(ctx context.Context, user UserID, t time.Time) ([]LedgerEntry, error)

	// SumDeltas recomputes the user's balance from ledger rows alone.
	SumDeltas(ctx context.Context, user UserID) (Points, error)

	// Wallet returns the cached wallet. A user with no entries gets a
	// zero-balance wallet, not an error.
	Wallet(ctx context.Context, user UserID) (Wallet, error)
}
