/*
ledger.go - Ledger operations over the Store

PURPOSE:
  The Ledger is the immutable source of truth for balances. This file
  provides the engine-level operations: appending entries, reading
  history, and reconciling the wallet cache against the ledger sum.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: entries are never updated or deleted
  2. CACHE = SUM: after any append completes, the wallet balance equals
     the sum of the user's entry deltas
  3. REFERENCED: every scan-sourced entry points at its scan event

WHY AN EXPLICIT RECONCILE?
  The wallet update runs inside the same storage transaction as the
  entry insert, so drift should be impossible. Reconcile exists to make
  that claim checkable: recompute from scratch and compare.
*/
package points

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// =============================================================================
// LEDGER
// =============================================================================

type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Append validates and persists an entry. A missing ID is filled with a
// fresh ULID; CreatedAt defaults to the current UTC time.
func (l *Ledger) Append(ctx context.Context, e LedgerEntry) (LedgerEntry, error) {
	if e.UserID == "" {
		return e, ErrEntryFailed
	}
	if e.ID == "" {
		e.ID = NewEntryID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := l.store.AppendEntry(ctx, e); err != nil {
		return e, err
	}
	return e, nil
}

// History returns the most recent entries for a user, newest first.
func (l *Ledger) History(ctx context.Context, user UserID, limit int) ([]LedgerEntry, error) {
	return l.store.Entries(ctx, user, limit)
}

// Balance returns the cached wallet balance.
func (l *Ledger) Balance(ctx context.Context, user UserID) (Points, error) {
	w, err := l.store.Wallet(ctx, user)
	if err != nil {
		return Points{}, err
	}
	return w.Balance, nil
}

// Reconcile recomputes the balance from ledger rows and compares it to
// the cached wallet. Returns a DriftError if they disagree.
func (l *Ledger) Reconcile(ctx context.Context, user UserID) (Points, error) {
	sum, err := l.store.SumDeltas(ctx, user)
	if err != nil {
		return Points{}, err
	}
	w, err := l.store.Wallet(ctx, user)
	if err != nil {
		return Points{}, err
	}
	if !w.Balance.Equal(sum) {
		return sum, &DriftError{UserID: user, Cached: w.Balance, Recomputed: sum}
	}
	return sum, nil
}

// =============================================================================
// ID GENERATION
// =============================================================================

// NewEntryID returns a lexically sortable unique entry ID.
func NewEntryID() EntryID {
	return EntryID("le_" + strings.ToLower(ulid.Make().String()))
}
