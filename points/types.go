/*
Package points provides the ledger/wallet engine for the rewards system.

PURPOSE:
  This package contains the types and operations for point accounting.
  The ledger is the sole source of truth for balances: every award,
  spend, refund, and correction is an immutable LedgerEntry, and a
  user's true balance is the sum of their entry deltas. The Wallet is a
  derived cache of that sum, maintained for fast reads.

KEY CONCEPTS IN THIS FILE (types.go):
  - Points: A point quantity backed by decimal.Decimal
  - LedgerEntry: An immutable record of a balance change
  - Wallet: The cached current balance for a user
  - Source: Where an entry came from (scan, social, admin, ...)

DESIGN PRINCIPLES:
  1. Immutability: Entries are never modified, only offset by refunds
  2. Precision: decimal.Decimal avoids floating-point drift
  3. Derivability: Wallet must always be recomputable from entries alone
  4. Auditability: Every entry carries a source, reference, and reason

SEE ALSO:
  - ledger.go: Ledger operations and wallet reconciliation
  - store.go: Persistence interface
  - errors.go: Sentinel errors
*/
package points

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// POINTS - Quantity of reward points
// =============================================================================

type Points struct {
	Value decimal.Decimal
}

func NewPoints(value int64) Points {
	return Points{Value: decimal.NewFromInt(value)}
}

func NewPointsFromFloat(value float64) Points {
	return Points{Value: decimal.NewFromFloat(value)}
}

// ParsePoints parses a decimal string, e.g. a stored delta or balance.
func ParsePoints(s string) (Points, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Points{}, fmt.Errorf("invalid points value %q: %w", s, err)
	}
	return Points{Value: d}, nil
}

func Zero() Points { return Points{Value: decimal.Zero} }

func (p Points) Add(q Points) Points      { return Points{Value: p.Value.Add(q.Value)} }
func (p Points) Sub(q Points) Points      { return Points{Value: p.Value.Sub(q.Value)} }
func (p Points) Neg() Points              { return Points{Value: p.Value.Neg()} }
func (p Points) IsZero() bool             { return p.Value.IsZero() }
func (p Points) IsNegative() bool         { return p.Value.IsNegative() }
func (p Points) IsPositive() bool         { return p.Value.IsPositive() }
func (p Points) Equal(q Points) bool      { return p.Value.Equal(q.Value) }
func (p Points) GreaterThan(q Points) bool { return p.Value.GreaterThan(q.Value) }
func (p Points) Float64() float64         { f, _ := p.Value.Float64(); return f }
func (p Points) String() string           { return p.Value.String() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type EntryID string

// =============================================================================
// LEDGER ENTRY - Atomic change to a user's point balance
// =============================================================================

// Source identifies what kind of event produced a ledger entry.
type Source string

const (
	SourceScan   Source = "scan"   // QR code redemption
	SourceSocial Source = "social" // Credited social-media submission
	SourceAdmin  Source = "admin"  // Manual admin adjustment
	SourceRefund Source = "refund" // Offset of a previous entry
	SourceRedeem Source = "redeem" // Points spent in the shop
)

// LedgerEntry is an immutable, append-only record of a balance change.
// The sum of all entry deltas for a user is that user's true balance.
type LedgerEntry struct {
	ID          EntryID
	UserID      UserID
	Source      Source
	ReferenceID string // originating event, e.g. the accepted scan event ID
	Delta       Points // signed
	Reason      string
	CreatedAt   time.Time
}

// =============================================================================
// WALLET - Derived balance cache
// =============================================================================

// Wallet mirrors the ledger sum for fast reads. It is a cache, never a
// source of truth: it must always be recomputable from LedgerEntry rows.
type Wallet struct {
	UserID    UserID
	Balance   Points
	UpdatedAt time.Time
}

// Apply returns the wallet state after a ledger entry takes effect.
// Stores must execute this update in the same atomic unit as the entry
// insert so the cache-equals-sum invariant holds after every write.
func Apply(w Wallet, e LedgerEntry) Wallet {
	return Wallet{
		UserID:    e.UserID,
		Balance:   w.Balance.Add(e.Delta),
		UpdatedAt: e.CreatedAt,
	}
}
