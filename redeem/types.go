/*
Package redeem implements QR code redemption on top of the points engine.

PURPOSE:
  Users earn points by scanning codes printed on product packaging.
  This package holds the code registry types, the scan audit trail, and
  the redemption function itself - the one place in the system that
  must resist concurrent double-awards.

KEY CONCEPTS IN THIS FILE (types.go):
  - Code: a redeemable token with value, reuse policy, and an optional
    activation window
  - ScanEvent: an immutable record of one redemption attempt, accepted
    or rejected
  - RejectReason: the typed rejection taxonomy surfaced to clients

REUSE POLICIES:
  Single-use:  redeemable by exactly one user, exactly once, globally.
  Repeatable:  redeemable by any user, at most once per trailing
               24-hour window per user.

SEE ALSO:
  - redeem.go: The redemption function
  - store.go: Persistence interface
  - codes.go: Token normalization and batch generation
*/
package redeem

import (
	"time"

	"github.com/google/uuid"

	"github.com/loop/rewards-engine/points"
)

// =============================================================================
// CODE - Registry entry for a redeemable token
// =============================================================================

// Code is a redeemable token. Immutable after creation; codes are
// minted by an offline generation process (see cmd/codegen).
type Code struct {
	ID       uuid.UUID
	Token    string // canonical uppercase form
	Label    string
	Value    points.Points
	IsUnique bool // true = single-use, false = repeatable with cooldown

	// Optional activation window [StartsAt, EndsAt). Nil means unbounded.
	StartsAt *time.Time
	EndsAt   *time.Time

	Metadata  map[string]string
	CreatedAt time.Time
}

// ActiveAt reports whether the code's activation window covers t.
func (c *Code) ActiveAt(t time.Time) (active bool, reason RejectReason) {
	if c.StartsAt != nil && t.Before(*c.StartsAt) {
		return false, ReasonNotYetActive
	}
	if c.EndsAt != nil && !t.Before(*c.EndsAt) {
		return false, ReasonExpired
	}
	return true, ""
}

// =============================================================================
// SCAN EVENT - Audit record of one redemption attempt
// =============================================================================

type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

// SentinelCodeID marks scan events for tokens that matched no code.
// The submitted token is preserved on the event itself, so the
// sentinel is a plain marker rather than a dangling reference.
var SentinelCodeID = uuid.Nil

// ScanEvent records one redemption attempt. One row per attempt,
// including failures. Append-only; never updated or deleted.
type ScanEvent struct {
	ID           string
	UserID       points.UserID
	CodeID       uuid.UUID // SentinelCodeID when no code matched
	Submitted    string    // normalized token as submitted
	Outcome      Outcome
	RejectReason RejectReason // empty when accepted
	ScannedAt    time.Time
}

// =============================================================================
// REJECTION TAXONOMY
// =============================================================================

// RejectReason is the machine-readable rejection reason returned to
// clients and persisted on rejected scan events.
type RejectReason string

const (
	ReasonNotFound       RejectReason = "code not found"
	ReasonNotYetActive   RejectReason = "not yet active"
	ReasonExpired        RejectReason = "expired"
	ReasonAlreadyClaimed RejectReason = "already claimed"
	ReasonCooldownActive RejectReason = "cooldown active"
)

// Message returns the human-facing explanation for a rejection.
func (r RejectReason) Message() string {
	switch r {
	case ReasonNotFound:
		return "Invalid code. Please check and try again."
	case ReasonNotYetActive:
		return "This code is not yet active."
	case ReasonExpired:
		return "This code has expired."
	case ReasonAlreadyClaimed:
		return "This code has already been claimed."
	case ReasonCooldownActive:
		return "You already scanned this code in the last 24 hours."
	default:
		return string(r)
	}
}
