/*
redeem.go - The redemption function

PURPOSE:
  The single place in the system with real invariants: exactly-once /
  rate-limited reward issuance under concurrent requests, time-window
  validation, and atomic ledger-based balance accounting.

VALIDATION PIPELINE (ordered, first failure wins):
  1. normalize input; empty -> ErrEmptyCode (no audit record)
  2. registry lookup by canonical token -> "code not found"
  3. activation window -> "not yet active" / "expired"
  4. reuse check -> "already claimed" / "cooldown active"
  5. accept

  Every outcome from step 2 onward writes a scan event, accepted or
  rejected, so the audit trail has one row per attempt.

ACCEPTANCE PATH (one storage transaction, all-or-nothing):
  1. re-run the reuse check inside the transaction
  2. insert ScanEvent{accepted}
  3. insert LedgerEntry{source=scan, ref=scan ID, delta=+value}
  4. apply the delta to the wallet (same unit as the entry insert)
  5. read back the wallet balance for the response

  A losing concurrent writer fails at insert time on the single-use
  uniqueness constraint and is converted to "already claimed" - never
  surfaced as a raw storage error.

IDENTITY:
  The verified user ID is an explicit parameter, not ambient request
  state. So is the clock, which keeps window and cooldown logic
  testable without sleeping.
*/
package redeem

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/loop/rewards-engine/points"
)

// DefaultCooldown is the trailing window in which a user may redeem a
// repeatable code at most once.
const DefaultCooldown = 24 * time.Hour

// =============================================================================
// RESULT
// =============================================================================

// Result is the outcome of one redemption attempt. Rejections are
// normal results, not errors.
type Result struct {
	Outcome       Outcome
	Reason        RejectReason // set when rejected
	PointsAwarded points.Points
	NewBalance    points.Points
	ScanID        string
}

func (r Result) Accepted() bool { return r.Outcome == OutcomeAccepted }

// =============================================================================
// REDEEMER
// =============================================================================

// Redeemer is the stateless redemption function. All shared state
// lives in the Store; concurrency correctness is a storage-transaction
// concern, not an in-memory one.
type Redeemer struct {
	store    Store
	codes    CodeLookup
	cooldown time.Duration
}

// NewRedeemer creates a Redeemer. lookup may be a read-through cache
// in front of the store; pass nil to read codes from the store
// directly.
func NewRedeemer(store Store, lookup CodeLookup) *Redeemer {
	if lookup == nil {
		lookup = store
	}
	return &Redeemer{store: store, codes: lookup, cooldown: DefaultCooldown}
}

// Redeem validates a scan attempt by user for the submitted code
// string and, on acceptance, atomically records the scan, the ledger
// entry, and the wallet update.
//
// Returned errors are transport-level failures (bad input, storage);
// business rejections come back as a rejected Result with nil error.
func (r *Redeemer) Redeem(ctx context.Context, user points.UserID, raw string, now time.Time) (Result, error) {
	token := NormalizeToken(raw)
	if token == "" {
		return Result{}, ErrEmptyCode
	}

	code, err := r.codes.CodeByToken(ctx, token)
	if err != nil {
		return Result{}, err
	}
	if code == nil {
		return r.reject(ctx, user, SentinelCodeID, token, ReasonNotFound, now)
	}

	if active, reason := code.ActiveAt(now); !active {
		return r.reject(ctx, user, code.ID, token, reason, now)
	}

	res, err := r.accept(ctx, user, code, token, now)
	if err == nil {
		return res, nil
	}

	// A reuse violation - seen either by the in-transaction check or by
	// losing the race at insert time - is a policy rejection.
	if reason, ok := conflictReason(err, code.IsUnique); ok {
		return r.reject(ctx, user, code.ID, token, reason, now)
	}
	return Result{}, err
}

// accept runs the reuse check and the full write path in one
// serialized storage transaction.
func (r *Redeemer) accept(ctx context.Context, user points.UserID, code *Code, token string, now time.Time) (Result, error) {
	var res Result

	err := r.store.WithTx(ctx, func(tx Tx) error {
		if code.IsUnique {
			claimed, err := tx.HasAcceptedScan(ctx, code.ID)
			if err != nil {
				return err
			}
			if claimed {
				return ErrClaimConflict
			}
		} else {
			recent, err := tx.HasAcceptedScanSince(ctx, user, code.ID, now.Add(-r.cooldown))
			if err != nil {
				return err
			}
			if recent {
				return ErrCooldownConflict
			}
		}

		ev := ScanEvent{
			ID:        NewScanID(),
			UserID:    user,
			CodeID:    code.ID,
			Submitted: token,
			Outcome:   OutcomeAccepted,
			ScannedAt: now,
		}
		if err := tx.InsertScan(ctx, ev, code.IsUnique); err != nil {
			return err
		}

		entry := points.LedgerEntry{
			ID:          points.NewEntryID(),
			UserID:      user,
			Source:      points.SourceScan,
			ReferenceID: ev.ID,
			Delta:       code.Value,
			Reason:      scanReason(code),
			CreatedAt:   now,
		}
		if err := tx.AppendEntry(ctx, entry); err != nil {
			return err
		}

		balance, err := tx.WalletBalance(ctx, user)
		if err != nil {
			return err
		}

		res = Result{
			Outcome:       OutcomeAccepted,
			PointsAwarded: code.Value,
			NewBalance:    balance,
			ScanID:        ev.ID,
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// reject records the attempt for audit and returns the rejection as a
// normal result. The rejected scan event is written outside any accept
// transaction; if even that write fails, the failure surfaces as a
// storage error.
func (r *Redeemer) reject(ctx context.Context, user points.UserID, codeID uuid.UUID, token string, reason RejectReason, now time.Time) (Result, error) {
	ev := ScanEvent{
		ID:           NewScanID(),
		UserID:       user,
		CodeID:       codeID,
		Submitted:    token,
		Outcome:      OutcomeRejected,
		RejectReason: reason,
		ScannedAt:    now,
	}
	if err := r.store.RecordScan(ctx, ev); err != nil {
		return Result{}, err
	}
	return Result{Outcome: OutcomeRejected, Reason: reason, ScanID: ev.ID}, nil
}

// conflictReason maps storage-level reuse conflicts to the rejection
// the caller should see.
func conflictReason(err error, singleUse bool) (RejectReason, bool) {
	switch {
	case errors.Is(err, ErrClaimConflict):
		return ReasonAlreadyClaimed, true
	case errors.Is(err, ErrCooldownConflict):
		return ReasonCooldownActive, true
	case errors.Is(err, points.ErrConcurrentConflict):
		if singleUse {
			return ReasonAlreadyClaimed, true
		}
		return ReasonCooldownActive, true
	}
	return "", false
}

func scanReason(code *Code) string {
	if code.Label != "" {
		return fmt.Sprintf("QR code scan: %s", code.Label)
	}
	return fmt.Sprintf("QR code scan: %s", code.Token)
}

// NewScanID returns a lexically sortable unique scan event ID.
func NewScanID() string {
	return "scan_" + strings.ToLower(ulid.Make().String())
}
