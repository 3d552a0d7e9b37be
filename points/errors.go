/*
errors.go - Centralized error types for the points engine

PURPOSE:
  All engine-level errors in one place. Domain packages (redeem, api)
  wrap or remap these with their own context.

ERROR CATEGORIES:
  1. Ledger errors - duplicate references, failed appends
  2. Store errors  - conflicts and storage-level failures

USAGE:
  Storage implementations remap low-level constraint violations:

    if errors.Is(err, points.ErrDuplicateReference) {
        // entry for this (source, reference) already exists
    }
*/
package points

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateReference is returned when a ledger entry with the same
	// (source, reference) pair already exists. Retries of the same
	// originating event hit this instead of double-crediting.
	ErrDuplicateReference = errors.New("duplicate ledger reference")

	// ErrEntryFailed is returned when an entry cannot be persisted.
	ErrEntryFailed = errors.New("ledger entry failed")

	// ErrConcurrentConflict is returned when a concurrent writer won a
	// storage-level race (unique constraint, serialization failure).
	ErrConcurrentConflict = errors.New("concurrent conflict")

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")
)

// DriftError reports a mismatch between the cached wallet balance and
// the balance recomputed from the ledger. It should never occur; its
// presence indicates a write that bypassed the atomic apply path.
type DriftError struct {
	UserID     UserID
	Cached     Points
	Recomputed Points
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("wallet drift for %s: cached %s, ledger sum %s",
		e.UserID, e.Cached, e.Recomputed)
}

// IsRetryable returns true if the error might succeed on retry. The
// accept path is atomic, so a retried request never observes partial
// state from a failed attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentConflict)
}
