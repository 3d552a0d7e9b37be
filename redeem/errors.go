/*
errors.go - Error types for redemption

PURPOSE:
  Separates the three failure classes the redemption function can hit:

  1. ValidationError   - malformed input, no audit record, HTTP 400
  2. Policy rejections - normal business outcomes; NOT errors. They are
     returned as a rejected Result and recorded as scan events.
  3. Storage conflicts - a losing concurrent writer. Remapped to the
     matching policy rejection, never leaked as a raw storage error.

USAGE:
  Storage implementations return ErrClaimConflict when the single-use
  partial unique index fires; Redeem converts it to ReasonAlreadyClaimed.
*/
package redeem

import "errors"

var (
	// ErrEmptyCode is returned for empty or whitespace-only input.
	// No scan event is recorded; the caller sees a 400.
	ErrEmptyCode = errors.New("empty code")

	// ErrClaimConflict is returned by storage when an insert of an
	// accepted scan loses the single-use uniqueness race.
	ErrClaimConflict = errors.New("code claim conflict")

	// ErrCooldownConflict is returned by storage when a concurrent
	// writer beat this request inside the per-user cooldown window.
	ErrCooldownConflict = errors.New("cooldown conflict")

	// ErrDuplicateToken is returned when creating a code whose token
	// already exists in the registry.
	ErrDuplicateToken = errors.New("duplicate code token")
)
