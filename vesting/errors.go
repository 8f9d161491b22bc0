/*
errors.go - Centralized error taxonomy for the vesting core

PURPOSE:
  Every failure mode of the state machine and distribution algorithm maps
  to exactly one sentinel here. All are terminal for the call that raised
  them: nothing in this package retries, and a failed call never commits
  partial state.

CATEGORIES:
  1. Configuration errors - rejected before any state write
  2. Lifecycle errors     - wrong state for the requested transition
  3. Authorization errors - caller identity does not match
  4. Arithmetic errors    - overflow or detected impossible state

USAGE:
  Callers classify with errors.Is:

    if errors.Is(err, vesting.ErrCooldownActive) { ... }

  The off-chain oracle translates these into a small stable set of safe
  messages; raw error text never crosses the API boundary.
*/
package vesting

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidConfiguration is returned by Configure for any invalid
	// recipient set, share split or duration. Always raised before any
	// state is written.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrAlreadyConfigured is returned when Configure targets a schedule
	// identity that already exists. Re-configuration requires a fresh
	// identity; it is rejected, never silently ignored.
	ErrAlreadyConfigured = errors.New("schedule already configured")

	// ErrAlreadyFunded is returned by Fund when StartTime is already set.
	// A schedule is funded exactly once.
	ErrAlreadyFunded = errors.New("schedule already funded")

	// ErrNotFunded is returned by payout operations before funding.
	ErrNotFunded = errors.New("schedule not funded")

	// ErrInvalidAmount is returned by Fund for a zero deposit.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNothingToClaim is returned when the computed claimable amount is
	// zero. Not a state mutation.
	ErrNothingToClaim = errors.New("nothing to claim")

	// ErrUnauthorized is returned when the caller identity does not match
	// the identity pinned for the requested operation.
	ErrUnauthorized = errors.New("unauthorized caller")

	// ErrCooldownActive is returned when a payout is attempted within the
	// cooldown window of the previous one.
	ErrCooldownActive = errors.New("distribution cooldown active")

	// ErrArithmeticOverflow is returned when money math would wrap.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")

	// ErrDestinationMismatch is returned when a caller-supplied payout
	// destination list does not match the derived destinations, in count
	// or identity.
	ErrDestinationMismatch = errors.New("payout destination mismatch")

	// ErrInvariantViolation is returned when committed state is detected
	// to be impossible (e.g. claimed exceeds allocation). The call halts
	// rather than move money on corrupt state.
	ErrInvariantViolation = errors.New("arithmetic invariant violation")

	// ErrUnknownSchedule is returned by adapters for an id with no account.
	ErrUnknownSchedule = errors.New("unknown schedule")

	// ErrBadAccountData is returned when persisted account bytes cannot
	// be decoded.
	ErrBadAccountData = errors.New("bad account data")

	// ErrBadInstruction is returned when instruction bytes cannot be
	// decoded.
	ErrBadInstruction = errors.New("bad instruction data")
)

// =============================================================================
// STRUCTURED ERRORS - carry context, unwrap to sentinels
// =============================================================================

// ConfigError reports which configuration rule was violated.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfiguration }

// CooldownError reports how long until the next payout is permitted.
type CooldownError struct {
	RemainingSeconds int64
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("distribution cooldown active: %ds remaining", e.RemainingSeconds)
}

func (e *CooldownError) Unwrap() error { return ErrCooldownActive }

// AddressError reports an unparseable address.
type AddressError struct {
	Input  string
	Reason string
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("invalid address %q: %s", e.Input, e.Reason)
}

// InvariantError pinpoints which invariant broke, for operators. The
// oracle never forwards this text.
type InvariantError struct {
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("arithmetic invariant violation: %s", e.Detail)
}

func (e *InvariantError) Unwrap() error { return ErrInvariantViolation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid or premature
// caller input rather than an internal fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrAlreadyConfigured) ||
		errors.Is(err, ErrAlreadyFunded) ||
		errors.Is(err, ErrNotFunded) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrNothingToClaim) ||
		errors.Is(err, ErrCooldownActive) ||
		errors.Is(err, ErrDestinationMismatch)
}

// IsAuthError returns true for caller-identity failures.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsNotFound returns true if the error indicates a missing schedule.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownSchedule)
}
