/*
Package ledger defines the adapter boundary between the vesting core and
concrete ledgers.

PURPOSE:
  The domain model in vesting/ is ledger-agnostic: it computes plans and
  validates transitions but never moves a token. Adapters implement this
  package's interfaces for a concrete target:

    ledger/memory: an in-process ledger with real token accounting, used
                   by the coordinator in development and by tests
    ledger/solana: reads schedule accounts from a deployed Solana program
                   and constructs its native instructions

  Each ledger serializes writes per account itself; the interfaces here
  assume every call observes committed state and commits atomically or
  not at all.

SEE ALSO:
  - vesting/distribute.go: the plan/apply split adapters must preserve
  - oracle/: read-side consumer of Reader
*/
package ledger

import (
	"context"

	"github.com/warp/vesting-engine/vesting"
)

// Reader is the read-side view of a ledger. Results are snapshots: they
// can be stale by the time a dependent claim executes, and consumers must
// surface the ledger's authoritative rejection rather than pre-validate.
type Reader interface {
	// GetSchedule returns a snapshot of the schedule account, or
	// vesting.ErrUnknownSchedule.
	GetSchedule(ctx context.Context, id vesting.ScheduleID) (*vesting.Schedule, error)
}

// Ledger is a fully writable ledger: it can execute the whole
// configure -> fund -> distribute/claim lifecycle. Read-only adapters
// (e.g. an RPC view of an on-chain program) implement only Reader.
type Ledger interface {
	Reader

	// Configure creates a schedule for cfg.Administrator. Fails with
	// vesting.ErrAlreadyConfigured if the derived identity already has an
	// account.
	Configure(ctx context.Context, cfg vesting.Config) (vesting.ScheduleID, error)

	// Fund deposits the one-time total from the funder's holding account
	// into the schedule vault, atomically with the state transition.
	Fund(ctx context.Context, id vesting.ScheduleID, funder vesting.Address, amount uint64) error

	// Distribute executes a pool-wide payout on the caller's behalf.
	// destinations is optional: nil means the derived holding accounts;
	// a non-nil list must match them exactly.
	Distribute(ctx context.Context, id vesting.ScheduleID, caller vesting.Address, destinations []vesting.Address) (*vesting.DistributionResult, error)

	// Claim executes a single self-serve claim for the calling recipient.
	Claim(ctx context.Context, id vesting.ScheduleID, caller vesting.Address) (*vesting.ClaimResult, error)
}
