/*
Package vesting implements the core token vesting domain model.

PURPOSE:
  This package contains the ledger-agnostic schedule state machine and
  distribution algorithm. A Schedule grants a fixed pool of tokens to a
  fixed set of recipients over a time-based unlock curve (TGE unlock +
  cliff + linear vesting). The package knows nothing about any concrete
  ledger: adapters in ledger/* handle byte layouts, account derivation
  and transfer submission.

KEY CONCEPTS IN THIS FILE (types.go):
  - Address: 32-byte identity, rendered base58
  - Fraction: fixed-point fraction in basis points (denominator 10,000)
  - Recipient: fixed share + cumulative claimed counter
  - Schedule: the aggregate (state, parameters, recipient ledger)

DESIGN PRINCIPLES:
  1. Integer money: all amounts are uint64 base units, all division floors,
     rounding always favors the pool
  2. Immutability after funding: no revoke, no pause, no parameter edits
  3. Snapshot discipline: every operation recomputes from committed state

SEE ALSO:
  - curve.go: unlock fraction computation
  - schedule.go: state machine transitions (Configure, Fund)
  - distribute.go: two-phase distribution algorithm
  - codec.go: canonical account and instruction byte layouts
*/
package vesting

import (
	"github.com/mr-tron/base58"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// Denominator is the fixed-point denominator for all fractions
	// (basis points: 10,000 = 100%).
	Denominator = 10_000

	// MaxRecipients bounds the recipient ledger size.
	MaxRecipients = 10

	// MaxVestingDuration caps the total vesting period (1 year).
	MaxVestingDuration int64 = 365 * 24 * 60 * 60

	// MaxCliffDuration caps the cliff (90 days).
	MaxCliffDuration int64 = 90 * 24 * 60 * 60

	// DistributionCooldown is the minimum interval between successive
	// payout operations on the same schedule, in seconds.
	DistributionCooldown int64 = 60
)

// =============================================================================
// ADDRESS - 32-byte identity
// =============================================================================

// Address is a ledger identity: a wallet, a token mint, or a derived
// sub-account. Fixed 32 bytes on every supported ledger.
type Address [32]byte

// ScheduleID identifies a schedule. It is itself a derived address.
type ScheduleID = Address

// AddressFromBytes copies b into an Address. Returns false if the length
// is not exactly 32.
func AddressFromBytes(b []byte) (Address, bool) {
	var a Address
	if len(b) != len(a) {
		return Address{}, false
	}
	copy(a[:], b)
	return a, true
}

// ParseAddress decodes a base58-encoded 32-byte address.
func ParseAddress(s string) (Address, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return Address{}, &AddressError{Input: s, Reason: "not base58"}
	}
	a, ok := AddressFromBytes(b)
	if !ok {
		return Address{}, &AddressError{Input: s, Reason: "not 32 bytes"}
	}
	return a, nil
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) String() string {
	return base58.Encode(a[:])
}

// =============================================================================
// FRACTION - basis points
// =============================================================================

// Fraction is a fixed-point fraction: numerator over Denominator.
// Valid range is [0, Denominator].
type Fraction uint16

func (f Fraction) Valid() bool {
	return f <= Denominator
}

// =============================================================================
// SCHEDULE STATE
// =============================================================================

// State is the schedule lifecycle state. Active is terminal: funding
// finalizes the schedule and no transition ever leaves Active.
type State uint8

const (
	StateUninitialized State = iota
	StateConfigured
	StateActive
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfigured:
		return "configured"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// ClaimPolicy selects which payout entry point a schedule honors.
// Exactly one policy is fixed at configuration time; the two variants are
// never combined on a single schedule.
type ClaimPolicy uint8

const (
	// PolicyAdministrator: only the administrator may trigger pool-wide
	// distribution. Recipients cannot claim individually.
	PolicyAdministrator ClaimPolicy = iota

	// PolicySelfServe: each recipient claims their own vested share.
	// Pool-wide distribution is rejected.
	PolicySelfServe
)

func (p ClaimPolicy) String() string {
	switch p {
	case PolicyAdministrator:
		return "administrator"
	case PolicySelfServe:
		return "self-serve"
	default:
		return "unknown"
	}
}

// =============================================================================
// RECIPIENT LEDGER
// =============================================================================

// Recipient is one entry in a schedule's recipient ledger. Wallet and
// ShareBps are fixed at configuration; Claimed and LastClaimTime only
// ever advance.
type Recipient struct {
	Wallet        Address
	ShareBps      Fraction
	Claimed       uint64
	LastClaimTime int64
}

// RecipientShare is the configuration-time view of a recipient.
type RecipientShare struct {
	Wallet   Address
	ShareBps Fraction
}

// =============================================================================
// SCHEDULE - the aggregate
// =============================================================================

// Schedule is the vesting account: lifecycle state, immutable parameters
// and the mutable per-recipient accounting.
type Schedule struct {
	State  State
	Policy ClaimPolicy

	Administrator Address
	Asset         Address
	Vault         Address

	// StartTime is 0 until funding, then the funding timestamp. It is the
	// single-funding sentinel: a non-zero StartTime means Active.
	StartTime   int64
	TotalAmount uint64

	// TotalClaimed is monotonically non-decreasing and always equals the
	// sum of per-recipient Claimed counters.
	TotalClaimed uint64

	CliffSeconds   int64
	VestingSeconds int64
	TGEBps         Fraction

	// LastDistributionTime enforces the pool-level cooldown. 0 until the
	// first distribution.
	LastDistributionTime int64

	Recipients []Recipient
}

// Config is the input to Configure.
type Config struct {
	Administrator  Address
	Asset          Address
	CliffSeconds   int64
	VestingSeconds int64
	TGEBps         Fraction
	Policy         ClaimPolicy
	Recipients     []RecipientShare
}

// ID returns the schedule's derived identity.
func (s *Schedule) ID() ScheduleID {
	return ScheduleIDFor(s.Administrator)
}

// Clone returns a deep copy. Callers hand out clones so that a snapshot
// can never alias committed state.
func (s *Schedule) Clone() *Schedule {
	cp := *s
	cp.Recipients = make([]Recipient, len(s.Recipients))
	copy(cp.Recipients, s.Recipients)
	return &cp
}

// =============================================================================
// RESULTS
// =============================================================================

// RecipientPayout records one executed transfer within a distribution.
type RecipientPayout struct {
	Wallet Address
	Amount uint64
}

// DistributionResult is the outcome of a pool-wide distribution.
type DistributionResult struct {
	Transferred  uint64
	PerRecipient []RecipientPayout
}

// ClaimResult is the outcome of a single self-serve claim.
type ClaimResult struct {
	Wallet      Address
	Transferred uint64
}

// =============================================================================
// ROLES
// =============================================================================

// Role classifies a caller relative to a schedule.
type Role uint8

const (
	RoleNone Role = iota
	RoleAdministrator
	RoleRecipient
)

func (r Role) String() string {
	switch r {
	case RoleAdministrator:
		return "administrator"
	case RoleRecipient:
		return "recipient"
	default:
		return "none"
	}
}

// CallerRole returns the caller's role and, for recipients, the index
// into the recipient ledger.
func (s *Schedule) CallerRole(caller Address) (Role, int) {
	if caller == s.Administrator {
		return RoleAdministrator, -1
	}
	for i := range s.Recipients {
		if s.Recipients[i].Wallet == caller {
			return RoleRecipient, i
		}
	}
	return RoleNone, -1
}
