/*
Package oracle is the off-chain permission oracle: a read-side
projection of schedule state consumed by the claim-request router.

PURPOSE:
  Answers two questions without ever mutating state:

  - who is this caller on this schedule (administrator, recipient, none),
    and what may that role do under the schedule's claim policy
  - how much is claimable right now, pool-wide or for one wallet

  Every answer is a snapshot. Claimability reported here can be stale by
  the time a claim executes, so the oracle never pre-blocks a claim and
  callers must treat the ledger's own rejection as authoritative.

  The oracle also owns the error boundary: internal error text never
  crosses it. SafeMessage maps the domain taxonomy onto a small fixed
  message set for transport layers to forward.

SEE ALSO:
  - vesting/distribute.go: the read-side queries this projects
  - api/: the transport consuming SafeMessage
*/
package oracle

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/warp/vesting-engine/ledger"
	"github.com/warp/vesting-engine/vesting"
)

// RoleInfo describes what one caller is and may do on one schedule.
type RoleInfo struct {
	Role vesting.Role

	// RecipientIndex is the caller's position in the recipient ledger,
	// or -1 for non-recipients.
	RecipientIndex int

	// ShareBps is the caller's share, zero for non-recipients.
	ShareBps vesting.Fraction

	// CanDistribute and CanClaim reflect the schedule's claim policy
	// applied to the role, not current claimability.
	CanDistribute bool
	CanClaim      bool
}

// RecipientClaimable is one row of a pool-wide claimable view.
type RecipientClaimable struct {
	Wallet vesting.Address
	Amount uint64
}

// ClaimableView is a snapshot of what a distribution would pay now.
type ClaimableView struct {
	Schedule    vesting.ScheduleID
	AsOf        int64
	State       vesting.State
	UnlockedBps vesting.Fraction
	Total       uint64
	Recipients  []RecipientClaimable
}

// Oracle reads schedules through a ledger.Reader and projects
// permissions and claimable amounts.
type Oracle struct {
	reader ledger.Reader
	clock  clockwork.Clock
	log    *slog.Logger
}

// Option configures the oracle.
type Option func(*Oracle)

// WithClock injects a clock (tests pass a fake).
func WithClock(c clockwork.Clock) Option {
	return func(o *Oracle) { o.clock = c }
}

// WithLogger injects a logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *Oracle) { o.log = log }
}

// New creates an oracle over a ledger reader.
func New(reader ledger.Reader, opts ...Option) *Oracle {
	o := &Oracle{
		reader: reader,
		clock:  clockwork.NewRealClock(),
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.With("component", "oracle")
	return o
}

// VerifyCallerRole resolves a caller's role and policy-level rights on
// a schedule.
func (o *Oracle) VerifyCallerRole(ctx context.Context, id vesting.ScheduleID, caller vesting.Address) (*RoleInfo, error) {
	s, err := o.reader.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}

	role, idx := s.CallerRole(caller)
	info := &RoleInfo{Role: role, RecipientIndex: idx}
	switch role {
	case vesting.RoleAdministrator:
		info.CanDistribute = s.Policy == vesting.PolicyAdministrator
	case vesting.RoleRecipient:
		info.ShareBps = s.Recipients[idx].ShareBps
		info.CanClaim = s.Policy == vesting.PolicySelfServe
	}

	o.log.Debug("role verified",
		"schedule", id.String(),
		"caller", caller.String(),
		"role", role.String())
	return info, nil
}

// Claimable reports the pool-wide claimable snapshot at the oracle's
// current clock time.
func (o *Oracle) Claimable(ctx context.Context, id vesting.ScheduleID) (*ClaimableView, error) {
	s, err := o.reader.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}

	now := o.clock.Now().Unix()
	view := &ClaimableView{
		Schedule: id,
		AsOf:     now,
		State:    s.State,
	}
	if s.State != vesting.StateActive {
		// Nothing unlocks before funding; an empty view is still useful
		// to a dashboard.
		view.Recipients = make([]RecipientClaimable, 0, len(s.Recipients))
		for _, r := range s.Recipients {
			view.Recipients = append(view.Recipients, RecipientClaimable{Wallet: r.Wallet})
		}
		return view, nil
	}

	total, per, err := s.ClaimableAt(now)
	if err != nil {
		return nil, err
	}
	view.UnlockedBps = vesting.UnlockedBps(now-s.StartTime, s.CliffSeconds, s.VestingSeconds, s.TGEBps)
	view.Total = total
	view.Recipients = make([]RecipientClaimable, len(per))
	for i, p := range per {
		view.Recipients[i] = RecipientClaimable{Wallet: p.Wallet, Amount: p.Amount}
	}
	return view, nil
}

// ClaimableFor reports one wallet's claimable amount at the oracle's
// current clock time. Wallets outside the recipient ledger read zero.
func (o *Oracle) ClaimableFor(ctx context.Context, id vesting.ScheduleID, wallet vesting.Address) (uint64, error) {
	s, err := o.reader.GetSchedule(ctx, id)
	if err != nil {
		return 0, err
	}
	if s.State != vesting.StateActive {
		return 0, nil
	}
	return s.ClaimableForAt(o.clock.Now().Unix(), wallet)
}

// =============================================================================
// SAFE MESSAGES
// =============================================================================

// SafeMessage maps a domain error onto the fixed message set exposed to
// callers. Raw error text never crosses this boundary: anything outside
// the taxonomy collapses to a generic message.
func SafeMessage(err error) string {
	switch {
	case errors.Is(err, vesting.ErrInvalidConfiguration):
		return "invalid schedule configuration"
	case errors.Is(err, vesting.ErrAlreadyConfigured):
		return "schedule already exists"
	case errors.Is(err, vesting.ErrAlreadyFunded):
		return "schedule already funded"
	case errors.Is(err, vesting.ErrNotFunded):
		return "schedule not funded"
	case errors.Is(err, vesting.ErrInvalidAmount):
		return "invalid amount"
	case errors.Is(err, vesting.ErrNothingToClaim):
		return "nothing to claim"
	case errors.Is(err, vesting.ErrUnauthorized):
		return "caller not authorized"
	case errors.Is(err, vesting.ErrCooldownActive):
		return "cooldown active"
	case errors.Is(err, vesting.ErrDestinationMismatch):
		return "destination accounts do not match"
	case errors.Is(err, vesting.ErrUnknownSchedule):
		return "schedule not found"
	case errors.Is(err, vesting.ErrArithmeticOverflow),
		errors.Is(err, vesting.ErrInvariantViolation),
		errors.Is(err, vesting.ErrBadAccountData):
		return "schedule state rejected"
	default:
		return "internal error"
	}
}
