/*
distribute.go - Two-phase distribution algorithm

PURPOSE:
  Computes, at call time, the claimable amount for the whole pool or for
  one recipient, and produces the exact set of transfer instructions.

  The algorithm is split into two explicit phases so partial application
  is impossible even without a host transaction boundary:

    Plan   pure computation from one snapshot of committed state -
           unlocked fraction, per-recipient claimable, derived payout
           destinations. No mutation.
    Apply  advances the per-recipient counters and cooldown stamps from
           that same Plan. Either every planned recipient is updated or
           none are.

  The timestamp is read once, into Plan.Now; state mutation and transfer
  construction both flow from that single snapshot.

AUTHORIZATION & ANTI-ABUSE:
  - Pool distribution requires the pinned administrator identity and is
    throttled by the schedule-level cooldown.
  - Self-serve claims require the recipient's own wallet and are
    throttled by a per-recipient cooldown of the same window.
  - Payout destinations are derived, never trusted: a caller-supplied
    destination list that deviates in count or identity is rejected.
*/
package vesting

// PlanKind distinguishes pool distribution from a single claim.
type PlanKind uint8

const (
	PlanDistribute PlanKind = iota
	PlanClaim
)

// PlannedTransfer is one pending payout within a Plan.
type PlannedTransfer struct {
	RecipientIndex int
	Wallet         Address
	Destination    Address
	Amount         uint64
}

// Plan is the computed, not-yet-applied outcome of a payout operation.
// All fields derive from a single read of committed state at Now.
type Plan struct {
	Kind        PlanKind
	Now         int64
	UnlockedBps Fraction
	Source      Address // vault
	Authority   Address // vault transfer authority
	Transfers   []PlannedTransfer
	Total       uint64
}

// DestinationDeriver maps a recipient wallet and asset to the verified
// ledger-native holding account tokens must be paid into. Adapters
// substitute their native derivation (e.g. associated token accounts).
type DestinationDeriver func(wallet, asset Address) Address

// =============================================================================
// PLAN - pure computation
// =============================================================================

// PlanDistribution computes a pool-wide payout on behalf of caller at
// timestamp now. Requires the administrator-distributes policy, the
// pinned administrator identity, a funded schedule, and an expired
// cooldown. Returns ErrNothingToClaim when no recipient has a positive
// claimable amount.
func (s *Schedule) PlanDistribution(now int64, caller Address, derive DestinationDeriver) (*Plan, error) {
	if s.StartTime == 0 {
		return nil, ErrNotFunded
	}
	if s.Policy != PolicyAdministrator {
		return nil, ErrUnauthorized
	}
	if caller != s.Administrator {
		return nil, ErrUnauthorized
	}
	if err := cooldownRemaining(now, s.LastDistributionTime); err != nil {
		return nil, err
	}
	if err := s.checkInvariants(); err != nil {
		return nil, err
	}

	plan := s.newPlan(PlanDistribute, now)
	if derive == nil {
		derive = HoldingAccountFor
	}
	for i := range s.Recipients {
		amount, err := s.claimableAt(i, plan.UnlockedBps)
		if err != nil {
			return nil, err
		}
		if amount == 0 {
			continue
		}
		plan.Transfers = append(plan.Transfers, PlannedTransfer{
			RecipientIndex: i,
			Wallet:         s.Recipients[i].Wallet,
			Destination:    derive(s.Recipients[i].Wallet, s.Asset),
			Amount:         amount,
		})
		plan.Total, err = checkedAdd(plan.Total, amount)
		if err != nil {
			return nil, err
		}
	}
	if plan.Total == 0 {
		return nil, ErrNothingToClaim
	}
	return plan, nil
}

// PlanSelfClaim computes a single-recipient payout under the self-serve
// policy. The caller must be the recipient wallet itself; the cooldown is
// enforced against that recipient's own last claim time.
func (s *Schedule) PlanSelfClaim(now int64, caller Address, derive DestinationDeriver) (*Plan, error) {
	if s.StartTime == 0 {
		return nil, ErrNotFunded
	}
	if s.Policy != PolicySelfServe {
		return nil, ErrUnauthorized
	}
	role, idx := s.CallerRole(caller)
	if role != RoleRecipient {
		return nil, ErrUnauthorized
	}
	if err := cooldownRemaining(now, s.Recipients[idx].LastClaimTime); err != nil {
		return nil, err
	}
	if err := s.checkInvariants(); err != nil {
		return nil, err
	}

	plan := s.newPlan(PlanClaim, now)
	if derive == nil {
		derive = HoldingAccountFor
	}
	amount, err := s.claimableAt(idx, plan.UnlockedBps)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, ErrNothingToClaim
	}
	plan.Transfers = []PlannedTransfer{{
		RecipientIndex: idx,
		Wallet:         caller,
		Destination:    derive(caller, s.Asset),
		Amount:         amount,
	}}
	plan.Total = amount
	return plan, nil
}

func (s *Schedule) newPlan(kind PlanKind, now int64) *Plan {
	id := s.ID()
	return &Plan{
		Kind:        kind,
		Now:         now,
		UnlockedBps: UnlockedBps(now-s.StartTime, s.CliffSeconds, s.VestingSeconds, s.TGEBps),
		Source:      s.Vault,
		Authority:   AuthorityFor(id),
	}
}

// claimableAt returns recipient i's claimable amount given the pool
// unlocked fraction: floor(allocation * unlocked / Denominator) minus the
// already-claimed counter. Never negative: Claimed only ever advances to
// a previously computed vested amount and the unlock curve is monotonic.
func (s *Schedule) claimableAt(i int, unlocked Fraction) (uint64, error) {
	alloc, err := s.Allocation(i)
	if err != nil {
		return 0, err
	}
	vested, err := mulDivFloor(alloc, uint64(unlocked), Denominator)
	if err != nil {
		return 0, err
	}
	return checkedSub(vested, s.Recipients[i].Claimed)
}

func cooldownRemaining(now, last int64) error {
	if last == 0 {
		return nil
	}
	if since := now - last; since < DistributionCooldown {
		return &CooldownError{RemainingSeconds: DistributionCooldown - since}
	}
	return nil
}

// =============================================================================
// DESTINATION VERIFICATION
// =============================================================================

// ValidateDestinations checks a caller-supplied destination list against
// the plan's derived destinations. A nil list means "use the derived
// destinations" and is always valid; anything else must match exactly in
// count and identity. This blocks redirecting funds via substituted
// destination accounts.
func (p *Plan) ValidateDestinations(supplied []Address) error {
	if supplied == nil {
		return nil
	}
	if len(supplied) != len(p.Transfers) {
		return ErrDestinationMismatch
	}
	for i, t := range p.Transfers {
		if supplied[i] != t.Destination {
			return ErrDestinationMismatch
		}
	}
	return nil
}

// =============================================================================
// APPLY - commit the plan
// =============================================================================

// Apply advances per-recipient claimed counters, the total, and the
// cooldown stamps according to the plan. It mutates nothing on error.
// The adapter must execute the plan's transfers atomically with the
// state produced here.
func (s *Schedule) Apply(p *Plan) error {
	// Stage against copies so a late overflow commits nothing.
	claimed := make([]uint64, len(p.Transfers))
	totalClaimed := s.TotalClaimed
	for i, t := range p.Transfers {
		alloc, err := s.Allocation(t.RecipientIndex)
		if err != nil {
			return err
		}
		next, err := checkedAdd(s.Recipients[t.RecipientIndex].Claimed, t.Amount)
		if err != nil {
			return err
		}
		if next > alloc {
			return &InvariantError{Detail: "payout would exceed allocation"}
		}
		claimed[i] = next
		totalClaimed, err = checkedAdd(totalClaimed, t.Amount)
		if err != nil {
			return err
		}
	}
	if totalClaimed > s.TotalAmount {
		return &InvariantError{Detail: "payout would exceed total amount"}
	}

	for i, t := range p.Transfers {
		s.Recipients[t.RecipientIndex].Claimed = claimed[i]
		s.Recipients[t.RecipientIndex].LastClaimTime = p.Now
	}
	s.TotalClaimed = totalClaimed
	if p.Kind == PlanDistribute {
		s.LastDistributionTime = p.Now
	}
	return nil
}

// Result converts an applied plan into the caller-facing summary.
func (p *Plan) Result() *DistributionResult {
	res := &DistributionResult{Transferred: p.Total}
	for _, t := range p.Transfers {
		res.PerRecipient = append(res.PerRecipient, RecipientPayout{Wallet: t.Wallet, Amount: t.Amount})
	}
	return res
}

// =============================================================================
// READ-SIDE CLAIMABLE QUERIES
// =============================================================================

// ClaimableAt reports the pool-level claimable amount and the per-recipient
// breakdown at timestamp now, without authorization or cooldown checks.
// This is the read-side query consumed by the permission oracle; it is a
// snapshot and may be stale by the time a dependent claim executes.
func (s *Schedule) ClaimableAt(now int64) (uint64, []RecipientPayout, error) {
	if s.StartTime == 0 {
		return 0, nil, ErrNotFunded
	}
	if err := s.checkInvariants(); err != nil {
		return 0, nil, err
	}
	unlocked := UnlockedBps(now-s.StartTime, s.CliffSeconds, s.VestingSeconds, s.TGEBps)

	var total uint64
	per := make([]RecipientPayout, len(s.Recipients))
	for i := range s.Recipients {
		amount, err := s.claimableAt(i, unlocked)
		if err != nil {
			return 0, nil, err
		}
		per[i] = RecipientPayout{Wallet: s.Recipients[i].Wallet, Amount: amount}
		total, err = checkedAdd(total, amount)
		if err != nil {
			return 0, nil, err
		}
	}
	return total, per, nil
}

// ClaimableForAt reports one wallet's claimable amount at timestamp now.
// Unknown wallets claim zero.
func (s *Schedule) ClaimableForAt(now int64, wallet Address) (uint64, error) {
	role, idx := s.CallerRole(wallet)
	if role != RoleRecipient {
		return 0, nil
	}
	if s.StartTime == 0 {
		return 0, ErrNotFunded
	}
	if err := s.checkInvariants(); err != nil {
		return 0, err
	}
	unlocked := UnlockedBps(now-s.StartTime, s.CliffSeconds, s.VestingSeconds, s.TGEBps)
	return s.claimableAt(idx, unlocked)
}
