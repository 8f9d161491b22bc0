/*
schedule.go - Vesting account state machine

PURPOSE:
  Implements the two lifecycle transitions:

    Configure (Uninitialized -> Configured)
      Validates the full recipient set, share split and time parameters,
      then allocates a zero-initialized recipient ledger. Any violation
      is rejected before state exists.

    Fund (Configured -> Active)
      Accepts the total deposit exactly once, stamps StartTime, and
      permanently finalizes the schedule. Active is terminal.

  Payout transitions (distribute/claim) never change State; they live in
  distribute.go.

CRITICAL INVARIANTS:
  1. Shares are each > 0 and sum to exactly Denominator
  2. 0 <= cliff < vesting <= MaxVestingDuration, cliff <= MaxCliffDuration
  3. TotalAmount is set exactly once and never reduced
  4. No revoke, pause or emergency-withdraw transition exists - the
     immutability after funding is a stated security property
*/
package vesting

// =============================================================================
// CONFIGURE - Uninitialized -> Configured
// =============================================================================

// Configure validates cfg and returns a Configured schedule with a
// zero-initialized recipient ledger. It is the only constructor; a
// Schedule built any other way is not a valid aggregate.
//
// Callers (ledger adapters) are responsible for rejecting a Configure
// against an identity that already has an account with ErrAlreadyConfigured.
func Configure(cfg Config) (*Schedule, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	id := ScheduleIDFor(cfg.Administrator)
	s := &Schedule{
		State:          StateConfigured,
		Policy:         cfg.Policy,
		Administrator:  cfg.Administrator,
		Asset:          cfg.Asset,
		Vault:          VaultFor(id),
		CliffSeconds:   cfg.CliffSeconds,
		VestingSeconds: cfg.VestingSeconds,
		TGEBps:         cfg.TGEBps,
		Recipients:     make([]Recipient, len(cfg.Recipients)),
	}
	for i, r := range cfg.Recipients {
		s.Recipients[i] = Recipient{Wallet: r.Wallet, ShareBps: r.ShareBps}
	}
	return s, nil
}

func validateConfig(cfg Config) error {
	if cfg.Administrator.IsZero() {
		return &ConfigError{Field: "administrator", Reason: "zero address"}
	}
	if cfg.Asset.IsZero() {
		return &ConfigError{Field: "asset", Reason: "zero address"}
	}
	if cfg.Policy != PolicyAdministrator && cfg.Policy != PolicySelfServe {
		return &ConfigError{Field: "policy", Reason: "unknown claim policy"}
	}

	if cfg.CliffSeconds < 0 {
		return &ConfigError{Field: "cliff", Reason: "negative duration"}
	}
	if cfg.CliffSeconds > MaxCliffDuration {
		return &ConfigError{Field: "cliff", Reason: "exceeds maximum cliff duration"}
	}
	if cfg.VestingSeconds > MaxVestingDuration {
		return &ConfigError{Field: "vesting", Reason: "exceeds maximum vesting duration"}
	}
	if cfg.CliffSeconds >= cfg.VestingSeconds {
		return &ConfigError{Field: "cliff", Reason: "cliff must be shorter than vesting"}
	}
	if !cfg.TGEBps.Valid() {
		return &ConfigError{Field: "tge", Reason: "fraction exceeds denominator"}
	}

	n := len(cfg.Recipients)
	if n < 1 || n > MaxRecipients {
		return &ConfigError{Field: "recipients", Reason: "count out of range"}
	}

	seen := make(map[Address]struct{}, n)
	var sum uint32
	for _, r := range cfg.Recipients {
		if r.Wallet.IsZero() {
			return &ConfigError{Field: "recipients", Reason: "zero wallet address"}
		}
		if _, dup := seen[r.Wallet]; dup {
			return &ConfigError{Field: "recipients", Reason: "duplicate wallet " + r.Wallet.String()}
		}
		seen[r.Wallet] = struct{}{}
		if r.ShareBps == 0 {
			return &ConfigError{Field: "recipients", Reason: "zero share"}
		}
		if !r.ShareBps.Valid() {
			return &ConfigError{Field: "recipients", Reason: "share exceeds denominator"}
		}
		sum += uint32(r.ShareBps)
	}
	if sum != Denominator {
		return &ConfigError{Field: "recipients", Reason: "shares must sum to exactly the denominator"}
	}
	return nil
}

// =============================================================================
// FUND - Configured -> Active
// =============================================================================

// Fund records the one-time deposit of amount at timestamp now, stamps
// StartTime and finalizes the schedule. The strict funding policy applies:
// the funder must be the administrator. The actual token movement into the
// vault is the adapter's job and must commit atomically with this state
// transition.
func (s *Schedule) Fund(now int64, funder Address, amount uint64) error {
	if s.State == StateUninitialized {
		return ErrUnknownSchedule
	}
	if s.StartTime != 0 || s.State == StateActive {
		return ErrAlreadyFunded
	}
	if funder != s.Administrator {
		return ErrUnauthorized
	}
	if amount == 0 {
		return ErrInvalidAmount
	}

	s.StartTime = now
	s.TotalAmount = amount
	s.State = StateActive
	return nil
}

// =============================================================================
// DERIVED ACCOUNTING
// =============================================================================

// Allocation returns recipient i's fixed allocation of the total grant:
// floor(TotalAmount * share / Denominator).
func (s *Schedule) Allocation(i int) (uint64, error) {
	return mulDivFloor(s.TotalAmount, uint64(s.Recipients[i].ShareBps), Denominator)
}

// checkInvariants verifies the always-true properties of committed state.
// A violation means the account bytes are corrupt; callers must halt
// rather than move money.
func (s *Schedule) checkInvariants() error {
	var claimedSum uint64
	for i := range s.Recipients {
		alloc, err := s.Allocation(i)
		if err != nil {
			return err
		}
		if s.Recipients[i].Claimed > alloc {
			return &InvariantError{Detail: "claimed exceeds allocation for " + s.Recipients[i].Wallet.String()}
		}
		var overflow error
		claimedSum, overflow = checkedAdd(claimedSum, s.Recipients[i].Claimed)
		if overflow != nil {
			return &InvariantError{Detail: "claimed sum overflow"}
		}
	}
	if claimedSum != s.TotalClaimed {
		return &InvariantError{Detail: "recipient claims do not sum to total claimed"}
	}
	if s.TotalClaimed > s.TotalAmount {
		return &InvariantError{Detail: "total claimed exceeds total amount"}
	}
	return nil
}
