/*
Package memory provides an in-process ledger with real token accounting.

PURPOSE:
  Backs the coordinator in development and tests. It behaves like a
  miniature ledger, not like a mock:

  - Schedule accounts are persisted as canonical encoded bytes. Every
    operation decodes committed bytes, runs the domain transition, and
    re-encodes on success - exactly the read/compute/commit shape an
    on-chain program has, so interleaving bugs surface here too.
  - Token accounts carry balances; transfers debit and credit them
    atomically with the state commit.
  - A single mutex serializes writes, mirroring the per-account
    serialization real ledgers provide natively.

  Time comes from an injected clock so tests can walk through cliff,
  vesting and cooldown windows deterministically.
*/
package memory

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/warp/vesting-engine/vesting"
)

// Sentinel errors for token accounting failures.
var (
	// ErrInsufficientFunds is returned when a holding account cannot
	// cover the requested transfer.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrUnknownAccount is returned for a transfer from an account that
	// does not exist.
	ErrUnknownAccount = errors.New("unknown token account")

	// ErrAssetMismatch is returned when a holding account exists but for
	// a different asset than the schedule pays.
	ErrAssetMismatch = errors.New("asset mismatch")
)

// tokenAccount is a balance for one asset, pinned to an owner wallet.
type tokenAccount struct {
	Asset   vesting.Address
	Owner   vesting.Address
	Balance uint64
}

// Ledger is the in-process ledger.
type Ledger struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	log      *slog.Logger
	accounts map[vesting.ScheduleID][]byte      // schedule accounts, canonical bytes
	tokens   map[vesting.Address]*tokenAccount  // token accounts by address
}

// Option configures the ledger.
type Option func(*Ledger)

// WithClock injects a clock (tests pass a fake).
func WithClock(c clockwork.Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// WithLogger injects a logger.
func WithLogger(log *slog.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

// New creates an empty in-process ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		clock:    clockwork.NewRealClock(),
		log:      slog.Default(),
		accounts: make(map[vesting.ScheduleID][]byte),
		tokens:   make(map[vesting.Address]*tokenAccount),
	}
	for _, o := range opts {
		o(l)
	}
	l.log = l.log.With("component", "memory-ledger")
	return l
}

// =============================================================================
// TOKEN ACCOUNTING (test/dev surface)
// =============================================================================

// CreateHoldingAccount creates (or returns) the holding account for a
// wallet and asset at its derived address.
func (l *Ledger) CreateHoldingAccount(wallet, asset vesting.Address) vesting.Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ensureHoldingLocked(wallet, asset)
}

func (l *Ledger) ensureHoldingLocked(wallet, asset vesting.Address) vesting.Address {
	addr := vesting.HoldingAccountFor(wallet, asset)
	if _, ok := l.tokens[addr]; !ok {
		l.tokens[addr] = &tokenAccount{Asset: asset, Owner: wallet}
	}
	return addr
}

// Mint credits freshly issued tokens to a wallet's holding account.
// Dev/test only; real ledgers mint through their own token programs.
func (l *Ledger) Mint(wallet, asset vesting.Address, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	addr := l.ensureHoldingLocked(wallet, asset)
	l.tokens[addr].Balance += amount
}

// Balance reports a token account's balance. Missing accounts read zero.
func (l *Ledger) Balance(account vesting.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ta, ok := l.tokens[account]; ok {
		return ta.Balance
	}
	return 0
}

func (l *Ledger) transferLocked(from, to vesting.Address, amount uint64) error {
	src, ok := l.tokens[from]
	if !ok {
		return ErrUnknownAccount
	}
	if src.Balance < amount {
		return ErrInsufficientFunds
	}
	dst, ok := l.tokens[to]
	if !ok {
		return ErrUnknownAccount
	}
	if dst.Asset != src.Asset {
		return ErrAssetMismatch
	}
	src.Balance -= amount
	dst.Balance += amount
	return nil
}

// =============================================================================
// LEDGER INTERFACE
// =============================================================================

// GetSchedule returns a snapshot decoded from committed bytes.
func (l *Ledger) GetSchedule(_ context.Context, id vesting.ScheduleID) (*vesting.Schedule, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadLocked(id)
}

func (l *Ledger) loadLocked(id vesting.ScheduleID) (*vesting.Schedule, error) {
	data, ok := l.accounts[id]
	if !ok {
		return nil, vesting.ErrUnknownSchedule
	}
	return vesting.DecodeSchedule(data)
}

func (l *Ledger) commitLocked(id vesting.ScheduleID, s *vesting.Schedule) {
	l.accounts[id] = vesting.EncodeSchedule(s)
}

// Configure validates and creates the schedule account plus its vault
// token account.
func (l *Ledger) Configure(_ context.Context, cfg vesting.Config) (vesting.ScheduleID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := vesting.ScheduleIDFor(cfg.Administrator)
	if _, exists := l.accounts[id]; exists {
		return vesting.ScheduleID{}, vesting.ErrAlreadyConfigured
	}

	s, err := vesting.Configure(cfg)
	if err != nil {
		return vesting.ScheduleID{}, err
	}

	// Vault custody: owned by the schedule's derived authority, never by
	// a wallet with a key.
	l.tokens[s.Vault] = &tokenAccount{Asset: cfg.Asset, Owner: vesting.AuthorityFor(id)}
	l.commitLocked(id, s)

	l.log.Debug("schedule configured",
		"schedule", id.String(),
		"recipients", len(cfg.Recipients),
		"policy", cfg.Policy.String())
	return id, nil
}

// Fund moves the deposit into the vault and finalizes the schedule, as
// one atomic step.
func (l *Ledger) Fund(_ context.Context, id vesting.ScheduleID, funder vesting.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := l.loadLocked(id)
	if err != nil {
		return err
	}

	now := l.clock.Now().Unix()
	if err := s.Fund(now, funder, amount); err != nil {
		return err
	}

	source := vesting.HoldingAccountFor(funder, s.Asset)
	if err := l.transferLocked(source, s.Vault, amount); err != nil {
		return err
	}

	l.commitLocked(id, s)
	l.log.Info("schedule funded", "schedule", id.String(), "amount", amount, "start_time", now)
	return nil
}

// Distribute runs the two-phase pool distribution: plan from committed
// state, verify destinations, apply counters and execute transfers, then
// commit - all under the write lock.
func (l *Ledger) Distribute(_ context.Context, id vesting.ScheduleID, caller vesting.Address, destinations []vesting.Address) (*vesting.DistributionResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := l.loadLocked(id)
	if err != nil {
		return nil, err
	}

	plan, err := s.PlanDistribution(l.clock.Now().Unix(), caller, vesting.HoldingAccountFor)
	if err != nil {
		return nil, err
	}
	if err := plan.ValidateDestinations(destinations); err != nil {
		return nil, err
	}
	if err := l.executeLocked(id, s, plan); err != nil {
		return nil, err
	}

	res := plan.Result()
	l.log.Info("distribution executed",
		"schedule", id.String(),
		"transferred", res.Transferred,
		"recipients", len(res.PerRecipient))
	return res, nil
}

// Claim runs a single self-serve claim.
func (l *Ledger) Claim(_ context.Context, id vesting.ScheduleID, caller vesting.Address) (*vesting.ClaimResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := l.loadLocked(id)
	if err != nil {
		return nil, err
	}

	plan, err := s.PlanSelfClaim(l.clock.Now().Unix(), caller, vesting.HoldingAccountFor)
	if err != nil {
		return nil, err
	}
	if err := l.executeLocked(id, s, plan); err != nil {
		return nil, err
	}

	l.log.Info("claim executed", "schedule", id.String(), "wallet", caller.String(), "amount", plan.Total)
	return &vesting.ClaimResult{Wallet: caller, Transferred: plan.Total}, nil
}

// executeLocked applies the plan to the schedule and moves tokens.
// Recipient holding accounts are created at their derived address on
// first payout; destinations have already been verified against exactly
// those addresses.
func (l *Ledger) executeLocked(id vesting.ScheduleID, s *vesting.Schedule, plan *vesting.Plan) error {
	if vault, ok := l.tokens[plan.Source]; !ok || vault.Balance < plan.Total {
		return ErrInsufficientFunds
	}

	if err := s.Apply(plan); err != nil {
		return err
	}
	for _, tr := range plan.Transfers {
		l.ensureHoldingLocked(tr.Wallet, s.Asset)
		if err := l.transferLocked(plan.Source, tr.Destination, tr.Amount); err != nil {
			// Balance was checked above; a failure here means corrupt
			// token state. Nothing has been committed.
			return err
		}
	}
	l.commitLocked(id, s)
	return nil
}
