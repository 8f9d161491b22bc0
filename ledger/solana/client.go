package solanaledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/warp/vesting-engine/vesting"
)

// accountFetcher is the slice of the RPC client the reader needs.
type accountFetcher interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
}

// Client is the read-side view of the deployed program, implementing
// ledger.Reader. Snapshots come straight from RPC with no caching; the
// program remains the only authority on state transitions.
type Client struct {
	rpc       accountFetcher
	programID solana.PublicKey
	log       *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithLogger injects a logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithFetcher swaps the RPC transport (tests pass a stub).
func WithFetcher(f accountFetcher) Option {
	return func(c *Client) { c.rpc = f }
}

// New creates a client against an RPC endpoint.
func New(endpoint string, programID solana.PublicKey, opts ...Option) *Client {
	c := &Client{
		rpc:       rpc.New(endpoint),
		programID: programID,
		log:       slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With("component", "solana-ledger", "program", programID.String())
	return c
}

// ProgramID reports the program this client reads from.
func (c *Client) ProgramID() solana.PublicKey {
	return c.programID
}

// GetSchedule fetches and decodes the schedule account. The schedule
// identity is its on-chain address.
func (c *Client) GetSchedule(ctx context.Context, id vesting.ScheduleID) (*vesting.Schedule, error) {
	account := toPublicKey(vesting.Address(id))

	res, err := c.rpc.GetAccountInfo(ctx, account)
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, vesting.ErrUnknownSchedule
	}
	if err != nil {
		return nil, fmt.Errorf("fetch schedule account %s: %w", account, err)
	}
	if res == nil || res.Value == nil {
		return nil, vesting.ErrUnknownSchedule
	}
	if !res.Value.Owner.Equals(c.programID) {
		return nil, fmt.Errorf("%w: account %s is owned by %s", vesting.ErrBadAccountData, account, res.Value.Owner)
	}

	s, err := DecodeAccount(res.Value.Data.GetBinary())
	if err != nil {
		return nil, err
	}
	c.log.Debug("schedule fetched", "schedule", id.String(), "state", s.State.String())
	return s, nil
}

// ScheduleIDFor derives the on-chain schedule identity for an
// administrator. Unlike the in-process ledger's hash derivation, this
// follows the program's own PDA scheme.
func (c *Client) ScheduleIDFor(administrator vesting.Address) (vesting.ScheduleID, error) {
	accounts, err := FindScheduleAccounts(c.programID, toPublicKey(administrator))
	if err != nil {
		return vesting.ScheduleID{}, err
	}
	return vesting.ScheduleID(toAddress(accounts.Schedule)), nil
}
