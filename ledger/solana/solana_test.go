package solanaledger

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vesting-engine/vesting"
)

var testProgramID = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

func addr(b byte) vesting.Address {
	var a vesting.Address
	for i := range a {
		a[i] = b
	}
	return a
}

// rawAccount packs a valid on-chain account the way the program does:
// all ten recipient slots written, live ones first.
type rawRecipient struct {
	wallet  vesting.Address
	percent uint8
	claimed uint64
}

func rawAccount(startTime int64, total uint64, finalized bool, tgePct uint8, recipients []rawRecipient) []byte {
	data := make([]byte, accountLen)
	data[0] = 1
	copy(data[1:33], addr(0xAA).Bytes())  // initializer
	copy(data[33:65], addr(0xBB).Bytes()) // mint
	copy(data[65:97], addr(0xCC).Bytes()) // vault
	binary.LittleEndian.PutUint64(data[97:105], uint64(startTime))
	binary.LittleEndian.PutUint64(data[105:113], total)
	binary.LittleEndian.PutUint64(data[113:121], 300)  // cliff
	binary.LittleEndian.PutUint64(data[121:129], 1200) // vesting
	data[129] = tgePct
	data[130] = uint8(len(recipients))
	if finalized {
		data[132] = 1
	}
	for i, r := range recipients {
		off := recipientsOffset + i*recipientSlotStride
		copy(data[off:off+32], r.wallet.Bytes())
		data[off+32] = r.percent
		binary.LittleEndian.PutUint64(data[off+33:off+41], r.claimed)
	}
	return data
}

// =============================================================================
// ACCOUNT DECODING
// =============================================================================

func TestDecodeAccount(t *testing.T) {
	data := rawAccount(5000, 1_000_000, true, 10, []rawRecipient{
		{wallet: addr(0x01), percent: 60, claimed: 66_000},
		{wallet: addr(0x02), percent: 40, claimed: 44_000},
	})

	s, err := DecodeAccount(data)
	require.NoError(t, err)

	assert.Equal(t, vesting.StateActive, s.State)
	assert.Equal(t, vesting.PolicyAdministrator, s.Policy)
	assert.Equal(t, addr(0xAA), s.Administrator)
	assert.Equal(t, addr(0xBB), s.Asset)
	assert.Equal(t, addr(0xCC), s.Vault)
	assert.Equal(t, int64(5000), s.StartTime)
	assert.Equal(t, uint64(1_000_000), s.TotalAmount)
	assert.Equal(t, int64(300), s.CliffSeconds)
	assert.Equal(t, int64(1200), s.VestingSeconds)
	assert.Equal(t, vesting.Fraction(1000), s.TGEBps)

	require.Len(t, s.Recipients, 2)
	assert.Equal(t, vesting.Fraction(6000), s.Recipients[0].ShareBps)
	assert.Equal(t, uint64(66_000), s.Recipients[0].Claimed)
	assert.Equal(t, vesting.Fraction(4000), s.Recipients[1].ShareBps)
	assert.Equal(t, uint64(110_000), s.TotalClaimed)
}

func TestDecodeAccount_ConfiguredNotFunded(t *testing.T) {
	data := rawAccount(0, 0, false, 10, []rawRecipient{
		{wallet: addr(0x01), percent: 100},
	})
	s, err := DecodeAccount(data)
	require.NoError(t, err)
	assert.Equal(t, vesting.StateConfigured, s.State)
}

func TestDecodeAccount_Rejections(t *testing.T) {
	valid := func() []byte {
		return rawAccount(5000, 100, true, 0, []rawRecipient{
			{wallet: addr(0x01), percent: 100},
		})
	}

	cases := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"truncated", func(d []byte) []byte { return d[:accountLen-1] }},
		{"uninitialized", func(d []byte) []byte { d[0] = 0; return d }},
		{"revoked", func(d []byte) []byte { d[131] = 1; return d }},
		{"zero recipients", func(d []byte) []byte { d[130] = 0; return d }},
		{"count over max", func(d []byte) []byte { d[130] = 11; return d }},
		{"tge over 100", func(d []byte) []byte { d[129] = 101; return d }},
		{"shares not 100", func(d []byte) []byte { d[recipientsOffset+32] = 99; return d }},
		{"finalized without start", func(d []byte) []byte {
			binary.LittleEndian.PutUint64(d[97:105], 0)
			return d
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := DecodeAccount(c.mutate(valid()))
			assert.ErrorIs(t, err, vesting.ErrBadAccountData)
		})
	}
}

// =============================================================================
// DERIVATION
// =============================================================================

func TestFindScheduleAccounts(t *testing.T) {
	admin := solana.MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")

	a, err := FindScheduleAccounts(testProgramID, admin)
	require.NoError(t, err)
	b, err := FindScheduleAccounts(testProgramID, admin)
	require.NoError(t, err)

	// Deterministic, and the three roles never collide.
	assert.Equal(t, a, b)
	assert.NotEqual(t, a.Schedule, a.Vault)
	assert.NotEqual(t, a.Schedule, a.Authority)
	assert.NotEqual(t, a.Vault, a.Authority)

	// A different administrator lands on different accounts.
	other, err := FindScheduleAccounts(testProgramID, solana.MustPublicKeyFromBase58("SysvarC1ock11111111111111111111111111111111"))
	require.NoError(t, err)
	assert.NotEqual(t, a.Schedule, other.Schedule)
}

// =============================================================================
// INSTRUCTION BUILDING
// =============================================================================

func testConfig() vesting.Config {
	return vesting.Config{
		Administrator:  addr(0xAA),
		Asset:          addr(0xBB),
		CliffSeconds:   300,
		VestingSeconds: 1200,
		TGEBps:         1000,
		Policy:         vesting.PolicyAdministrator,
		Recipients: []vesting.RecipientShare{
			{Wallet: addr(0x01), ShareBps: 6000},
			{Wallet: addr(0x02), ShareBps: 4000},
		},
	}
}

func TestBuildInitialize_WireFormat(t *testing.T) {
	admin := toPublicKey(addr(0xAA))
	mint := toPublicKey(addr(0xBB))

	ix, err := BuildInitialize(testProgramID, admin, mint, testConfig())
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 19+2*33)

	assert.Equal(t, uint8(0), data[0])
	assert.Equal(t, uint8(2), data[1])
	assert.Equal(t, uint64(300), binary.LittleEndian.Uint64(data[2:10]))
	assert.Equal(t, uint64(1200), binary.LittleEndian.Uint64(data[10:18]))
	assert.Equal(t, uint8(10), data[18])
	assert.Equal(t, addr(0x01).Bytes(), data[19:51])
	assert.Equal(t, uint8(60), data[51])
	assert.Equal(t, addr(0x02).Bytes(), data[52:84])
	assert.Equal(t, uint8(40), data[84])

	// The administrator signs; the schedule and vault accounts are written.
	metas := ix.Accounts()
	require.Len(t, metas, 7)
	assert.True(t, metas[0].IsSigner)
	assert.True(t, metas[1].IsWritable)
	assert.True(t, metas[2].IsWritable)
}

func TestBuildInitialize_RejectsSubPercentShares(t *testing.T) {
	cfg := testConfig()
	cfg.Recipients[0].ShareBps = 5950
	cfg.Recipients[1].ShareBps = 4050

	_, err := BuildInitialize(testProgramID, toPublicKey(addr(0xAA)), toPublicKey(addr(0xBB)), cfg)
	assert.ErrorIs(t, err, vesting.ErrInvalidConfiguration)
}

func TestBuildFund_WireFormat(t *testing.T) {
	ix, err := BuildFund(testProgramID, toPublicKey(addr(0xAA)), toPublicKey(addr(0xDD)), toPublicKey(addr(0xAA)), 1_000_000)
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 9)
	assert.Equal(t, uint8(1), data[0])
	assert.Equal(t, uint64(1_000_000), binary.LittleEndian.Uint64(data[1:]))

	_, err = BuildFund(testProgramID, toPublicKey(addr(0xAA)), toPublicKey(addr(0xDD)), toPublicKey(addr(0xAA)), 0)
	assert.ErrorIs(t, err, vesting.ErrInvalidAmount)
}

func TestBuildDistribute_AppendsRecipientAccounts(t *testing.T) {
	s, err := vesting.Configure(testConfig())
	require.NoError(t, err)

	ix, err := BuildDistribute(testProgramID, toPublicKey(addr(0xAA)), s)
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, data)

	// 6 fixed accounts plus one token account per recipient.
	metas := ix.Accounts()
	require.Len(t, metas, 6+2)
	for _, m := range metas[6:] {
		assert.True(t, m.IsWritable)
	}
}

// =============================================================================
// RPC READER
// =============================================================================

type stubFetcher struct {
	res *rpc.GetAccountInfoResult
	err error
}

func (s *stubFetcher) GetAccountInfo(context.Context, solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	return s.res, s.err
}

func accountResult(owner solana.PublicKey, data []byte) *rpc.GetAccountInfoResult {
	return &rpc.GetAccountInfoResult{
		RPCContext: rpc.RPCContext{},
		Value: &rpc.Account{
			Owner: owner,
			Data:  rpc.DataBytesOrJSONFromBytes(data),
		},
	}
}

func TestClient_GetSchedule(t *testing.T) {
	data := rawAccount(5000, 100, true, 0, []rawRecipient{
		{wallet: addr(0x01), percent: 100},
	})
	c := New("http://unused", testProgramID, WithFetcher(&stubFetcher{
		res: accountResult(testProgramID, data),
	}))

	s, err := c.GetSchedule(context.Background(), addr(0x42))
	require.NoError(t, err)
	assert.Equal(t, vesting.StateActive, s.State)
	assert.Equal(t, uint64(100), s.TotalAmount)
}

func TestClient_GetSchedule_Errors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		c := New("http://unused", testProgramID, WithFetcher(&stubFetcher{err: rpc.ErrNotFound}))
		_, err := c.GetSchedule(context.Background(), addr(0x42))
		assert.ErrorIs(t, err, vesting.ErrUnknownSchedule)
	})

	t.Run("nil value", func(t *testing.T) {
		c := New("http://unused", testProgramID, WithFetcher(&stubFetcher{res: &rpc.GetAccountInfoResult{}}))
		_, err := c.GetSchedule(context.Background(), addr(0x42))
		assert.ErrorIs(t, err, vesting.ErrUnknownSchedule)
	})

	t.Run("foreign owner", func(t *testing.T) {
		data := rawAccount(5000, 100, true, 0, []rawRecipient{{wallet: addr(0x01), percent: 100}})
		c := New("http://unused", testProgramID, WithFetcher(&stubFetcher{
			res: accountResult(solana.SystemProgramID, data),
		}))
		_, err := c.GetSchedule(context.Background(), addr(0x42))
		assert.ErrorIs(t, err, vesting.ErrBadAccountData)
	})
}
