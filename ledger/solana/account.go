package solanaledger

import (
	"encoding/binary"
	"fmt"

	"github.com/warp/vesting-engine/vesting"
)

// On-chain layout of the program's vesting account. Shares are whole
// percents (u8) and all ten recipient slots are always present, used or
// not; the count byte says how many are live.
//
//	[0]       is_initialized
//	[1:33]    initializer
//	[33:65]   mint
//	[65:97]   vault token account
//	[97:105]  start_time (i64 LE)
//	[105:113] total_amount (u64 LE)
//	[113:121] cliff_period (i64 LE)
//	[121:129] vesting_period (i64 LE)
//	[129]     tge_percentage
//	[130]     recipient_count
//	[131]     is_revoked
//	[132]     is_finalized
//	[133:141] last_distribution_time (i64 LE)
//	[141:]    10 x { wallet[32], percentage, claimed u64 LE, last_claim i64 LE }
const (
	accountLen          = 631
	recipientSlots      = 10
	recipientSlotStride = 49
	recipientsOffset    = 141
)

// percentToBps widens a whole-percent share to basis points.
func percentToBps(pct uint8) vesting.Fraction {
	return vesting.Fraction(uint16(pct) * 100)
}

// DecodeAccount converts the program's raw account bytes into a domain
// schedule. The program only supports administrator-driven payouts, so
// the policy is always PolicyAdministrator.
func DecodeAccount(data []byte) (*vesting.Schedule, error) {
	if len(data) != accountLen {
		return nil, fmt.Errorf("%w: account is %d bytes, want %d", vesting.ErrBadAccountData, len(data), accountLen)
	}
	if data[0] != 1 {
		return nil, fmt.Errorf("%w: not initialized", vesting.ErrBadAccountData)
	}
	if data[131] != 0 {
		return nil, fmt.Errorf("%w: schedule is revoked", vesting.ErrBadAccountData)
	}

	count := int(data[130])
	if count == 0 || count > recipientSlots {
		return nil, fmt.Errorf("%w: recipient count %d", vesting.ErrBadAccountData, count)
	}
	tgePct := data[129]
	if tgePct > 100 {
		return nil, fmt.Errorf("%w: tge percentage %d", vesting.ErrBadAccountData, tgePct)
	}

	s := &vesting.Schedule{
		Policy:               vesting.PolicyAdministrator,
		StartTime:            int64(binary.LittleEndian.Uint64(data[97:105])),
		TotalAmount:          binary.LittleEndian.Uint64(data[105:113]),
		CliffSeconds:         int64(binary.LittleEndian.Uint64(data[113:121])),
		VestingSeconds:       int64(binary.LittleEndian.Uint64(data[121:129])),
		TGEBps:               percentToBps(tgePct),
		LastDistributionTime: int64(binary.LittleEndian.Uint64(data[133:141])),
	}
	copy(s.Administrator[:], data[1:33])
	copy(s.Asset[:], data[33:65])
	copy(s.Vault[:], data[65:97])

	finalized := data[132] != 0
	switch {
	case finalized && s.StartTime != 0:
		s.State = vesting.StateActive
	case !finalized && s.StartTime == 0:
		s.State = vesting.StateConfigured
	default:
		return nil, fmt.Errorf("%w: finalized flag disagrees with start time", vesting.ErrBadAccountData)
	}

	var total vesting.Fraction
	var totalClaimed uint64
	s.Recipients = make([]vesting.Recipient, count)
	for i := 0; i < count; i++ {
		off := recipientsOffset + i*recipientSlotStride
		r := &s.Recipients[i]
		copy(r.Wallet[:], data[off:off+32])
		r.ShareBps = percentToBps(data[off+32])
		r.Claimed = binary.LittleEndian.Uint64(data[off+33 : off+41])
		r.LastClaimTime = int64(binary.LittleEndian.Uint64(data[off+41 : off+49]))
		total += r.ShareBps
		totalClaimed += r.Claimed
	}
	if total != vesting.Denominator {
		return nil, fmt.Errorf("%w: shares sum to %d bps", vesting.ErrBadAccountData, total)
	}
	s.TotalClaimed = totalClaimed

	return s, nil
}
