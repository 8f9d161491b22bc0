/*
codec.go - Canonical byte layouts for accounts and instructions

PURPOSE:
  Fixed binary encodings for the persisted schedule account and for the
  operation instructions. The layout is position-exact: 1-byte flags,
  32-byte identities, 8-byte little-endian integers for times and
  amounts, 2-byte little-endian basis-point fractions, a 1-byte
  recipient count, then a fixed-stride recipient array.

  Instructions are a tagged union: a kind byte followed by a
  kind-specific payload. Lengths are validated before any field is read;
  a trailing byte or a truncated payload is rejected, never ignored.

  Ledger adapters that target an existing on-chain program keep that
  program's own layout (see ledger/solana); this canonical layout is
  used by the in-process ledger and anywhere schedule state crosses a
  process boundary.
*/
package vesting

import "encoding/binary"

// =============================================================================
// ACCOUNT LAYOUT
// =============================================================================

const (
	flagInitialized = 1 << 0
	flagFinalized   = 1 << 1

	recipientStride = 32 + 2 + 8 + 8 // wallet, share bps, claimed, last claim

	accountHeaderLen = 1 + 32*3 + 8*6 + 2 + 1 + 1

	// ScheduleAccountLen is the exact size of an encoded schedule account.
	ScheduleAccountLen = accountHeaderLen + MaxRecipients*recipientStride
)

// EncodeSchedule renders the schedule into its canonical account bytes.
func EncodeSchedule(s *Schedule) []byte {
	buf := make([]byte, ScheduleAccountLen)

	var flags byte
	if s.State != StateUninitialized {
		flags |= flagInitialized
	}
	if s.State == StateActive {
		flags |= flagFinalized
	}
	buf[0] = flags

	copy(buf[1:33], s.Administrator[:])
	copy(buf[33:65], s.Asset[:])
	copy(buf[65:97], s.Vault[:])
	binary.LittleEndian.PutUint64(buf[97:105], uint64(s.StartTime))
	binary.LittleEndian.PutUint64(buf[105:113], s.TotalAmount)
	binary.LittleEndian.PutUint64(buf[113:121], s.TotalClaimed)
	binary.LittleEndian.PutUint64(buf[121:129], uint64(s.CliffSeconds))
	binary.LittleEndian.PutUint64(buf[129:137], uint64(s.VestingSeconds))
	binary.LittleEndian.PutUint64(buf[137:145], uint64(s.LastDistributionTime))
	binary.LittleEndian.PutUint16(buf[145:147], uint16(s.TGEBps))
	buf[147] = byte(s.Policy)
	buf[148] = byte(len(s.Recipients))

	off := accountHeaderLen
	for _, r := range s.Recipients {
		copy(buf[off:off+32], r.Wallet[:])
		binary.LittleEndian.PutUint16(buf[off+32:off+34], uint16(r.ShareBps))
		binary.LittleEndian.PutUint64(buf[off+34:off+42], r.Claimed)
		binary.LittleEndian.PutUint64(buf[off+42:off+50], uint64(r.LastClaimTime))
		off += recipientStride
	}
	return buf
}

// DecodeSchedule parses canonical account bytes. The length must be
// exact and the flag/field combination coherent; anything else is
// ErrBadAccountData.
func DecodeSchedule(data []byte) (*Schedule, error) {
	if len(data) != ScheduleAccountLen {
		return nil, ErrBadAccountData
	}

	flags := data[0]
	if flags&flagInitialized == 0 {
		return nil, ErrBadAccountData
	}

	s := &Schedule{}
	copy(s.Administrator[:], data[1:33])
	copy(s.Asset[:], data[33:65])
	copy(s.Vault[:], data[65:97])
	s.StartTime = int64(binary.LittleEndian.Uint64(data[97:105]))
	s.TotalAmount = binary.LittleEndian.Uint64(data[105:113])
	s.TotalClaimed = binary.LittleEndian.Uint64(data[113:121])
	s.CliffSeconds = int64(binary.LittleEndian.Uint64(data[121:129]))
	s.VestingSeconds = int64(binary.LittleEndian.Uint64(data[129:137]))
	s.LastDistributionTime = int64(binary.LittleEndian.Uint64(data[137:145]))
	s.TGEBps = Fraction(binary.LittleEndian.Uint16(data[145:147]))
	s.Policy = ClaimPolicy(data[147])
	count := int(data[148])

	if count < 1 || count > MaxRecipients {
		return nil, ErrBadAccountData
	}
	if !s.TGEBps.Valid() {
		return nil, ErrBadAccountData
	}
	if s.Policy != PolicyAdministrator && s.Policy != PolicySelfServe {
		return nil, ErrBadAccountData
	}

	finalized := flags&flagFinalized != 0
	if finalized != (s.StartTime != 0) {
		return nil, ErrBadAccountData
	}
	if finalized {
		s.State = StateActive
	} else {
		s.State = StateConfigured
	}

	s.Recipients = make([]Recipient, count)
	off := accountHeaderLen
	for i := 0; i < count; i++ {
		var r Recipient
		copy(r.Wallet[:], data[off:off+32])
		r.ShareBps = Fraction(binary.LittleEndian.Uint16(data[off+32 : off+34]))
		r.Claimed = binary.LittleEndian.Uint64(data[off+34 : off+42])
		r.LastClaimTime = int64(binary.LittleEndian.Uint64(data[off+42 : off+50]))
		s.Recipients[i] = r
		off += recipientStride
	}
	return s, nil
}

// =============================================================================
// INSTRUCTION LAYOUT - tagged union
// =============================================================================

const (
	tagConfigure byte = iota
	tagFund
	tagDistribute
	tagClaim
)

const (
	configureHeaderLen = 1 + 1 + 8 + 8 + 2 + 1 + 32 // tag, count, cliff, vesting, tge, policy, asset
	configureEntryLen  = 32 + 2                     // wallet, share bps
	fundLen            = 1 + 8
	distributeLen      = 1
	claimLen           = 1 + 32
)

// Instruction is one of ConfigureInstruction, FundInstruction,
// DistributeInstruction, ClaimInstruction.
type Instruction interface {
	isInstruction()
}

// ConfigureInstruction creates a schedule. The administrator is the
// signing caller and is not part of the payload.
type ConfigureInstruction struct {
	Asset          Address
	CliffSeconds   int64
	VestingSeconds int64
	TGEBps         Fraction
	Policy         ClaimPolicy
	Recipients     []RecipientShare
}

// FundInstruction deposits the total amount.
type FundInstruction struct {
	Amount uint64
}

// DistributeInstruction triggers a pool-wide payout.
type DistributeInstruction struct{}

// ClaimInstruction triggers a single self-serve claim.
type ClaimInstruction struct {
	Wallet Address
}

func (ConfigureInstruction) isInstruction()  {}
func (FundInstruction) isInstruction()       {}
func (DistributeInstruction) isInstruction() {}
func (ClaimInstruction) isInstruction()      {}

// EncodeInstruction renders an instruction into wire bytes.
func EncodeInstruction(in Instruction) ([]byte, error) {
	switch v := in.(type) {
	case ConfigureInstruction:
		return encodeConfigure(&v), nil
	case *ConfigureInstruction:
		return encodeConfigure(v), nil
	case FundInstruction:
		buf := make([]byte, fundLen)
		buf[0] = tagFund
		binary.LittleEndian.PutUint64(buf[1:], v.Amount)
		return buf, nil
	case DistributeInstruction:
		return []byte{tagDistribute}, nil
	case ClaimInstruction:
		buf := make([]byte, claimLen)
		buf[0] = tagClaim
		copy(buf[1:], v.Wallet[:])
		return buf, nil
	default:
		return nil, ErrBadInstruction
	}
}

func encodeConfigure(v *ConfigureInstruction) []byte {
	buf := make([]byte, configureHeaderLen+len(v.Recipients)*configureEntryLen)
	buf[0] = tagConfigure
	buf[1] = byte(len(v.Recipients))
	binary.LittleEndian.PutUint64(buf[2:10], uint64(v.CliffSeconds))
	binary.LittleEndian.PutUint64(buf[10:18], uint64(v.VestingSeconds))
	binary.LittleEndian.PutUint16(buf[18:20], uint16(v.TGEBps))
	buf[20] = byte(v.Policy)
	copy(buf[21:53], v.Asset[:])
	off := configureHeaderLen
	for _, r := range v.Recipients {
		copy(buf[off:off+32], r.Wallet[:])
		binary.LittleEndian.PutUint16(buf[off+32:off+34], uint16(r.ShareBps))
		off += configureEntryLen
	}
	return buf
}

// DecodeInstruction parses wire bytes into an instruction. The length is
// validated for the tag before any payload field is read.
func DecodeInstruction(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return nil, ErrBadInstruction
	}
	switch data[0] {
	case tagConfigure:
		if len(data) < configureHeaderLen {
			return nil, ErrBadInstruction
		}
		count := int(data[1])
		if count < 1 || count > MaxRecipients {
			return nil, ErrBadInstruction
		}
		if len(data) != configureHeaderLen+count*configureEntryLen {
			return nil, ErrBadInstruction
		}
		in := ConfigureInstruction{
			CliffSeconds:   int64(binary.LittleEndian.Uint64(data[2:10])),
			VestingSeconds: int64(binary.LittleEndian.Uint64(data[10:18])),
			TGEBps:         Fraction(binary.LittleEndian.Uint16(data[18:20])),
			Policy:         ClaimPolicy(data[20]),
		}
		copy(in.Asset[:], data[21:53])
		off := configureHeaderLen
		in.Recipients = make([]RecipientShare, count)
		for i := 0; i < count; i++ {
			copy(in.Recipients[i].Wallet[:], data[off:off+32])
			in.Recipients[i].ShareBps = Fraction(binary.LittleEndian.Uint16(data[off+32 : off+34]))
			off += configureEntryLen
		}
		return in, nil

	case tagFund:
		if len(data) != fundLen {
			return nil, ErrBadInstruction
		}
		return FundInstruction{Amount: binary.LittleEndian.Uint64(data[1:9])}, nil

	case tagDistribute:
		if len(data) != distributeLen {
			return nil, ErrBadInstruction
		}
		return DistributeInstruction{}, nil

	case tagClaim:
		if len(data) != claimLen {
			return nil, ErrBadInstruction
		}
		var in ClaimInstruction
		copy(in.Wallet[:], data[1:33])
		return in, nil

	default:
		return nil, ErrBadInstruction
	}
}
