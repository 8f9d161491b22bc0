package solanaledger

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/warp/vesting-engine/vesting"
)

// Program instruction tags.
const (
	tagInitialize uint8 = 0
	tagFund       uint8 = 1
	tagDistribute uint8 = 2
)

// bpsToPercent narrows a basis-point share to the whole percent the
// program stores. Shares with sub-percent precision cannot be expressed
// on this program.
func bpsToPercent(bps vesting.Fraction) (uint8, error) {
	if bps%100 != 0 {
		return 0, fmt.Errorf("%w: share %d bps is not a whole percent", vesting.ErrInvalidConfiguration, bps)
	}
	return uint8(bps / 100), nil
}

// BuildInitialize constructs the instruction that creates the schedule
// and vault accounts. The administrator signs and pays rent.
func BuildInitialize(programID, administrator, mint solana.PublicKey, cfg vesting.Config) (solana.Instruction, error) {
	accounts, err := FindScheduleAccounts(programID, administrator)
	if err != nil {
		return nil, err
	}
	tgePct, err := bpsToPercent(cfg.TGEBps)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, 19+len(cfg.Recipients)*33)
	data = append(data, tagInitialize, uint8(len(cfg.Recipients)))
	data = binary.LittleEndian.AppendUint64(data, uint64(cfg.CliffSeconds))
	data = binary.LittleEndian.AppendUint64(data, uint64(cfg.VestingSeconds))
	data = append(data, tgePct)
	for _, r := range cfg.Recipients {
		pct, err := bpsToPercent(r.ShareBps)
		if err != nil {
			return nil, err
		}
		data = append(data, r.Wallet.Bytes()...)
		data = append(data, pct)
	}

	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.Meta(administrator).SIGNER().WRITE(),
		solana.Meta(accounts.Schedule).WRITE(),
		solana.Meta(accounts.Vault).WRITE(),
		solana.Meta(mint),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.SysVarRentPubkey),
	}, data), nil
}

// BuildFund constructs the one-time funding instruction. The deposit
// moves from the funder's token account into the vault and the program
// stamps start_time from the clock sysvar.
func BuildFund(programID, funder, source solana.PublicKey, administrator solana.PublicKey, amount uint64) (solana.Instruction, error) {
	if amount == 0 {
		return nil, vesting.ErrInvalidAmount
	}
	accounts, err := FindScheduleAccounts(programID, administrator)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 9)
	data[0] = tagFund
	binary.LittleEndian.PutUint64(data[1:], amount)

	return solana.NewInstruction(programID, solana.AccountMetaSlice{
		solana.Meta(funder).SIGNER(),
		solana.Meta(source).WRITE(),
		solana.Meta(accounts.Vault).WRITE(),
		solana.Meta(accounts.Schedule).WRITE(),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.SysVarClockPubkey),
	}, data), nil
}

// BuildDistribute constructs the pool distribution instruction. The
// recipient token accounts must be the associated token accounts of the
// schedule's recipients, in the stored order; the program re-derives and
// verifies each one.
func BuildDistribute(programID, administrator solana.PublicKey, s *vesting.Schedule) (solana.Instruction, error) {
	accounts, err := FindScheduleAccounts(programID, administrator)
	if err != nil {
		return nil, err
	}

	metas := solana.AccountMetaSlice{
		solana.Meta(administrator).SIGNER(),
		solana.Meta(accounts.Schedule).WRITE(),
		solana.Meta(accounts.Vault).WRITE(),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.SysVarClockPubkey),
		solana.Meta(accounts.Authority),
	}
	mint := toPublicKey(s.Asset)
	for _, r := range s.Recipients {
		ata, err := RecipientTokenAccount(toPublicKey(r.Wallet), mint)
		if err != nil {
			return nil, err
		}
		metas = append(metas, solana.Meta(ata).WRITE())
	}

	return solana.NewInstruction(programID, metas, []byte{tagDistribute}), nil
}
