/*
Package solanaledger adapts the deployed Solana vesting program to the
ledger interfaces.

PURPOSE:
  The program owns execution; this package only mirrors its conventions
  faithfully enough to read its accounts and construct its instructions:

  - derive.go: program-derived addresses, using the program's exact seed
    labels. A wrong seed here silently points at an empty account.
  - account.go: decodes the program's on-chain account layout into the
    domain schedule. The program stores shares as whole percents; they
    widen to basis points at this boundary.
  - instructions.go: builds the program's wire instructions with the
    account lists it expects, in order.
  - client.go: the read-side RPC view (ledger.Reader).

  Writes are NOT implemented here: submitting transactions needs a
  funded signing key, which the coordinator deliberately does not hold.

SEE ALSO:
  - ledger/memory: the writable in-process ledger
*/
package solanaledger

import (
	"github.com/gagliardetto/solana-go"

	"github.com/warp/vesting-engine/vesting"
)

// Seed labels, byte for byte what the program signs with.
var (
	seedVesting   = []byte("vesting")
	seedVault     = []byte("vault")
	seedAuthority = []byte("authority")
)

// Accounts bundles every program-derived address for one schedule.
type Accounts struct {
	Schedule  solana.PublicKey
	Vault     solana.PublicKey
	Authority solana.PublicKey
}

// FindScheduleAccounts derives the schedule, vault and authority
// addresses for an administrator. The schedule address seeds the other
// two, so it is derived first.
func FindScheduleAccounts(programID, administrator solana.PublicKey) (Accounts, error) {
	schedule, _, err := solana.FindProgramAddress(
		[][]byte{seedVesting, administrator.Bytes()},
		programID,
	)
	if err != nil {
		return Accounts{}, err
	}
	vault, _, err := solana.FindProgramAddress(
		[][]byte{seedVault, schedule.Bytes()},
		programID,
	)
	if err != nil {
		return Accounts{}, err
	}
	authority, _, err := solana.FindProgramAddress(
		[][]byte{seedAuthority, schedule.Bytes()},
		programID,
	)
	if err != nil {
		return Accounts{}, err
	}
	return Accounts{Schedule: schedule, Vault: vault, Authority: authority}, nil
}

// RecipientTokenAccount resolves the associated token account a payout
// for wallet must land in. The program verifies each destination against
// this same derivation on-chain.
func RecipientTokenAccount(wallet, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(wallet, mint)
	return ata, err
}

func toPublicKey(a vesting.Address) solana.PublicKey {
	return solana.PublicKeyFromBytes(a[:])
}

func toAddress(pk solana.PublicKey) vesting.Address {
	a, _ := vesting.AddressFromBytes(pk.Bytes())
	return a
}
