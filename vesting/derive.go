/*
derive.go - Deterministic sub-account derivation

PURPOSE:
  Derives vault / authority / holding addresses from a schedule's own
  identity and a fixed label. The derivation is a pure function kept
  outside the state machine so it can be unit-tested against known
  vectors, and implemented identically regardless of target ledger.

  Ledger adapters substitute their native mechanism (e.g. the Solana
  adapter uses program-derived addresses with the same labels); this
  canonical form hashes label and seed material with SHA-256.

LABELS:
  "vesting"   schedule identity from the administrator wallet
  "vault"     token custody sub-account, from the schedule identity
  "authority" transfer authority over the vault, from the schedule identity
  "holding"   a recipient's asset holding account, from wallet + asset
*/
package vesting

import "crypto/sha256"

const deriveDomain = "vesting-engine/v1/"

// DeriveSubAccount derives an address from a label and seed material.
// Same label + same seeds always yields the same address; no private key
// exists for derived addresses.
func DeriveSubAccount(label string, seeds ...Address) Address {
	h := sha256.New()
	h.Write([]byte(deriveDomain + label))
	for _, s := range seeds {
		h.Write(s[:])
	}
	var a Address
	copy(a[:], h.Sum(nil))
	return a
}

// ScheduleIDFor derives the schedule identity for an administrator.
// One schedule per administrator wallet.
func ScheduleIDFor(administrator Address) ScheduleID {
	return DeriveSubAccount("vesting", administrator)
}

// VaultFor derives the token custody sub-account for a schedule.
func VaultFor(id ScheduleID) Address {
	return DeriveSubAccount("vault", id)
}

// AuthorityFor derives the vault's transfer authority. Only the schedule
// itself ever signs as this identity; no external actor holds a key.
func AuthorityFor(id ScheduleID) Address {
	return DeriveSubAccount("authority", id)
}

// HoldingAccountFor derives the verified holding account for a wallet and
// asset. Payout destinations must match these exactly; the distribution
// algorithm rejects substituted destinations.
func HoldingAccountFor(wallet, asset Address) Address {
	return DeriveSubAccount("holding", wallet, asset)
}
