/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

AMOUNTS:
  Clients deal in display units ("1.5" tokens); the engine deals in
  integer base units. Request amounts are decimal strings scaled by the
  schedule's registered asset decimals; responses carry both the base
  units and the display rendering.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - oracle/: safe error message set used in ErrorResponse
*/
package api

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/vesting-engine/oracle"
	"github.com/warp/vesting-engine/store/sqlite"
	"github.com/warp/vesting-engine/vesting"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// RecipientShareDTO is one recipient entry in a configure request.
type RecipientShareDTO struct {
	Wallet   string `json:"wallet"`
	ShareBps uint16 `json:"share_bps"`
}

// ConfigureScheduleRequest is the request to create a schedule.
type ConfigureScheduleRequest struct {
	Name           string              `json:"name"`
	Administrator  string              `json:"administrator"`
	Asset          string              `json:"asset"`
	AssetDecimals  int                 `json:"asset_decimals"`
	CliffSeconds   int64               `json:"cliff_seconds"`
	VestingSeconds int64               `json:"vesting_seconds"`
	TGEBps         uint16              `json:"tge_bps"`
	Policy         string              `json:"policy"` // "administrator" or "self-serve"
	Recipients     []RecipientShareDTO `json:"recipients"`
}

// FundRequest is the request to fund a schedule.
type FundRequest struct {
	Funder string `json:"funder"`
	Amount string `json:"amount"` // display units, decimal string
}

// DistributeRequest triggers a pool distribution.
type DistributeRequest struct {
	Caller string `json:"caller"`

	// Destinations optionally pins the payout accounts; when present it
	// must match the derived destinations exactly.
	Destinations []string `json:"destinations,omitempty"`
}

// ClaimRequest triggers a self-serve claim.
type ClaimRequest struct {
	Caller string `json:"caller"`
}

// AmountDTO renders one amount in both unit systems.
type AmountDTO struct {
	BaseUnits uint64 `json:"base_units"`
	Display   string `json:"display"`
}

// RecipientDTO is one recipient in a schedule snapshot.
type RecipientDTO struct {
	Wallet        string    `json:"wallet"`
	ShareBps      uint16    `json:"share_bps"`
	Allocation    AmountDTO `json:"allocation"`
	Claimed       AmountDTO `json:"claimed"`
	LastClaimTime int64     `json:"last_claim_time,omitempty"`
}

// ScheduleDTO is a full schedule snapshot.
type ScheduleDTO struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name,omitempty"`
	LedgerKind           string         `json:"ledger_kind,omitempty"`
	State                string         `json:"state"`
	Policy               string         `json:"policy"`
	Administrator        string         `json:"administrator"`
	Asset                string         `json:"asset"`
	Vault                string         `json:"vault"`
	StartTime            int64          `json:"start_time,omitempty"`
	CliffSeconds         int64          `json:"cliff_seconds"`
	VestingSeconds       int64          `json:"vesting_seconds"`
	TGEBps               uint16         `json:"tge_bps"`
	TotalAmount          AmountDTO      `json:"total_amount"`
	TotalClaimed         AmountDTO      `json:"total_claimed"`
	LastDistributionTime int64          `json:"last_distribution_time,omitempty"`
	Recipients           []RecipientDTO `json:"recipients"`
}

// ScheduleListItemDTO is one registry row.
type ScheduleListItemDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	LedgerKind    string `json:"ledger_kind"`
	AssetDecimals int    `json:"asset_decimals"`
	CreatedAt     string `json:"created_at"`
}

// PayoutDTO is one executed transfer in a distribution or claim
// response and in the journal listing.
type PayoutDTO struct {
	Wallet string    `json:"wallet"`
	Amount AmountDTO `json:"amount"`
}

// DistributionResponseDTO is the outcome of a pool distribution.
type DistributionResponseDTO struct {
	ScheduleID  string      `json:"schedule_id"`
	Transferred AmountDTO   `json:"transferred"`
	Payouts     []PayoutDTO `json:"payouts"`
}

// ClaimResponseDTO is the outcome of a self-serve claim.
type ClaimResponseDTO struct {
	ScheduleID  string    `json:"schedule_id"`
	Wallet      string    `json:"wallet"`
	Transferred AmountDTO `json:"transferred"`
}

// ClaimableDTO is the oracle's pool-wide claimable view.
type ClaimableDTO struct {
	ScheduleID  string      `json:"schedule_id"`
	AsOf        int64       `json:"as_of"`
	State       string      `json:"state"`
	UnlockedBps uint16      `json:"unlocked_bps"`
	Total       AmountDTO   `json:"total"`
	Recipients  []PayoutDTO `json:"recipients"`
}

// WalletClaimableDTO is the oracle's single-wallet claimable view.
type WalletClaimableDTO struct {
	ScheduleID string    `json:"schedule_id"`
	Wallet     string    `json:"wallet"`
	Claimable  AmountDTO `json:"claimable"`
}

// RoleDTO is the oracle's answer about one caller.
type RoleDTO struct {
	ScheduleID     string `json:"schedule_id"`
	Caller         string `json:"caller"`
	Role           string `json:"role"`
	RecipientIndex *int   `json:"recipient_index,omitempty"`
	ShareBps       uint16 `json:"share_bps,omitempty"`
	CanDistribute  bool   `json:"can_distribute"`
	CanClaim       bool   `json:"can_claim"`
}

// JournalEntryDTO is one payout journal row.
type JournalEntryDTO struct {
	ID         string    `json:"id"`
	Wallet     string    `json:"wallet"`
	Amount     AmountDTO `json:"amount"`
	Kind       string    `json:"kind"`
	Caller     string    `json:"caller"`
	ExecutedAt string    `json:"executed_at"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response. Error always comes from
// the oracle's safe message set.
type ErrorResponse struct {
	Error string `json:"error"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

// parseAmount converts a display-unit decimal string into base units.
func parseAmount(display string, decimals int) (uint64, error) {
	d, err := decimal.NewFromString(display)
	if err != nil {
		return 0, fmt.Errorf("not a decimal number: %w", err)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", display, decimals)
	}
	if scaled.IsNegative() {
		return 0, fmt.Errorf("amount must not be negative")
	}
	if !scaled.BigInt().IsUint64() {
		return 0, fmt.Errorf("amount %s does not fit in 64 bits", display)
	}
	return scaled.BigInt().Uint64(), nil
}

// formatAmount renders base units in display units.
func formatAmount(base uint64, decimals int) AmountDTO {
	return AmountDTO{
		BaseUnits: base,
		Display:   decimal.NewFromUint64(base).Shift(int32(-decimals)).String(),
	}
}

func toScheduleDTO(id vesting.ScheduleID, s *vesting.Schedule, rec *sqlite.ScheduleRecord) ScheduleDTO {
	decimals := defaultAssetDecimals
	dto := ScheduleDTO{
		ID:                   id.String(),
		State:                s.State.String(),
		Policy:               s.Policy.String(),
		Administrator:        s.Administrator.String(),
		Asset:                s.Asset.String(),
		Vault:                s.Vault.String(),
		StartTime:            s.StartTime,
		CliffSeconds:         s.CliffSeconds,
		VestingSeconds:       s.VestingSeconds,
		TGEBps:               uint16(s.TGEBps),
		LastDistributionTime: s.LastDistributionTime,
	}
	if rec != nil {
		dto.Name = rec.Name
		dto.LedgerKind = rec.LedgerKind
		decimals = rec.AssetDecimals
	}
	dto.TotalAmount = formatAmount(s.TotalAmount, decimals)
	dto.TotalClaimed = formatAmount(s.TotalClaimed, decimals)

	dto.Recipients = make([]RecipientDTO, len(s.Recipients))
	for i, r := range s.Recipients {
		alloc, err := s.Allocation(i)
		if err != nil {
			alloc = 0
		}
		dto.Recipients[i] = RecipientDTO{
			Wallet:        r.Wallet.String(),
			ShareBps:      uint16(r.ShareBps),
			Allocation:    formatAmount(alloc, decimals),
			Claimed:       formatAmount(r.Claimed, decimals),
			LastClaimTime: r.LastClaimTime,
		}
	}
	return dto
}

func toRoleDTO(id vesting.ScheduleID, caller vesting.Address, info *oracle.RoleInfo) RoleDTO {
	dto := RoleDTO{
		ScheduleID:    id.String(),
		Caller:        caller.String(),
		Role:          info.Role.String(),
		ShareBps:      uint16(info.ShareBps),
		CanDistribute: info.CanDistribute,
		CanClaim:      info.CanClaim,
	}
	if info.RecipientIndex >= 0 {
		idx := info.RecipientIndex
		dto.RecipientIndex = &idx
	}
	return dto
}

func toJournalDTOs(records []sqlite.PayoutRecord, decimals int) []JournalEntryDTO {
	dtos := make([]JournalEntryDTO, len(records))
	for i, rec := range records {
		dtos[i] = JournalEntryDTO{
			ID:         rec.ID,
			Wallet:     rec.Wallet.String(),
			Amount:     formatAmount(rec.Amount, decimals),
			Kind:       rec.Kind,
			Caller:     rec.Caller.String(),
			ExecutedAt: rec.ExecutedAt.Format(time.RFC3339),
		}
	}
	return dtos
}
