/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the in-process ledger with
	realistic schedules for demos and manual testing. Each scenario mints
	tokens, configures a schedule, funds it, and registers it with the
	coordinator.

AVAILABLE SCENARIOS:

	team-allocation:   administrator policy, 90-day cliff, 1-year vesting
	community-round:   self-serve policy, no cliff, 10% TGE
	advisor-cliff:     administrator policy, zero TGE, everything gated
	                   behind the cliff

HOW SCENARIOS WORK:
 1. Mint the total to the scenario's administrator
 2. Configure the schedule
 3. Fund it (start time = now)
 4. Register it in the coordinator store

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "community-round"}

NOTE:

	Scenarios need the in-process ledger (tokens are minted out of thin
	air). Against a real chain the endpoint answers 501.

SEE ALSO:
  - server.go: route wiring
  - ledger/memory: the ledger scenarios run on
*/
package api

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/vesting-engine/ledger/memory"
	"github.com/warp/vesting-engine/store/sqlite"
	"github.com/warp/vesting-engine/vesting"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ID          string
	Name        string
	Description string
	Load        func(ctx context.Context, h *Handler, l *memory.Ledger) (vesting.ScheduleID, error)
}

var scenarios = []scenario{
	{
		ID:          "team-allocation",
		Name:        "Team allocation",
		Description: "10M tokens for three team members: 90-day cliff, 1-year linear vesting, administrator pushes payouts.",
		Load:        loadTeamAllocation,
	},
	{
		ID:          "community-round",
		Name:        "Community round",
		Description: "1M tokens for four community wallets: 10% at TGE, 180-day linear vesting, recipients claim themselves.",
		Load:        loadCommunityRound,
	},
	{
		ID:          "advisor-cliff",
		Name:        "Advisor cliff",
		Description: "500k tokens for one advisor: nothing before the 90-day cliff, then linear over the rest of the year.",
		Load:        loadAdvisorCliff,
	},
}

// demoAddress derives a stable, recognizable address for scenario data.
func demoAddress(label string) vesting.Address {
	return vesting.Address(sha256.Sum256([]byte("demo/" + label)))
}

const day = int64(24 * 3600)

func loadScheduleScenario(ctx context.Context, h *Handler, l *memory.Ledger, name string, total uint64, cfg vesting.Config) (vesting.ScheduleID, error) {
	l.Mint(cfg.Administrator, cfg.Asset, total)

	id, err := l.Configure(ctx, cfg)
	if err != nil {
		return vesting.ScheduleID{}, err
	}
	if err := l.Fund(ctx, id, cfg.Administrator, total); err != nil {
		return vesting.ScheduleID{}, err
	}

	err = h.Store.RegisterSchedule(ctx, sqlite.ScheduleRecord{
		ID:            id,
		LedgerKind:    h.LedgerKind,
		Name:          name,
		AssetDecimals: 6,
		CreatedAt:     h.Clock.Now(),
	})
	return id, err
}

func loadTeamAllocation(ctx context.Context, h *Handler, l *memory.Ledger) (vesting.ScheduleID, error) {
	return loadScheduleScenario(ctx, h, l, "Team allocation", 10_000_000_000_000, vesting.Config{
		Administrator:  demoAddress("team/admin"),
		Asset:          demoAddress("asset/wrp"),
		CliffSeconds:   90 * day,
		VestingSeconds: 365 * day,
		TGEBps:         0,
		Policy:         vesting.PolicyAdministrator,
		Recipients: []vesting.RecipientShare{
			{Wallet: demoAddress("team/alice"), ShareBps: 4000},
			{Wallet: demoAddress("team/bob"), ShareBps: 3500},
			{Wallet: demoAddress("team/carol"), ShareBps: 2500},
		},
	})
}

func loadCommunityRound(ctx context.Context, h *Handler, l *memory.Ledger) (vesting.ScheduleID, error) {
	return loadScheduleScenario(ctx, h, l, "Community round", 1_000_000_000_000, vesting.Config{
		Administrator:  demoAddress("community/admin"),
		Asset:          demoAddress("asset/wrp"),
		CliffSeconds:   0,
		VestingSeconds: 180 * day,
		TGEBps:         1000,
		Policy:         vesting.PolicySelfServe,
		Recipients: []vesting.RecipientShare{
			{Wallet: demoAddress("community/w1"), ShareBps: 2500},
			{Wallet: demoAddress("community/w2"), ShareBps: 2500},
			{Wallet: demoAddress("community/w3"), ShareBps: 2500},
			{Wallet: demoAddress("community/w4"), ShareBps: 2500},
		},
	})
}

func loadAdvisorCliff(ctx context.Context, h *Handler, l *memory.Ledger) (vesting.ScheduleID, error) {
	return loadScheduleScenario(ctx, h, l, "Advisor cliff", 500_000_000_000, vesting.Config{
		Administrator:  demoAddress("advisor/admin"),
		Asset:          demoAddress("asset/wrp"),
		CliffSeconds:   90 * day,
		VestingSeconds: 365 * day,
		TGEBps:         0,
		Policy:         vesting.PolicyAdministrator,
		Recipients: []vesting.RecipientShare{
			{Wallet: demoAddress("advisor/dana"), ShareBps: 10_000},
		},
	})
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns the available demo scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, _ *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = ScenarioDTO{ID: s.ID, Name: s.Name, Description: s.Description}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadScenario seeds one scenario onto the in-process ledger.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	mem, ok := h.Ledger.(*memory.Ledger)
	if !ok {
		writeReadOnly(w)
		return
	}

	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	for _, s := range scenarios {
		if s.ID != req.ScenarioID {
			continue
		}
		id, err := s.Load(r.Context(), h, mem)
		if err != nil {
			writeDomainError(w, h.Log, err)
			return
		}
		h.currentScenario = s.ID
		h.Log.Info("scenario loaded", "scenario", s.ID, "schedule", id.String())
		writeJSON(w, http.StatusOK, map[string]string{
			"scenario_id": s.ID,
			"schedule_id": id.String(),
		})
		return
	}

	writeBadRequest(w, fmt.Sprintf("unknown scenario %q", req.ScenarioID))
}
