package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vesting-engine/ledger/memory"
	"github.com/warp/vesting-engine/store/sqlite"
	"github.com/warp/vesting-engine/vesting"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type fixture struct {
	handler *Handler
	router  http.Handler
	ledger  *memory.Ledger
	clock   *clockwork.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	l := memory.New(memory.WithClock(clock))
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(l, store, clock, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return &fixture{handler: h, router: NewRouter(h), ledger: l, clock: clock}
}

func addr(b byte) vesting.Address {
	var a vesting.Address
	for i := range a {
		a[i] = b
	}
	return a
}

var (
	admin   = addr(0xAA)
	asset   = addr(0xBB)
	walletA = addr(0x01)
	walletB = addr(0x02)
)

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func configureRequest(policy string) ConfigureScheduleRequest {
	return ConfigureScheduleRequest{
		Name:           "test schedule",
		Administrator:  admin.String(),
		Asset:          asset.String(),
		AssetDecimals:  6,
		VestingSeconds: 1000,
		TGEBps:         1000,
		Policy:         policy,
		Recipients: []RecipientShareDTO{
			{Wallet: walletA.String(), ShareBps: 6000},
			{Wallet: walletB.String(), ShareBps: 4000},
		},
	}
}

// configureAndFund walks a schedule to ACTIVE through the API.
func (f *fixture) configureAndFund(t *testing.T, policy string) string {
	t.Helper()
	rec := f.do(t, "POST", "/api/schedules", configureRequest(policy))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dto := decode[ScheduleDTO](t, rec)

	f.ledger.Mint(admin, asset, 2_000_000)
	rec = f.do(t, "POST", "/api/schedules/"+dto.ID+"/fund", FundRequest{
		Funder: admin.String(),
		Amount: "1", // 1.0 tokens at 6 decimals = 1_000_000 base units
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return dto.ID
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestConfigure_CreatesScheduleAndRegistryRow(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, "POST", "/api/schedules", configureRequest("administrator"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	dto := decode[ScheduleDTO](t, rec)
	assert.Equal(t, "configured", dto.State)
	assert.Equal(t, "administrator", dto.Policy)
	assert.Equal(t, "test schedule", dto.Name)
	require.Len(t, dto.Recipients, 2)
	assert.Equal(t, uint16(6000), dto.Recipients[0].ShareBps)

	list := decode[[]ScheduleListItemDTO](t, f.do(t, "GET", "/api/schedules", nil))
	require.Len(t, list, 1)
	assert.Equal(t, dto.ID, list[0].ID)
	assert.Equal(t, "memory", list[0].LedgerKind)
}

func TestConfigure_BadShares(t *testing.T) {
	f := newFixture(t)

	req := configureRequest("administrator")
	req.Recipients[1].ShareBps = 3999

	rec := f.do(t, "POST", "/api/schedules", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid schedule configuration", decode[ErrorResponse](t, rec).Error)
}

func TestConfigure_DuplicateConflicts(t *testing.T) {
	f := newFixture(t)

	f.do(t, "POST", "/api/schedules", configureRequest("administrator"))
	rec := f.do(t, "POST", "/api/schedules", configureRequest("administrator"))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestFund_DecimalAmountsAndDoubleFunding(t *testing.T) {
	f := newFixture(t)
	id := f.configureAndFund(t, "administrator")

	dto := decode[ScheduleDTO](t, f.do(t, "GET", "/api/schedules/"+id, nil))
	assert.Equal(t, "active", dto.State)
	assert.Equal(t, uint64(1_000_000), dto.TotalAmount.BaseUnits)
	assert.Equal(t, "1", dto.TotalAmount.Display)

	rec := f.do(t, "POST", "/api/schedules/"+id+"/fund", FundRequest{Funder: admin.String(), Amount: "1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "schedule already funded", decode[ErrorResponse](t, rec).Error)
}

func TestFund_RejectsTooPreciseAmount(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, "POST", "/api/schedules", configureRequest("administrator"))
	dto := decode[ScheduleDTO](t, rec)

	resp := f.do(t, "POST", "/api/schedules/"+dto.ID+"/fund", FundRequest{
		Funder: admin.String(),
		Amount: "1.0000001", // 7 decimal places against 6 registered
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

// =============================================================================
// DISTRIBUTION AND CLAIMS
// =============================================================================

func TestDistribute_FullFlow(t *testing.T) {
	f := newFixture(t)
	id := f.configureAndFund(t, "administrator")

	rec := f.do(t, "POST", "/api/schedules/"+id+"/distribute", DistributeRequest{Caller: admin.String()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[DistributionResponseDTO](t, rec)
	assert.Equal(t, uint64(100_000), res.Transferred.BaseUnits)
	assert.Equal(t, "0.1", res.Transferred.Display)
	require.Len(t, res.Payouts, 2)
	assert.Equal(t, uint64(60_000), res.Payouts[0].Amount.BaseUnits)

	// The journal has one row per transfer.
	journal := decode[[]JournalEntryDTO](t, f.do(t, "GET", "/api/schedules/"+id+"/payouts", nil))
	require.Len(t, journal, 2)
	assert.Equal(t, "distribute", journal[0].Kind)

	// Cooldown surfaces as a conflict.
	f.clock.Advance(30 * time.Second)
	rec = f.do(t, "POST", "/api/schedules/"+id+"/distribute", DistributeRequest{Caller: admin.String()})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "cooldown active", decode[ErrorResponse](t, rec).Error)
}

func TestDistribute_WrongCallerUnauthorized(t *testing.T) {
	f := newFixture(t)
	id := f.configureAndFund(t, "administrator")

	rec := f.do(t, "POST", "/api/schedules/"+id+"/distribute", DistributeRequest{Caller: walletA.String()})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "caller not authorized", decode[ErrorResponse](t, rec).Error)
}

func TestDistribute_ForgedDestinations(t *testing.T) {
	f := newFixture(t)
	id := f.configureAndFund(t, "administrator")

	forged := vesting.HoldingAccountFor(addr(0x66), asset)
	rec := f.do(t, "POST", "/api/schedules/"+id+"/distribute", DistributeRequest{
		Caller:       admin.String(),
		Destinations: []string{forged.String(), forged.String()},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "destination accounts do not match", decode[ErrorResponse](t, rec).Error)
}

func TestClaim_SelfServeFlow(t *testing.T) {
	f := newFixture(t)
	id := f.configureAndFund(t, "self-serve")

	rec := f.do(t, "POST", "/api/schedules/"+id+"/claim", ClaimRequest{Caller: walletA.String()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[ClaimResponseDTO](t, rec)
	assert.Equal(t, uint64(60_000), res.Transferred.BaseUnits)

	journal := decode[[]JournalEntryDTO](t, f.do(t, "GET", "/api/schedules/"+id+"/payouts", nil))
	require.Len(t, journal, 1)
	assert.Equal(t, "claim", journal[0].Kind)
	assert.Equal(t, walletA.String(), journal[0].Caller)

	// Pool distribution is off under self-serve.
	rec = f.do(t, "POST", "/api/schedules/"+id+"/distribute", DistributeRequest{Caller: admin.String()})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =============================================================================
// ORACLE VIEWS
// =============================================================================

func TestClaimable_PoolAndWallet(t *testing.T) {
	f := newFixture(t)
	id := f.configureAndFund(t, "administrator")

	view := decode[ClaimableDTO](t, f.do(t, "GET", "/api/schedules/"+id+"/claimable", nil))
	assert.Equal(t, uint16(1000), view.UnlockedBps)
	assert.Equal(t, uint64(100_000), view.Total.BaseUnits)

	f.clock.Advance(500 * time.Second)
	single := decode[WalletClaimableDTO](t, f.do(t, "GET", fmt.Sprintf("/api/schedules/%s/claimable?wallet=%s", id, walletA), nil))
	assert.Equal(t, uint64(330_000), single.Claimable.BaseUnits)
}

func TestRole_Endpoint(t *testing.T) {
	f := newFixture(t)
	id := f.configureAndFund(t, "administrator")

	role := decode[RoleDTO](t, f.do(t, "GET", fmt.Sprintf("/api/schedules/%s/role?caller=%s", id, admin), nil))
	assert.Equal(t, "administrator", role.Role)
	assert.True(t, role.CanDistribute)

	role = decode[RoleDTO](t, f.do(t, "GET", fmt.Sprintf("/api/schedules/%s/role?caller=%s", id, walletB), nil))
	assert.Equal(t, "recipient", role.Role)
	require.NotNil(t, role.RecipientIndex)
	assert.Equal(t, 1, *role.RecipientIndex)
	assert.Equal(t, uint16(4000), role.ShareBps)
}

func TestUnknownScheduleIs404(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, "GET", "/api/schedules/"+addr(0x42).String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "schedule not found", decode[ErrorResponse](t, rec).Error)
}

// =============================================================================
// SCENARIOS AND READ-ONLY MODE
// =============================================================================

func TestScenarios_LoadSeedsLedgerAndRegistry(t *testing.T) {
	f := newFixture(t)

	list := decode[[]ScenarioDTO](t, f.do(t, "GET", "/api/scenarios", nil))
	require.NotEmpty(t, list)

	rec := f.do(t, "POST", "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "community-round"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	loaded := decode[map[string]string](t, rec)

	dto := decode[ScheduleDTO](t, f.do(t, "GET", "/api/schedules/"+loaded["schedule_id"], nil))
	assert.Equal(t, "active", dto.State)
	assert.Equal(t, "self-serve", dto.Policy)
	require.Len(t, dto.Recipients, 4)

	rec = f.do(t, "POST", "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReadOnlyMode_MutationsAre501(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	l := memory.New(memory.WithClock(clock))
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	// Reader-only wiring: the same ledger, but without write access.
	h := NewReadOnlyHandler(l, store, clock, slog.New(slog.NewTextHandler(io.Discard, nil)), "solana")
	router := NewRouter(h)

	seed := func(method, path string, body any) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(body)
		req := httptest.NewRequest(method, path, bytes.NewReader(raw))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNotImplemented, seed("POST", "/api/schedules", configureRequest("administrator")).Code)
	assert.Equal(t, http.StatusNotImplemented, seed("POST", "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "community-round"}).Code)

	ctx := context.Background()
	id, err := l.Configure(ctx, vesting.Config{
		Administrator:  admin,
		Asset:          asset,
		VestingSeconds: 1000,
		TGEBps:         0,
		Policy:         vesting.PolicyAdministrator,
		Recipients:     []vesting.RecipientShare{{Wallet: walletA, ShareBps: 10_000}},
	})
	require.NoError(t, err)

	// Reads still work.
	rec := seed("GET", "/api/schedules/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, "GET", "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
