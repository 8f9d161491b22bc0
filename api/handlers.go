/*
handlers.go - HTTP API handlers for the vesting coordinator

PURPOSE:
  Exposes the vesting engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the ledger, the oracle and the
  coordinator store.

ENDPOINTS:
  Schedules:
    POST   /api/schedules                   Configure a schedule
    GET    /api/schedules                   Registry listing
    GET    /api/schedules/{id}              Schedule snapshot
    POST   /api/schedules/{id}/fund         One-time funding
    POST   /api/schedules/{id}/distribute   Pool distribution
    POST   /api/schedules/{id}/claim        Self-serve claim

  Oracle (read-only):
    GET    /api/schedules/{id}/claimable    Pool view, or ?wallet= for one
    GET    /api/schedules/{id}/role         ?caller= role check

  Journal:
    GET    /api/schedules/{id}/payouts      Executed transfers

  Scenarios:
    GET    /api/scenarios                   List demo scenarios
    POST   /api/scenarios/load              Load a demo scenario

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Ledger: the writable ledger (nil when running against a read-only
    on-chain view; mutating endpoints then answer 501)
  - Reader: read-side schedule access
  - Oracle: role and claimable projections, safe error messages
  - Store:  registry and payout journal

ERROR HANDLING:
  Errors are returned as JSON with the oracle's safe message only:
  - 400: invalid input or configuration
  - 401: caller not authorized
  - 404: unknown schedule
  - 409: lifecycle conflicts (already configured/funded, cooldown,
         nothing to claim, not funded)
  - 422: state rejected by invariant or overflow checks
  - 500: everything else
  - 501: mutating call on a read-only ledger

SECURITY NOTE:
  Caller identity is taken from the request body, unauthenticated. The
  ledger re-checks identity on execution; a production deployment puts
  signature verification in front of this API.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"

	"github.com/warp/vesting-engine/ledger"
	"github.com/warp/vesting-engine/oracle"
	"github.com/warp/vesting-engine/store/sqlite"
	"github.com/warp/vesting-engine/vesting"
)

// defaultAssetDecimals applies when a schedule is not in the registry
// (e.g. created directly on-chain).
const defaultAssetDecimals = 9

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger     ledger.Ledger // nil in read-only mode
	Reader     ledger.Reader
	Oracle     *oracle.Oracle
	Store      *sqlite.Store
	Clock      clockwork.Clock
	Log        *slog.Logger
	LedgerKind string

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a handler around a writable ledger.
func NewHandler(l ledger.Ledger, store *sqlite.Store, clock clockwork.Clock, log *slog.Logger) *Handler {
	return &Handler{
		Ledger:     l,
		Reader:     l,
		Oracle:     oracle.New(l, oracle.WithClock(clock), oracle.WithLogger(log)),
		Store:      store,
		Clock:      clock,
		Log:        log.With("component", "api"),
		LedgerKind: "memory",
	}
}

// NewReadOnlyHandler creates a handler over a read-only ledger view.
// Mutating endpoints answer 501.
func NewReadOnlyHandler(r ledger.Reader, store *sqlite.Store, clock clockwork.Clock, log *slog.Logger, kind string) *Handler {
	return &Handler{
		Reader:     r,
		Oracle:     oracle.New(r, oracle.WithClock(clock), oracle.WithLogger(log)),
		Store:      store,
		Clock:      clock,
		Log:        log.With("component", "api"),
		LedgerKind: kind,
	}
}

// =============================================================================
// SCHEDULE LIFECYCLE
// =============================================================================

// ConfigureSchedule creates a new schedule.
// POST /api/schedules
func (h *Handler) ConfigureSchedule(w http.ResponseWriter, r *http.Request) {
	if h.Ledger == nil {
		writeReadOnly(w)
		return
	}

	var req ConfigureScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	cfg, err := h.toConfig(req)
	if err != nil {
		writeBadRequest(w, oracle.SafeMessage(err))
		return
	}

	id, err := h.Ledger.Configure(r.Context(), cfg)
	if err != nil {
		writeDomainError(w, h.Log, err)
		return
	}

	decimals := req.AssetDecimals
	if decimals <= 0 {
		decimals = defaultAssetDecimals
	}
	rec := sqlite.ScheduleRecord{
		ID:            id,
		LedgerKind:    h.LedgerKind,
		Name:          req.Name,
		AssetDecimals: decimals,
		CreatedAt:     h.Clock.Now(),
	}
	if err := h.Store.RegisterSchedule(r.Context(), rec); err != nil {
		// The schedule exists on the ledger; a registry failure must not
		// hide it from the caller.
		h.Log.Error("failed to register schedule", "schedule", id.String(), "error", err)
	}

	schedulesConfigured.Inc()
	h.Log.Info("schedule configured", "schedule", id.String(), "name", req.Name)

	s, err := h.Reader.GetSchedule(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toScheduleDTO(id, s, &rec))
}

func (h *Handler) toConfig(req ConfigureScheduleRequest) (vesting.Config, error) {
	admin, err := vesting.ParseAddress(req.Administrator)
	if err != nil {
		return vesting.Config{}, err
	}
	asset, err := vesting.ParseAddress(req.Asset)
	if err != nil {
		return vesting.Config{}, err
	}

	var policy vesting.ClaimPolicy
	switch req.Policy {
	case "", vesting.PolicyAdministrator.String():
		policy = vesting.PolicyAdministrator
	case vesting.PolicySelfServe.String():
		policy = vesting.PolicySelfServe
	default:
		return vesting.Config{}, vesting.ErrInvalidConfiguration
	}

	recipients := make([]vesting.RecipientShare, len(req.Recipients))
	for i, rs := range req.Recipients {
		wallet, err := vesting.ParseAddress(rs.Wallet)
		if err != nil {
			return vesting.Config{}, err
		}
		recipients[i] = vesting.RecipientShare{Wallet: wallet, ShareBps: vesting.Fraction(rs.ShareBps)}
	}

	return vesting.Config{
		Administrator:  admin,
		Asset:          asset,
		CliffSeconds:   req.CliffSeconds,
		VestingSeconds: req.VestingSeconds,
		TGEBps:         vesting.Fraction(req.TGEBps),
		Policy:         policy,
		Recipients:     recipients,
	}, nil
}

// FundSchedule deposits the one-time total.
// POST /api/schedules/{id}/fund
func (h *Handler) FundSchedule(w http.ResponseWriter, r *http.Request) {
	if h.Ledger == nil {
		writeReadOnly(w)
		return
	}
	id, ok := h.scheduleID(w, r)
	if !ok {
		return
	}

	var req FundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	funder, err := vesting.ParseAddress(req.Funder)
	if err != nil {
		writeBadRequest(w, "invalid funder address")
		return
	}
	amount, err := parseAmount(req.Amount, h.assetDecimals(r, id))
	if err != nil {
		writeBadRequest(w, "invalid amount")
		return
	}

	if err := h.Ledger.Fund(r.Context(), id, funder, amount); err != nil {
		writeDomainError(w, h.Log, err)
		return
	}

	h.Log.Info("schedule funded", "schedule", id.String(), "amount", amount)

	s, err := h.Reader.GetSchedule(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(id, s, h.registryRecord(r, id)))
}

// Distribute executes a pool-wide payout.
// POST /api/schedules/{id}/distribute
func (h *Handler) Distribute(w http.ResponseWriter, r *http.Request) {
	if h.Ledger == nil {
		writeReadOnly(w)
		return
	}
	id, ok := h.scheduleID(w, r)
	if !ok {
		return
	}

	var req DistributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	caller, err := vesting.ParseAddress(req.Caller)
	if err != nil {
		writeBadRequest(w, "invalid caller address")
		return
	}
	var destinations []vesting.Address
	for _, d := range req.Destinations {
		dest, err := vesting.ParseAddress(d)
		if err != nil {
			writeBadRequest(w, "invalid destination address")
			return
		}
		destinations = append(destinations, dest)
	}

	res, err := h.Ledger.Distribute(r.Context(), id, caller, destinations)
	if err != nil {
		writeDomainError(w, h.Log, err)
		return
	}

	if err := h.Store.RecordPayouts(r.Context(), id, sqlite.PayoutDistribute, caller, h.Clock.Now(), res.PerRecipient); err != nil {
		h.Log.Error("failed to journal distribution", "schedule", id.String(), "error", err)
	}
	distributionsExecuted.Inc()
	tokensDistributed.Add(float64(res.Transferred))
	h.Log.Info("distribution executed",
		"schedule", id.String(),
		"transferred", res.Transferred,
		"recipients", len(res.PerRecipient))

	decimals := h.assetDecimals(r, id)
	payouts := make([]PayoutDTO, len(res.PerRecipient))
	for i, p := range res.PerRecipient {
		payouts[i] = PayoutDTO{Wallet: p.Wallet.String(), Amount: formatAmount(p.Amount, decimals)}
	}
	writeJSON(w, http.StatusOK, DistributionResponseDTO{
		ScheduleID:  id.String(),
		Transferred: formatAmount(res.Transferred, decimals),
		Payouts:     payouts,
	})
}

// Claim executes a self-serve claim.
// POST /api/schedules/{id}/claim
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	if h.Ledger == nil {
		writeReadOnly(w)
		return
	}
	id, ok := h.scheduleID(w, r)
	if !ok {
		return
	}

	var req ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	caller, err := vesting.ParseAddress(req.Caller)
	if err != nil {
		writeBadRequest(w, "invalid caller address")
		return
	}

	res, err := h.Ledger.Claim(r.Context(), id, caller)
	if err != nil {
		writeDomainError(w, h.Log, err)
		return
	}

	payout := []vesting.RecipientPayout{{Wallet: res.Wallet, Amount: res.Transferred}}
	if err := h.Store.RecordPayouts(r.Context(), id, sqlite.PayoutClaim, caller, h.Clock.Now(), payout); err != nil {
		h.Log.Error("failed to journal claim", "schedule", id.String(), "error", err)
	}
	claimsExecuted.Inc()
	tokensDistributed.Add(float64(res.Transferred))
	h.Log.Info("claim executed", "schedule", id.String(), "wallet", caller.String(), "amount", res.Transferred)

	writeJSON(w, http.StatusOK, ClaimResponseDTO{
		ScheduleID:  id.String(),
		Wallet:      res.Wallet.String(),
		Transferred: formatAmount(res.Transferred, h.assetDecimals(r, id)),
	})
}

// =============================================================================
// READ SIDE
// =============================================================================

// ListSchedules returns the registry.
// GET /api/schedules
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListSchedules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	dtos := make([]ScheduleListItemDTO, len(records))
	for i, rec := range records {
		dtos[i] = ScheduleListItemDTO{
			ID:            rec.ID.String(),
			Name:          rec.Name,
			LedgerKind:    rec.LedgerKind,
			AssetDecimals: rec.AssetDecimals,
			CreatedAt:     rec.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSchedule returns a live snapshot.
// GET /api/schedules/{id}
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.scheduleID(w, r)
	if !ok {
		return
	}

	s, err := h.Reader.GetSchedule(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(id, s, h.registryRecord(r, id)))
}

// GetClaimable returns the oracle's claimable view.
// GET /api/schedules/{id}/claimable[?wallet=...]
func (h *Handler) GetClaimable(w http.ResponseWriter, r *http.Request) {
	id, ok := h.scheduleID(w, r)
	if !ok {
		return
	}
	decimals := h.assetDecimals(r, id)

	if walletParam := r.URL.Query().Get("wallet"); walletParam != "" {
		wallet, err := vesting.ParseAddress(walletParam)
		if err != nil {
			writeBadRequest(w, "invalid wallet address")
			return
		}
		amount, err := h.Oracle.ClaimableFor(r.Context(), id, wallet)
		if err != nil {
			writeDomainError(w, h.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, WalletClaimableDTO{
			ScheduleID: id.String(),
			Wallet:     wallet.String(),
			Claimable:  formatAmount(amount, decimals),
		})
		return
	}

	view, err := h.Oracle.Claimable(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.Log, err)
		return
	}
	recipients := make([]PayoutDTO, len(view.Recipients))
	for i, rc := range view.Recipients {
		recipients[i] = PayoutDTO{Wallet: rc.Wallet.String(), Amount: formatAmount(rc.Amount, decimals)}
	}
	writeJSON(w, http.StatusOK, ClaimableDTO{
		ScheduleID:  id.String(),
		AsOf:        view.AsOf,
		State:       view.State.String(),
		UnlockedBps: uint16(view.UnlockedBps),
		Total:       formatAmount(view.Total, decimals),
		Recipients:  recipients,
	})
}

// GetRole returns the oracle's role projection for a caller.
// GET /api/schedules/{id}/role?caller=...
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.scheduleID(w, r)
	if !ok {
		return
	}
	caller, err := vesting.ParseAddress(r.URL.Query().Get("caller"))
	if err != nil {
		writeBadRequest(w, "invalid caller address")
		return
	}

	info, err := h.Oracle.VerifyCallerRole(r.Context(), id, caller)
	if err != nil {
		writeDomainError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoleDTO(id, caller, info))
}

// ListPayouts returns the payout journal for a schedule.
// GET /api/schedules/{id}/payouts[?limit=N]
func (h *Handler) ListPayouts(w http.ResponseWriter, r *http.Request) {
	id, ok := h.scheduleID(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := h.Store.ListPayouts(r.Context(), id, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, toJournalDTOs(records, h.assetDecimals(r, id)))
}

// Healthz reports liveness.
// GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) scheduleID(w http.ResponseWriter, r *http.Request) (vesting.ScheduleID, bool) {
	id, err := vesting.ParseAddress(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "invalid schedule id")
		return vesting.ScheduleID{}, false
	}
	return id, true
}

func (h *Handler) registryRecord(r *http.Request, id vesting.ScheduleID) *sqlite.ScheduleRecord {
	rec, err := h.Store.GetSchedule(r.Context(), id)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			h.Log.Warn("registry lookup failed", "schedule", id.String(), "error", err)
		}
		return nil
	}
	return rec
}

func (h *Handler) assetDecimals(r *http.Request, id vesting.ScheduleID) int {
	if rec := h.registryRecord(r, id); rec != nil {
		return rec.AssetDecimals
	}
	return defaultAssetDecimals
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, message)
}

func writeReadOnly(w http.ResponseWriter) {
	writeError(w, http.StatusNotImplemented, "ledger is read-only")
}

// writeDomainError maps the domain taxonomy onto HTTP statuses. The body
// only ever carries the oracle's safe message.
func writeDomainError(w http.ResponseWriter, log *slog.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, vesting.ErrInvalidConfiguration),
		errors.Is(err, vesting.ErrInvalidAmount):
		status = http.StatusBadRequest
	case errors.Is(err, vesting.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, vesting.ErrUnknownSchedule):
		status = http.StatusNotFound
	case errors.Is(err, vesting.ErrAlreadyConfigured),
		errors.Is(err, vesting.ErrAlreadyFunded),
		errors.Is(err, vesting.ErrNotFunded),
		errors.Is(err, vesting.ErrCooldownActive),
		errors.Is(err, vesting.ErrNothingToClaim),
		errors.Is(err, vesting.ErrDestinationMismatch):
		status = http.StatusConflict
	case errors.Is(err, vesting.ErrArithmeticOverflow),
		errors.Is(err, vesting.ErrInvariantViolation),
		errors.Is(err, vesting.ErrBadAccountData):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		log.Error("request failed", "error", err)
	}
	writeError(w, status, oracle.SafeMessage(err))
}
