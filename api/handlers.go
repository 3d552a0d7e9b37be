/*
handlers.go - HTTP handlers for the rewards engine

PURPOSE:
  Exposes the points engine and the redemption function over REST.
  Handles HTTP request/response and JSON shaping; all decisions live
  in the domain packages.

ENDPOINTS:
  POST /api/redeem            Redeem a scanned code (THE CORE)
  GET  /api/wallet            Cached balance for the caller
  GET  /api/wallet/ledger     Ledger history for the caller
  GET  /api/wallet/reconcile  Recompute balance, report drift
  GET  /api/scans             Scan history for the caller
  GET  /api/leaderboard       Top earners, trailing 7 days
  POST /api/social            Submit a social post (stored pending)
  GET  /api/social            List the caller's submissions
  POST /api/admin/adjust      Manual ledger adjustment
  POST /api/admin/codes       Register a code

ERROR HANDLING:
  - 401: missing/invalid credential (middleware, before any handler)
  - 400: malformed body, empty code - no audit record
  - 200: policy rejections, returned in the response body
  - 500: storage failure; the accept path is atomic, so nothing
    partial was committed and the client may safely retry

CANCELLATION:
  The redemption transaction runs on a context detached from the
  client connection: a disconnect mid-flight must not abort a
  transaction that is about to commit. A bounded timeout still applies
  so nothing blocks indefinitely.

SEE ALSO:
  - dto.go: Wire shapes
  - server.go: Router and middleware
  - redeem/redeem.go: The redemption function
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/loop/rewards-engine/points"
	"github.com/loop/rewards-engine/redeem"
	"github.com/loop/rewards-engine/store/sqlite"
)

// redeemTimeout bounds the whole redemption storage interaction. On
// expiry the request fails closed with a 500 and no partial commit.
const redeemTimeout = 5 * time.Second

// leaderboardWindow is the trailing window for the earned-points
// ranking.
const leaderboardWindow = 7 * 24 * time.Hour

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Redeemer *redeem.Redeemer
	Ledger   *points.Ledger
	Log      *slog.Logger
}

// NewHandler wires a handler over the given store. A code-registry LRU
// is installed in front of lookups.
func NewHandler(store *sqlite.Store, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	cache := redeem.NewCodeCache(store, 0)
	return &Handler{
		Store:    store,
		Redeemer: redeem.NewRedeemer(store, cache),
		Ledger:   points.NewLedger(store),
		Log:      log,
	}
}

// =============================================================================
// REDEMPTION (THE CORE)
// =============================================================================

// Redeem handles POST /api/redeem.
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated", nil)
		return
	}

	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	// Detach from the client connection: an in-flight transaction runs
	// to completion or rolls back, never half-applied on disconnect.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), redeemTimeout)
	defer cancel()

	res, err := h.Redeemer.Redeem(ctx, user, req.Code, time.Now().UTC())
	if err != nil {
		if errors.Is(err, redeem.ErrEmptyCode) {
			writeError(w, http.StatusBadRequest, "Code is required", nil)
			return
		}
		h.Log.Error("redeem failed", "user", user, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}

	if !res.Accepted() {
		h.Log.Info("scan rejected", "user", user, "reason", res.Reason)
		writeJSON(w, http.StatusOK, RedeemResponse{
			Result:  string(redeem.OutcomeRejected),
			Reason:  string(res.Reason),
			Message: res.Reason.Message(),
		})
		return
	}

	awarded := res.PointsAwarded.Float64()
	balance := res.NewBalance.Float64()
	h.Log.Info("scan accepted", "user", user, "points", awarded, "balance", balance)
	writeJSON(w, http.StatusOK, RedeemResponse{
		Result:        string(redeem.OutcomeAccepted),
		PointsAwarded: &awarded,
		NewBalance:    &balance,
	})
}

// =============================================================================
// WALLET
// =============================================================================

// GetWallet handles GET /api/wallet.
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	wallet, err := h.Store.Wallet(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load wallet", err)
		return
	}

	dto := WalletDTO{UserID: string(user), Balance: wallet.Balance.Float64()}
	if !wallet.UpdatedAt.IsZero() {
		dto.UpdatedAt = wallet.UpdatedAt.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetLedger handles GET /api/wallet/ledger.
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)
	limit := queryInt(r, "limit", 50)

	entries, err := h.Ledger.History(r.Context(), user, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load ledger", err)
		return
	}

	dtos := make([]LedgerEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, LedgerEntryDTO{
			ID:        string(e.ID),
			Source:    string(e.Source),
			RefID:     e.ReferenceID,
			Delta:     e.Delta.Float64(),
			Reason:    e.Reason,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": dtos})
}

// Reconcile handles GET /api/wallet/reconcile. Recomputes the balance
// from ledger rows and compares it to the cache.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	recomputed, err := h.Ledger.Reconcile(r.Context(), user)
	var drift *points.DriftError
	if err != nil && !errors.As(err, &drift) {
		writeError(w, http.StatusInternalServerError, "Failed to reconcile", err)
		return
	}

	dto := ReconcileDTO{
		UserID:     string(user),
		Recomputed: recomputed.Float64(),
		Cached:     recomputed.Float64(),
		InSync:     true,
	}
	if drift != nil {
		h.Log.Error("wallet drift detected", "user", user,
			"cached", drift.Cached.String(), "recomputed", drift.Recomputed.String())
		dto.Cached = drift.Cached.Float64()
		dto.InSync = false
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// SCAN HISTORY
// =============================================================================

// GetScans handles GET /api/scans.
func (h *Handler) GetScans(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)
	limit := queryInt(r, "limit", 50)

	scans, err := h.Store.UserScans(r.Context(), user, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scans", err)
		return
	}

	dtos := make([]ScanEventDTO, 0, len(scans))
	for _, ev := range scans {
		dtos = append(dtos, ScanEventDTO{
			ID:           ev.ID,
			CodeID:       ev.CodeID.String(),
			Submitted:    ev.Submitted,
			Result:       string(ev.Outcome),
			RejectReason: string(ev.RejectReason),
			ScannedAt:    ev.ScannedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"scans": dtos})
}

// =============================================================================
// LEADERBOARD
// =============================================================================

// GetLeaderboard handles GET /api/leaderboard.
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	since := time.Now().UTC().Add(-leaderboardWindow)

	rows, err := h.Store.Leaderboard(r.Context(), since, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load leaderboard", err)
		return
	}

	dtos := make([]LeaderboardRowDTO, 0, len(rows))
	for i, row := range rows {
		dtos = append(dtos, LeaderboardRowDTO{
			Rank:   i + 1,
			UserID: string(row.UserID),
			Points: row.Earned.Float64(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": dtos})
}

// =============================================================================
// SOCIAL SUBMISSIONS
// =============================================================================

// SubmitSocial handles POST /api/social. Submissions are stored
// pending; review and crediting happen outside this service.
func (h *Handler) SubmitSocial(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	var req SocialSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sub, err := redeem.NewSocialSubmission(user, redeem.Platform(req.Platform), req.PostURL, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid submission", err)
		return
	}
	sub.ScreenshotURL = req.ScreenshotURL

	if err := h.Store.SaveSocialSubmission(r.Context(), sub); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save submission", err)
		return
	}

	writeJSON(w, http.StatusCreated, toSocialDTO(sub))
}

// ListSocial handles GET /api/social.
func (h *Handler) ListSocial(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r)

	subs, err := h.Store.SocialSubmissionsByUser(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load submissions", err)
		return
	}

	dtos := make([]SocialSubmissionDTO, 0, len(subs))
	for _, sub := range subs {
		dtos = append(dtos, toSocialDTO(sub))
	}
	writeJSON(w, http.StatusOK, map[string]any{"submissions": dtos})
}

func toSocialDTO(sub redeem.SocialSubmission) SocialSubmissionDTO {
	return SocialSubmissionDTO{
		ID:        sub.ID.String(),
		Platform:  string(sub.Platform),
		PostURL:   sub.PostURL,
		Status:    string(sub.Status),
		CreatedAt: sub.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// ADMIN
// =============================================================================

// CreateAdjustment handles POST /api/admin/adjust. Goes through the
// same atomic apply path as redemption.
func (h *Handler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	var req AdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	entry, err := h.Ledger.Append(r.Context(), points.LedgerEntry{
		UserID: points.UserID(req.UserID),
		Source: points.SourceAdmin,
		Delta:  points.NewPointsFromFloat(req.Delta),
		Reason: req.Reason,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create adjustment", err)
		return
	}

	writeJSON(w, http.StatusCreated, LedgerEntryDTO{
		ID:        string(entry.ID),
		Source:    string(entry.Source),
		Delta:     entry.Delta.Float64(),
		Reason:    entry.Reason,
		CreatedAt: entry.CreatedAt.Format(time.RFC3339),
	})
}

// CreateCode handles POST /api/admin/codes.
func (h *Handler) CreateCode(w http.ResponseWriter, r *http.Request) {
	var req CreateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	token := redeem.NormalizeToken(req.Token)
	if token == "" {
		writeError(w, http.StatusBadRequest, "token is required", nil)
		return
	}

	code := redeem.Code{
		ID:        uuid.New(),
		Token:     token,
		Label:     req.Label,
		Value:     points.NewPointsFromFloat(req.Value),
		IsUnique:  req.IsUnique,
		CreatedAt: time.Now().UTC(),
	}
	if req.StartsAt != "" {
		t, err := time.Parse(time.RFC3339, req.StartsAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid starts_at (use RFC3339)", err)
			return
		}
		code.StartsAt = &t
	}
	if req.EndsAt != "" {
		t, err := time.Parse(time.RFC3339, req.EndsAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid ends_at (use RFC3339)", err)
			return
		}
		code.EndsAt = &t
	}

	if err := h.Store.CreateCode(r.Context(), code); err != nil {
		if errors.Is(err, redeem.ErrDuplicateToken) {
			writeError(w, http.StatusConflict, "Token already registered", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create code", err)
		return
	}

	dto := CodeDTO{
		ID:       code.ID.String(),
		Token:    code.Token,
		Label:    code.Label,
		Value:    code.Value.Float64(),
		IsUnique: code.IsUnique,
	}
	if code.StartsAt != nil {
		dto.StartsAt = code.StartsAt.Format(time.RFC3339)
	}
	if code.EndsAt != nil {
		dto.EndsAt = code.EndsAt.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusCreated, dto)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
