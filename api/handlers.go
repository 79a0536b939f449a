/*
handlers.go - HTTP API handlers for the FitCoin reward engine

PURPOSE:
  Exposes the reward engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Auth:
    POST   /api/auth/kakao        Exchange Kakao code for token pair
    POST   /api/auth/refresh      Exchange refresh token for access token
    GET    /api/me                Authenticated profile

  Activity:
    POST   /api/activity/steps    Record steps, earn capped coins
    POST   /api/activity/workout  Record workout minutes, earn capped coins
    GET    /api/activity/today    Today's totals and reward progress

  Assets:
    GET    /api/assets            Balance and earned totals
    GET    /api/assets/history    Paginated reward ledger

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (recorder, aggregator, auth service)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Missing/invalid tokens, rejected provider codes
  - 404: Unknown user
  - 500: Internal errors
  Reaching the daily cap is NOT an error: the activity is still recorded
  and the response carries coinsEarned 0 with an explanatory message.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fitcoin/reward-engine/auth"
	"github.com/fitcoin/reward-engine/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Recorder   *ledger.Recorder
	Aggregator *ledger.Aggregator
	Auth       *auth.Service
	Users      auth.Store

	startedAt time.Time
}

// NewHandler creates a new handler with the given dependencies.
func NewHandler(recorder *ledger.Recorder, aggregator *ledger.Aggregator, authSvc *auth.Service, users auth.Store) *Handler {
	return &Handler{
		Recorder:   recorder,
		Aggregator: aggregator,
		Auth:       authSvc,
		Users:      users,
		startedAt:  time.Now(),
	}
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports liveness and uptime.
// GET /
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthDTO{
		Status: "ok",
		Uptime: time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// KakaoLogin exchanges a Kakao authorization code for a token pair,
// creating the account on first login.
// POST /api/auth/kakao
func (h *Handler) KakaoLogin(w http.ResponseWriter, r *http.Request) {
	var req KakaoLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, "Missing authorization code", err)
		return
	}

	result, err := h.Auth.KakaoLogin(r.Context(), req.Code)
	if err != nil {
		if errors.Is(err, auth.ErrProviderRejected) {
			writeError(w, http.StatusUnauthorized, "Kakao login failed", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Login failed", err)
		return
	}

	user := toUserDTO(result.User)
	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         &user,
	})
}

// Refresh exchanges a valid refresh token for a new access token.
// POST /api/auth/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "Missing refresh token", err)
		return
	}

	access, err := h.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrRefreshRejected) {
			writeError(w, http.StatusUnauthorized, "Invalid refresh token", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Refresh failed", err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: access})
}

// Me returns the authenticated user's profile.
// GET /api/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	user, err := h.Users.UserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load user", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toUserDTO(*user))
}

// =============================================================================
// ACTIVITY HANDLERS
// =============================================================================

// RecordSteps records a batch of steps and grants capped rewards.
// POST /api/activity/steps
func (h *Handler) RecordSteps(w http.ResponseWriter, r *http.Request) {
	var req RecordStepsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.recordActivity(w, r, ledger.ActivitySteps, req.Steps)
}

// RecordWorkout records workout minutes and grants capped rewards.
// POST /api/activity/workout
func (h *Handler) RecordWorkout(w http.ResponseWriter, r *http.Request) {
	var req RecordWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.recordActivity(w, r, ledger.ActivityWorkout, req.Minutes)
}

func (h *Handler) recordActivity(w http.ResponseWriter, r *http.Request, t ledger.ActivityType, magnitude int64) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	result, err := h.Recorder.Record(r.Context(), ledger.UserID(claims.UserID), t, magnitude)
	if err != nil {
		if ledger.IsClientError(err) {
			writeError(w, http.StatusBadRequest, "Invalid activity", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to record activity", err)
		return
	}

	writeJSON(w, http.StatusOK, RecordActivityDTO{
		ID:          result.Observation.ID,
		Type:        string(result.Observation.Type),
		Value:       result.Observation.Value,
		CoinsEarned: result.Granted.Int64(),
		CreatedAt:   result.Observation.CreatedAt.Format(time.RFC3339),
		Message:     result.Message,
	})
}

// TodayActivity returns today's totals and reward progress per activity type.
// GET /api/activity/today
func (h *Handler) TodayActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	summary, err := h.Aggregator.TodaySummary(r.Context(), ledger.UserID(claims.UserID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load today's activity", err)
		return
	}

	writeJSON(w, http.StatusOK, TodaySummaryDTO{
		Steps:   toProgressDTO(summary.Steps),
		Workout: toProgressDTO(summary.Workout),
	})
}

// =============================================================================
// ASSET HANDLERS
// =============================================================================

// AssetSummary returns balance and earned totals.
// GET /api/assets
func (h *Handler) AssetSummary(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	summary, err := h.Aggregator.AssetSummary(r.Context(), ledger.UserID(claims.UserID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load assets", err)
		return
	}

	writeJSON(w, http.StatusOK, AssetSummaryDTO{
		TotalBalance: summary.TotalBalance.Int64(),
		TotalEarned:  summary.TotalEarned.Int64(),
		EarnedToday:  summary.EarnedToday.Int64(),
	})
}

// AssetHistory returns one page of the reward ledger, newest first.
// GET /api/assets/history?page=1&limit=20
func (h *Handler) AssetHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 0)

	history, err := h.Aggregator.AssetHistory(r.Context(), ledger.UserID(claims.UserID), page, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load history", err)
		return
	}

	items := make([]GrantDTO, len(history.Items))
	for i, g := range history.Items {
		items[i] = GrantDTO{
			ID:           g.ID,
			ActivityType: string(g.ActivityType),
			Amount:       g.Amount.Int64(),
			Reason:       g.Reason,
			CreatedAt:    g.CreatedAt.Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, AssetHistoryDTO{
		Items: items,
		Total: history.Total,
		Page:  history.Page,
		Limit: history.Limit,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func toUserDTO(u auth.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		KakaoID:      u.KakaoID,
		Nickname:     u.Nickname,
		ProfileImage: u.ProfileImage,
		CreatedAt:    u.CreatedAt.Format(time.RFC3339),
	}
}

func toProgressDTO(p ledger.ActivityProgress) ActivityProgressDTO {
	return ActivityProgressDTO{
		Total:         p.Total,
		RewardsEarned: p.RewardsEarned.Int64(),
		RewardsMax:    p.RewardsMax.Int64(),
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

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
