package recommend

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"vanrental/internal/auth"
)

const (
	defaultRecommendLimit    = 6
	defaultPersonalizedLimit = 4
	defaultHistoryLimit      = 10
)

// Handler serves recommendation routes. All routes sit behind auth.Optional,
// so an identity may or may not be present.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc:    svc,
		logger: slog.Default().With("component", "recommend-handler"),
	}
}

type needRequest struct {
	Need string `json:"need"`
}

// Recommend handles POST /api/recommendations.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req needRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	need := strings.TrimSpace(req.Need)
	if need == "" {
		h.writeError(w, http.StatusBadRequest, "Please describe what you need the van for.")
		return
	}

	var userID int64
	if identity, ok := auth.FromContext(r.Context()); ok {
		userID = identity.UserID
	}

	result, err := h.svc.Recommend(r.Context(), need, userID, defaultRecommendLimit)
	if err != nil {
		h.logger.Error("recommendation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "recommendation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// PersonalizedRecommendations handles GET /api/recommendations/personalized.
// Anonymous users get the generic popular set with a login nudge.
func (h *Handler) PersonalizedRecommendations(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		result, err := h.svc.Recommend(r.Context(), "popular vans", 0, defaultRecommendLimit)
		if err != nil {
			h.logger.Error("recommendation failed", "error", err)
			h.writeError(w, http.StatusInternalServerError, "recommendation failed")
			return
		}
		result.Reason = "Log in to see personalized recommendations"
		h.writeJSON(w, http.StatusOK, result)
		return
	}

	result, err := h.svc.PersonalizedRecommendations(r.Context(), identity.UserID, defaultPersonalizedLimit)
	if err != nil {
		h.logger.Error("personalized recommendation failed", "user_id", identity.UserID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "recommendation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// History handles GET /api/recommendations/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Please log in to view your booking history.")
		return
	}
	history, err := h.svc.BookingHistory(r.Context(), identity.UserID, defaultHistoryLimit)
	if err != nil {
		h.logger.Error("history lookup failed", "user_id", identity.UserID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to load booking history")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

// Analyze handles POST /api/recommendations/analyze, exposing the raw rule
// scores for debugging and previews.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req needRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Need == "" {
		h.writeError(w, http.StatusBadRequest, "need is required")
		return
	}
	h.writeJSON(w, http.StatusOK, AnalyzeNeed(req.Need))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
