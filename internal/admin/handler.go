package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"vanrental/internal/auth"
	apperrors "vanrental/pkg/errors"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Handler serves the admin API. Routes must be wrapped with both
// auth.Required and RequireAdmin.
type Handler struct {
	store  *Store
	logger *slog.Logger
}

func NewHandler(store *Store) *Handler {
	return &Handler{
		store:  store,
		logger: slog.Default().With("component", "admin-handler"),
	}
}

// RequireAdmin rejects callers whose account does not hold the admin role.
// It assumes auth.Required already ran.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.FromContext(r.Context())
		if !ok {
			h.writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		isAdmin, err := h.store.IsAdmin(r.Context(), identity.UserID)
		if err != nil {
			h.logger.Error("role lookup failed", "user_id", identity.UserID, "error", err)
			h.writeError(w, http.StatusInternalServerError, "role lookup failed")
			return
		}
		if !isAdmin {
			h.writeError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Stats handles GET /api/admin/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.DashboardStats(r.Context())
	if err != nil {
		h.logger.Error("dashboard stats failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// ListUsers handles GET /api/admin/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	result, err := h.store.ListUsers(r.Context(), page, limit, r.URL.Query().Get("search"))
	if err != nil {
		h.logger.Error("listing users failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"users":      result.Items,
		"total":      result.Total,
		"page":       result.PageNumber,
		"totalPages": result.TotalPages,
	})
}

// UpdateUser handles PATCH /api/admin/users/{id}.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var upd UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.store.UpdateUser(r.Context(), id, upd)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidInput):
			h.writeError(w, http.StatusBadRequest, "No valid fields to update")
		case errors.Is(err, apperrors.ErrNotFound):
			h.writeError(w, http.StatusNotFound, "User not found")
		default:
			h.logger.Error("updating user failed", "id", id, "error", err)
			h.writeError(w, http.StatusInternalServerError, "failed to update user")
		}
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /api/admin/users/{id}. Admins cannot delete
// their own account.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if identity, ok := auth.FromContext(r.Context()); ok && identity.UserID == id {
		h.writeError(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}
	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("deleting user failed", "id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

// ListVans handles GET /api/admin/vans.
func (h *Handler) ListVans(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	result, err := h.store.ListVans(r.Context(), page, limit, r.URL.Query().Get("type"))
	if err != nil {
		h.logger.Error("listing vans failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list vans")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"vans":       result.Items,
		"total":      result.Total,
		"page":       result.PageNumber,
		"totalPages": result.TotalPages,
	})
}

// CreateVan handles POST /api/admin/vans.
func (h *Handler) CreateVan(w http.ResponseWriter, r *http.Request) {
	var van Van
	if err := json.NewDecoder(r.Body).Decode(&van); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if van.Name == "" || van.Type == "" || van.Capacity <= 0 || van.PricePerDay <= 0 {
		h.writeError(w, http.StatusBadRequest, "Name, type, capacity, and price are required")
		return
	}
	created, err := h.store.CreateVan(r.Context(), van)
	if err != nil {
		h.logger.Error("creating van failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create van")
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

// UpdateVan handles PATCH /api/admin/vans/{id}.
func (h *Handler) UpdateVan(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid van id")
		return
	}
	var upd VanUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	van, err := h.store.UpdateVan(r.Context(), id, upd)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidInput):
			h.writeError(w, http.StatusBadRequest, "No valid fields to update")
		case errors.Is(err, apperrors.ErrNotFound):
			h.writeError(w, http.StatusNotFound, "Van not found")
		default:
			h.logger.Error("updating van failed", "id", id, "error", err)
			h.writeError(w, http.StatusInternalServerError, "failed to update van")
		}
		return
	}
	h.writeJSON(w, http.StatusOK, van)
}

// DeleteVan handles DELETE /api/admin/vans/{id}.
func (h *Handler) DeleteVan(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid van id")
		return
	}
	if err := h.store.DeleteVan(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidInput):
			h.writeError(w, http.StatusBadRequest, "Cannot delete van with active bookings")
		case errors.Is(err, apperrors.ErrNotFound):
			h.writeError(w, http.StatusNotFound, "Van not found")
		default:
			h.logger.Error("deleting van failed", "id", id, "error", err)
			h.writeError(w, http.StatusInternalServerError, "failed to delete van")
		}
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Van deleted successfully"})
}

// ListBookings handles GET /api/admin/bookings.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	page, limit := pagination(r)
	result, err := h.store.ListBookings(r.Context(), page, limit, r.URL.Query().Get("status"))
	if err != nil {
		h.logger.Error("listing bookings failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"bookings":   result.Items,
		"total":      result.Total,
		"page":       result.PageNumber,
		"totalPages": result.TotalPages,
	})
}

// UpdateBookingStatus handles PATCH /api/admin/bookings/{id}/status.
func (h *Handler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch req.Status {
	case "confirmed", "cancelled", "completed":
	default:
		h.writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	booking, err := h.store.UpdateBookingStatus(r.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "Booking not found")
			return
		}
		h.logger.Error("updating booking status failed", "id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to update booking")
		return
	}
	h.writeJSON(w, http.StatusOK, booking)
}

func pagination(r *http.Request) (page, limit int) {
	page, limit = 1, defaultPageLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= maxPageLimit {
		limit = v
	}
	return page, limit
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
