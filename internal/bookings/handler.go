package bookings

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"vanrental/internal/analytics"
	"vanrental/internal/auth"
	apperrors "vanrental/pkg/errors"
	"vanrental/pkg/metrics"
	"vanrental/pkg/middleware"
)

// Handler exposes the booking lifecycle. All routes sit behind the
// auth.Required middleware, so an identity is always present in the context.
type Handler struct {
	store     *Store
	collector *analytics.Collector
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewHandler(store *Store, collector *analytics.Collector, m *metrics.Metrics) *Handler {
	return &Handler{
		store:     store,
		collector: collector,
		metrics:   m,
		logger:    slog.Default().With("component", "bookings-handler"),
	}
}

// Availability handles GET /api/bookings/availability.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	vanID, err := strconv.ParseInt(q.Get("van_id"), 10, 64)
	start := q.Get("start_date")
	end := q.Get("end_date")
	if err != nil || start == "" || end == "" {
		h.writeError(w, http.StatusBadRequest, "van_id, start_date, and end_date are required")
		return
	}
	if !validDates(start, end) {
		h.writeError(w, http.StatusBadRequest, "dates must be YYYY-MM-DD with end_date on or after start_date")
		return
	}

	conflicts, err := h.store.CountConflicts(r.Context(), vanID, start, end)
	if err != nil {
		h.logger.Error("availability check failed", "van_id", vanID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "availability check failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"available":            conflicts == 0,
		"conflicting_bookings": conflicts,
	})
}

type createRequest struct {
	VanID     int64  `json:"van_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Create handles POST /api/bookings.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := auth.FromContext(ctx)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VanID == 0 || req.StartDate == "" || req.EndDate == "" {
		h.writeError(w, http.StatusBadRequest, "van_id, start_date, and end_date are required")
		return
	}
	if !validDates(req.StartDate, req.EndDate) {
		h.writeError(w, http.StatusBadRequest, "dates must be YYYY-MM-DD with end_date on or after start_date")
		return
	}

	booking, err := h.store.Create(ctx, identity.UserID, req.VanID, req.StartDate, req.EndDate)
	if err != nil {
		if errors.Is(err, apperrors.ErrDatesUnavailable) {
			h.writeError(w, http.StatusConflict, "van is not available for the selected dates")
			return
		}
		h.logger.Error("booking creation failed", "van_id", req.VanID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "booking creation failed")
		return
	}

	if h.metrics != nil {
		h.metrics.BookingsCreatedTotal.Inc()
	}
	if h.collector != nil {
		h.collector.Track(analytics.BookingEvent{
			Type:      analytics.EventBookingCreated,
			BookingID: booking.ID,
			VanID:     booking.VanID,
			UserID:    booking.UserID,
			StartDate: booking.StartDate,
			EndDate:   booking.EndDate,
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(ctx),
		})
	}

	h.writeJSON(w, http.StatusCreated, booking)
}

// ListMine handles GET /api/bookings.
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	bookings, err := h.store.ListByUser(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("listing bookings failed", "user_id", identity.UserID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	h.writeJSON(w, http.StatusOK, bookings)
}

// Cancel handles PATCH /api/bookings/{id}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := auth.FromContext(ctx)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	bookingID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	booking, err := h.store.Cancel(ctx, bookingID, identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			h.writeError(w, http.StatusNotFound, "booking not found")
		case errors.Is(err, apperrors.ErrForbidden):
			h.writeError(w, http.StatusForbidden, "you can only cancel your own bookings")
		case errors.Is(err, apperrors.ErrAlreadyCancelled):
			h.writeError(w, http.StatusBadRequest, "booking is already cancelled")
		default:
			h.logger.Error("booking cancellation failed", "booking_id", bookingID, "error", err)
			h.writeError(w, http.StatusInternalServerError, "booking cancellation failed")
		}
		return
	}

	if h.metrics != nil {
		h.metrics.BookingsCancelled.Inc()
	}
	if h.collector != nil {
		h.collector.Track(analytics.BookingEvent{
			Type:      analytics.EventBookingCancel,
			BookingID: booking.ID,
			VanID:     booking.VanID,
			UserID:    booking.UserID,
			StartDate: booking.StartDate,
			EndDate:   booking.EndDate,
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(ctx),
		})
	}

	h.writeJSON(w, http.StatusOK, booking)
}

// validDates checks both dates parse and end is not before start.
func validDates(start, end string) bool {
	s, err := time.Parse(DateFormat, start)
	if err != nil {
		return false
	}
	e, err := time.Parse(DateFormat, end)
	if err != nil {
		return false
	}
	return !e.Before(s)
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
