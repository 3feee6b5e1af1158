package vans

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "vanrental/pkg/errors"
)

// Handler serves the public van catalog and the description generator.
type Handler struct {
	store  *Store
	logger *slog.Logger
}

func NewHandler(store *Store) *Handler {
	return &Handler{
		store:  store,
		logger: slog.Default().With("component", "vans-handler"),
	}
}

// List handles GET /api/vans.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{
		Type: q.Get("type"),
		Sort: q.Get("sort"),
	}
	if v := q.Get("minCapacity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, "minCapacity must be a non-negative integer")
			return
		}
		f.MinCapacity = n
	}
	if v := q.Get("maxPrice"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || p < 0 {
			h.writeError(w, http.StatusBadRequest, "maxPrice must be a non-negative number")
			return
		}
		f.MaxPrice = p
	}

	vans, err := h.store.List(r.Context(), f)
	if err != nil {
		h.logger.Error("listing vans failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list vans")
		return
	}
	h.writeJSON(w, http.StatusOK, vans)
}

// Get handles GET /api/vans/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid van id")
		return
	}
	van, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "van not found")
			return
		}
		h.logger.Error("fetching van failed", "id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch van")
		return
	}
	h.writeJSON(w, http.StatusOK, van)
}

// GenerateDescription handles POST /api/vans/{id}/description. With
// ?save=true the description is persisted.
func (h *Handler) GenerateDescription(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid van id")
		return
	}
	save := r.URL.Query().Get("save") == "true"

	van, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "van not found")
			return
		}
		h.logger.Error("fetching van failed", "id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch van")
		return
	}

	description := Describe(van)
	if save {
		if err := h.store.UpdateDescription(r.Context(), id, description); err != nil {
			h.logger.Error("saving description failed", "id", id, "error", err)
			h.writeError(w, http.StatusInternalServerError, "failed to save description")
			return
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"van_id":      van.ID,
		"name":        van.Name,
		"description": description,
		"saved":       save,
	})
}

// FillMissingDescriptions handles POST /api/vans/descriptions/fill-missing,
// generating and saving a description for every van that lacks one.
func (h *Handler) FillMissingDescriptions(w http.ResponseWriter, r *http.Request) {
	vans, err := h.store.ListMissingDescriptions(r.Context())
	if err != nil {
		h.logger.Error("listing vans without descriptions failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list vans")
		return
	}

	type generated struct {
		VanID       int64  `json:"van_id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	out := make([]generated, 0, len(vans))
	for i := range vans {
		description := Describe(&vans[i])
		if err := h.store.UpdateDescription(r.Context(), vans[i].ID, description); err != nil {
			h.logger.Error("saving description failed", "id", vans[i].ID, "error", err)
			h.writeError(w, http.StatusInternalServerError, "failed to save description")
			return
		}
		out = append(out, generated{VanID: vans[i].ID, Name: vans[i].Name, Description: description})
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"count": len(out),
		"vans":  out,
	})
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
