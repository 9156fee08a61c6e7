package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"travelxguide/internal/guide"
	"travelxguide/internal/middleware"
)

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	res, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats":   stats,
	})
}

func (h *Handler) Applications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	apps, pagination, err := h.Service.Applications(r.Context(), q.Get("status"), page, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"applications": apps,
		"pagination":   pagination,
	})
}

func (h *Handler) Application(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid application id")
		return
	}

	app, err := h.Service.Application(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Application not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"application": app,
	})
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.Service.Approve, "Guide application approved successfully")
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.Service.Reject, "Guide application rejected")
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int, notes string, adminID int) error, okMsg string) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid application id")
		return
	}

	adminID, ok := r.Context().Value(middleware.UserKey).(int)
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	var req struct {
		AdminNotes string `json:"adminNotes"`
	}
	// An empty body means no notes.
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := fn(r.Context(), id, req.AdminNotes, adminID); err != nil {
		switch {
		case errors.Is(err, guide.ErrNotFound):
			respondError(w, http.StatusNotFound, "Application not found")
		case errors.Is(err, guide.ErrAlreadyProcessed):
			respondError(w, http.StatusConflict, "Application has already been processed")
		default:
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": okMsg,
	})
}

func (h *Handler) SetGuideActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid guide id")
		return
	}

	var req struct {
		IsActive bool `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.SetGuideActive(r.Context(), id, req.IsActive); err != nil {
		if errors.Is(err, guide.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Guide not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	label := "unlisted"
	if req.IsActive {
		label = "listed"
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Guide has been " + label + ".",
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]any{
		"success": false,
		"message": msg,
	})
}
