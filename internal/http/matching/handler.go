package matching

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/maonamassa/marketplace/internal/http/auth"
	"github.com/maonamassa/marketplace/internal/matching"
	"github.com/maonamassa/marketplace/internal/request"
)

// RequestGetter fetches the request whose candidates are being listed.
type RequestGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*request.ServiceRequest, error)
}

type Handler struct {
	svc      *matching.Service
	requests RequestGetter
	validate *validator.Validate
}

func NewHandler(svc *matching.Service, requests RequestGetter, validate *validator.Validate) *Handler {
	return &Handler{svc: svc, requests: requests, validate: validate}
}

func (h *Handler) Routes(r chi.Router) {
	r.Put("/profile", h.upsertProfile)
	r.Get("/profile", h.myProfile)
}

// RequestRoutes hangs the candidate listing off the request resource.
func (h *Handler) RequestRoutes(r chi.Router) {
	r.Get("/{id}/matches", h.matches)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, matching.ErrProfileNotFound), errors.Is(err, request.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, matching.ErrNoCategories):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) upsertProfile(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	var req upsertProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	categories := make([]matching.Category, len(req.Categories))
	for i, c := range req.Categories {
		categories[i] = matching.Category{ID: c.ID, FixedRate: c.FixedRate}
	}

	profile, err := h.svc.UpsertProfile(r.Context(), matching.UpsertProfileParams{
		UserID:        principal.UserID,
		Name:          req.Name,
		Bio:           req.Bio,
		Categories:    categories,
		City:          req.City,
		State:         req.State,
		ServiceRadius: req.ServiceRadius,
		HourlyRate:    req.HourlyRate,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(profile))
}

func (h *Handler) myProfile(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	profile, err := h.svc.ProfileByUser(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(profile))
}

// matches lists providers fitting the request's category, city and budget
// ceiling. Owner only; candidates are for the client choosing who to invite.
func (h *Handler) matches(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	req, err := h.requests.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if req.ClientID != principal.UserID {
		http.Error(w, request.ErrNotRequestOwner.Error(), http.StatusForbidden)
		return
	}

	profiles, err := h.svc.MatchProviders(r.Context(), req.CategoryID, req.Location.City, req.Budget.Max)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(profiles))
}
