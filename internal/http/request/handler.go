package request

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/maonamassa/marketplace/internal/http/auth"
	"github.com/maonamassa/marketplace/internal/money"
	"github.com/maonamassa/marketplace/internal/payment"
	"github.com/maonamassa/marketplace/internal/request"
)

// IntentCreator opens a checkout intent once a proposal is accepted.
type IntentCreator interface {
	CreateIntent(ctx context.Context, params payment.CreateIntentParams) (*payment.PaymentIntent, error)
}

type Handler struct {
	svc      *request.Service
	intents  IntentCreator
	validate *validator.Validate
}

func NewHandler(svc *request.Service, intents IntentCreator, validate *validator.Validate) *Handler {
	return &Handler{svc: svc, intents: intents, validate: validate}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/mine", h.listMine)
	r.Get("/opportunities", h.opportunities)
	r.Get("/proposals/mine", h.myProposals)
	r.Get("/{id}", h.get)
	r.Get("/{id}/proposals", h.proposals)
	r.Post("/{id}/proposals", h.submitProposal)
	r.Post("/{id}/accept", h.accept)
	r.Post("/{id}/start", h.start)
	r.Post("/{id}/cancel", h.cancel)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, request.ErrNotFound), errors.Is(err, request.ErrProposalNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, request.ErrNotRequestOwner), errors.Is(err, request.ErrNotAssignedProvider):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, request.ErrInvalidBudget), errors.Is(err, money.ErrInvalidAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, request.ErrSelfProposal),
		errors.Is(err, request.ErrRequestNotOpen),
		errors.Is(err, request.ErrCancelNotAllowed),
		errors.Is(err, request.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
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

type createRequestRequest struct {
	CategoryID    string          `json:"category_id" validate:"required"`
	Title         string          `json:"title" validate:"required,max=200"`
	Description   string          `json:"description" validate:"required"`
	Location      locationPayload `json:"location"`
	Budget        budgetPayload   `json:"budget"`
	Urgency       request.Urgency `json:"urgency" validate:"omitempty,oneof=low medium high"`
	PreferredDate time.Time       `json:"preferred_date"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	var req createRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Urgency == "" {
		req.Urgency = request.UrgencyMedium
	}

	created, err := h.svc.Create(r.Context(), request.CreateParams{
		ClientID:      principal.UserID,
		CategoryID:    req.CategoryID,
		Title:         req.Title,
		Description:   req.Description,
		Location:      request.Location{Address: req.Location.Address, City: req.Location.City, State: req.Location.State},
		Budget:        request.Budget{Min: req.Budget.Min, Max: req.Budget.Max},
		Urgency:       req.Urgency,
		PreferredDate: req.PreferredDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	requests, err := h.svc.ListByClient(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(requests))
}

func (h *Handler) opportunities(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	filter := request.OpportunityFilter{}

	if s := r.URL.Query().Get("category_id"); s != "" {
		filter.CategoryID = &s
	}

	if s := r.URL.Query().Get("city"); s != "" {
		filter.City = &s
	}

	requests, err := h.svc.Opportunities(r.Context(), principal.UserID, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(requests))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	req, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(req))
}

func (h *Handler) proposals(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	proposals, err := h.svc.ProposalsByRequest(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProposalResponseList(proposals))
}

func (h *Handler) myProposals(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	proposals, err := h.svc.ProposalsByProvider(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProposalResponseList(proposals))
}

type submitProposalRequest struct {
	Price             int64  `json:"price" validate:"gt=0"`
	EstimatedDuration string `json:"estimated_duration" validate:"required"`
	Message           string `json:"message"`
}

func (h *Handler) submitProposal(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req submitProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.svc.SubmitProposal(r.Context(), request.SubmitProposalParams{
		RequestID:         id,
		ProviderID:        principal.UserID,
		Price:             req.Price,
		EstimatedDuration: req.EstimatedDuration,
		Message:           req.Message,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toProposalResponse(p))
}

type acceptProposalRequest struct {
	ProposalID uuid.UUID `json:"proposal_id" validate:"required"`
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req acceptProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	accepted, proposal, err := h.svc.Accept(r.Context(), id, req.ProposalID, principal.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := acceptResponse{
		Request:  toResponse(accepted),
		Proposal: toProposalResponse(proposal),
	}

	// The acceptance is committed at this point, so a checkout failure only
	// costs the client the pre-opened intent. They can retry via POST
	// /payments/intents.
	intent, err := h.intents.CreateIntent(r.Context(), payment.CreateIntentParams{
		RequestID:   accepted.ID,
		ClientID:    principal.UserID,
		ProviderID:  proposal.ProviderID,
		Amount:      proposal.Price,
		Description: accepted.Title,
	})
	if err != nil {
		slog.Error("opening intent for accepted proposal", "request_id", accepted.ID, "error", err)
	} else {
		resp.Intent = &intentSummary{
			ID:        intent.ID,
			Amount:    intent.Amount,
			ExpiresAt: intent.ExpiresAt,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	req, err := h.svc.StartWork(r.Context(), id, principal.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(req))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	req, err := h.svc.Cancel(r.Context(), id, principal.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(req))
}
