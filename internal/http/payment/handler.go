package payment

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/maonamassa/marketplace/internal/http/auth"
	"github.com/maonamassa/marketplace/internal/money"
	"github.com/maonamassa/marketplace/internal/payment"
)

type Handler struct {
	svc      *payment.Service
	validate *validator.Validate
}

func NewHandler(svc *payment.Service, validate *validator.Validate) *Handler {
	return &Handler{svc: svc, validate: validate}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/intents", h.createIntent)
	r.Get("/intents/{id}", h.getIntent)
	r.Post("/intents/{id}/confirm", h.confirmIntent)

	r.Get("/transactions", h.listTransactions)
	r.Get("/transactions/{id}", h.getTransaction)

	r.Post("/methods", h.addMethod)
	r.Get("/methods", h.listMethods)
	r.Put("/methods/{id}/default", h.setDefaultMethod)

	r.Get("/stats", h.stats)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payment.ErrIntentNotFound),
		errors.Is(err, payment.ErrMethodNotFound),
		errors.Is(err, payment.ErrTransactionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, money.ErrInvalidAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, payment.ErrIntentExpired):
		http.Error(w, err.Error(), http.StatusGone)
	case errors.Is(err, payment.ErrIntentAlreadyConfirmed), errors.Is(err, payment.ErrTransactionSettled):
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

type createIntentRequest struct {
	RequestID   uuid.UUID `json:"request_id" validate:"required"`
	ProviderID  uuid.UUID `json:"provider_id" validate:"required"`
	Amount      int64     `json:"amount" validate:"gt=0"`
	Description string    `json:"description"`
}

func (h *Handler) createIntent(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	intent, err := h.svc.CreateIntent(r.Context(), payment.CreateIntentParams{
		RequestID:   req.RequestID,
		ClientID:    principal.UserID,
		ProviderID:  req.ProviderID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toIntentResponse(intent))
}

func (h *Handler) getIntent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	intent, err := h.svc.GetIntent(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toIntentResponse(intent))
}

type confirmIntentRequest struct {
	PaymentMethodID uuid.UUID `json:"payment_method_id" validate:"required"`
}

func (h *Handler) confirmIntent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req confirmIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	t, err := h.svc.ConfirmIntent(r.Context(), id, req.PaymentMethodID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionResponse(t))
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	filter := payment.TransactionFilter{
		UserID: &principal.UserID,
		Role:   principal.Role,
	}

	if s := r.URL.Query().Get("status"); s != "" {
		st := payment.TransactionStatus(s)
		filter.Status = &st
	}

	txs, err := h.svc.ListTransactions(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponseList(txs))
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	t, err := h.svc.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

type addMethodRequest struct {
	Type        payment.MethodType `json:"type" validate:"required,oneof=credit_card debit_card pix bank_transfer"`
	Last4       string             `json:"last4" validate:"omitempty,len=4,numeric"`
	Brand       string             `json:"brand"`
	ExpiryMonth int                `json:"expiry_month" validate:"omitempty,gte=1,lte=12"`
	ExpiryYear  int                `json:"expiry_year" validate:"omitempty,gte=2024"`
}

func (h *Handler) addMethod(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	var req addMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := h.svc.AddMethod(r.Context(), payment.AddMethodParams{
		UserID:      principal.UserID,
		Type:        req.Type,
		Last4:       req.Last4,
		Brand:       req.Brand,
		ExpiryMonth: req.ExpiryMonth,
		ExpiryYear:  req.ExpiryYear,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMethodResponse(m))
}

func (h *Handler) listMethods(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	methods, err := h.svc.MethodsByUser(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toMethodResponseList(methods))
}

func (h *Handler) setDefaultMethod(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.SetDefaultMethod(r.Context(), principal.UserID, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.PlatformStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalTransactions:  stats.TotalTransactions,
		TotalVolume:        stats.TotalVolume,
		TotalFees:          stats.TotalFees,
		AverageTransaction: stats.AverageTransaction,
	})
}
