// Package webhook receives settlement callbacks from the payment
// processor. Deliveries are at-least-once, so handlers must tolerate
// replays.
package webhook

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/maonamassa/marketplace/internal/payment"
)

type Handler struct {
	svc *payment.Service
}

func NewHandler(svc *payment.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/payments", h.paymentEvent)
}

// paymentEvent carries the processor's verdict. external_reference is the
// transaction id we handed the processor at charge time.
type paymentEvent struct {
	ExternalReference string `json:"external_reference"`
	Status            string `json:"status"`
	StatusDetail      string `json:"status_detail"`
}

func (h *Handler) paymentEvent(w http.ResponseWriter, r *http.Request) {
	var event paymentEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	txID, err := uuid.Parse(event.ExternalReference)
	if err != nil {
		http.Error(w, "invalid external reference", http.StatusBadRequest)
		return
	}

	switch event.Status {
	case "approved":
		_, err = h.svc.CompleteSettlement(r.Context(), txID)
	case "rejected", "cancelled":
		detail := event.StatusDetail
		if detail == "" {
			detail = event.Status
		}

		_, err = h.svc.FailSettlement(r.Context(), txID, detail)
	default:
		// Intermediate states (in_process, pending) carry no transition.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err != nil {
		if errors.Is(err, payment.ErrTransactionNotFound) {
			// Nothing to retry against; acknowledge so the processor stops.
			slog.Warn("settlement event for unknown transaction", "transaction_id", txID)
			w.WriteHeader(http.StatusNoContent)

			return
		}

		slog.Error("failed to apply settlement event", "transaction_id", txID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
