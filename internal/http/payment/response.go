package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/maonamassa/marketplace/internal/payment"
)

type intentResponse struct {
	ID          uuid.UUID            `json:"id"`
	RequestID   uuid.UUID            `json:"request_id"`
	ClientID    uuid.UUID            `json:"client_id"`
	ProviderID  uuid.UUID            `json:"provider_id"`
	Amount      int64                `json:"amount"`
	Description string               `json:"description"`
	Status      payment.IntentStatus `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
	ExpiresAt   time.Time            `json:"expires_at"`
}

func toIntentResponse(i *payment.PaymentIntent) intentResponse {
	return intentResponse{
		ID:          i.ID,
		RequestID:   i.RequestID,
		ClientID:    i.ClientID,
		ProviderID:  i.ProviderID,
		Amount:      i.Amount,
		Description: i.Description,
		Status:      i.Status,
		CreatedAt:   i.CreatedAt,
		ExpiresAt:   i.ExpiresAt,
	}
}

type transactionResponse struct {
	ID            uuid.UUID                 `json:"id"`
	RequestID     uuid.UUID                 `json:"request_id"`
	ClientID      uuid.UUID                 `json:"client_id"`
	ProviderID    uuid.UUID                 `json:"provider_id"`
	Amount        int64                     `json:"amount"`
	Fee           int64                     `json:"fee"`
	NetAmount     int64                     `json:"net_amount"`
	Status        payment.TransactionStatus `json:"status"`
	PaymentMethod string                    `json:"payment_method"`
	Description   string                    `json:"description"`
	CreatedAt     time.Time                 `json:"created_at"`
	CompletedAt   *time.Time                `json:"completed_at,omitempty"`
	FailureReason string                    `json:"failure_reason,omitempty"`
}

func toTransactionResponse(t *payment.Transaction) transactionResponse {
	return transactionResponse{
		ID:            t.ID,
		RequestID:     t.RequestID,
		ClientID:      t.ClientID,
		ProviderID:    t.ProviderID,
		Amount:        t.Amount,
		Fee:           t.Fee,
		NetAmount:     t.NetAmount,
		Status:        t.Status,
		PaymentMethod: t.PaymentMethod,
		Description:   t.Description,
		CreatedAt:     t.CreatedAt,
		CompletedAt:   t.CompletedAt,
		FailureReason: t.FailureReason,
	}
}

func toTransactionResponseList(ts []*payment.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(ts))
	for i, t := range ts {
		resp[i] = toTransactionResponse(t)
	}

	return resp
}

type methodResponse struct {
	ID          uuid.UUID          `json:"id"`
	UserID      uuid.UUID          `json:"user_id"`
	Type        payment.MethodType `json:"type"`
	Last4       string             `json:"last4,omitempty"`
	Brand       string             `json:"brand,omitempty"`
	ExpiryMonth int                `json:"expiry_month,omitempty"`
	ExpiryYear  int                `json:"expiry_year,omitempty"`
	IsDefault   bool               `json:"is_default"`
	Descriptor  string             `json:"descriptor"`
	CreatedAt   time.Time          `json:"created_at"`
}

func toMethodResponse(m *payment.PaymentMethod) methodResponse {
	return methodResponse{
		ID:          m.ID,
		UserID:      m.UserID,
		Type:        m.Type,
		Last4:       m.Last4,
		Brand:       m.Brand,
		ExpiryMonth: m.ExpiryMonth,
		ExpiryYear:  m.ExpiryYear,
		IsDefault:   m.IsDefault,
		Descriptor:  m.Descriptor(),
		CreatedAt:   m.CreatedAt,
	}
}

func toMethodResponseList(ms []*payment.PaymentMethod) []methodResponse {
	resp := make([]methodResponse, len(ms))
	for i, m := range ms {
		resp[i] = toMethodResponse(m)
	}

	return resp
}

type statsResponse struct {
	TotalTransactions  int64 `json:"total_transactions"`
	TotalVolume        int64 `json:"total_volume"`
	TotalFees          int64 `json:"total_fees"`
	AverageTransaction int64 `json:"average_transaction"`
}
