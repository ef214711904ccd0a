package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IntentStatus is the lifecycle state of a payment intent.
type IntentStatus string

const (
	IntentCreated   IntentStatus = "created"
	IntentConfirmed IntentStatus = "confirmed"
	IntentCancelled IntentStatus = "cancelled"
)

// TransactionStatus is the settlement state of a ledger entry.
type TransactionStatus string

const (
	StatusPending    TransactionStatus = "pending"
	StatusProcessing TransactionStatus = "processing"
	StatusCompleted  TransactionStatus = "completed"
	StatusFailed     TransactionStatus = "failed"
	StatusRefunded   TransactionStatus = "refunded"
	StatusDisputed   TransactionStatus = "disputed"
)

// MethodType identifies how a client pays.
type MethodType string

const (
	MethodCreditCard   MethodType = "credit_card"
	MethodDebitCard    MethodType = "debit_card"
	MethodPix          MethodType = "pix"
	MethodBankTransfer MethodType = "bank_transfer"
)

var (
	ErrIntentNotFound         = errors.New("payment intent not found")
	ErrIntentExpired          = errors.New("payment intent has expired")
	ErrIntentAlreadyConfirmed = errors.New("payment intent is no longer confirmable")
	ErrMethodNotFound         = errors.New("payment method not found")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrTransactionSettled     = errors.New("transaction already settled")
)

// PaymentIntent is a time-boxed authorization to charge a client for a
// request. At most one created intent exists per request at any time.
type PaymentIntent struct {
	ID          uuid.UUID
	RequestID   uuid.UUID
	ClientID    uuid.UUID
	ProviderID  uuid.UUID
	Amount      int64 // centavos, gross
	Description string
	Status      IntentStatus
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the intent can no longer be confirmed at now.
func (i *PaymentIntent) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// Transaction is an append-only ledger entry. It is created exclusively by
// confirming an intent and only ever moves forward through the settlement
// states; fee + netAmount == amount at all times.
type Transaction struct {
	ID            uuid.UUID
	RequestID     uuid.UUID
	ClientID      uuid.UUID
	ProviderID    uuid.UUID
	Amount        int64 // centavos, gross
	Fee           int64 // platform cut
	NetAmount     int64 // what the provider is owed
	Status        TransactionStatus
	PaymentMethod string // display descriptor, e.g. "Visa ****4242"
	Description   string
	CreatedAt     time.Time
	CompletedAt   *time.Time
	FailureReason string
}

// PaymentMethod is a client's stored payment instrument. Only masked
// identifiers are kept; the processor holds the real credentials.
type PaymentMethod struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Type        MethodType
	Last4       string
	Brand       string
	ExpiryMonth int
	ExpiryYear  int
	IsDefault   bool
	CreatedAt   time.Time
}

// Descriptor renders the method the way it appears on a transaction.
func (m *PaymentMethod) Descriptor() string {
	switch m.Type {
	case MethodCreditCard, MethodDebitCard:
		return fmt.Sprintf("%s ****%s", m.Brand, m.Last4)
	case MethodPix:
		return "Pix"
	case MethodBankTransfer:
		return "Transferência bancária"
	default:
		return string(m.Type)
	}
}

// PlatformStats aggregates the completed side of the ledger.
type PlatformStats struct {
	TotalTransactions  int64
	TotalVolume        int64
	TotalFees          int64
	AverageTransaction int64
}
