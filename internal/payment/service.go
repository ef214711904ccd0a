package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/maonamassa/marketplace/internal/identity"
	"github.com/maonamassa/marketplace/internal/money"
	"github.com/maonamassa/marketplace/internal/notification"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=payment
type Repository interface {
	CreateIntent(ctx context.Context, intent *PaymentIntent) error
	GetIntent(ctx context.Context, id uuid.UUID) (*PaymentIntent, error)
	BeginConfirm(ctx context.Context, intentID uuid.UUID) (ConfirmTx, error)
	CancelExpiredIntents(ctx context.Context, now time.Time) (int64, error)

	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]*Transaction, error)
	CompleteTransaction(ctx context.Context, id uuid.UUID, completedAt time.Time) (*Transaction, error)
	FailTransaction(ctx context.Context, id uuid.UUID, reason string) (*Transaction, error)
	PlatformStats(ctx context.Context) (*PlatformStats, error)

	CreateMethod(ctx context.Context, m *PaymentMethod) error
	MethodsByUser(ctx context.Context, userID uuid.UUID) ([]*PaymentMethod, error)
	SetDefaultMethod(ctx context.Context, userID, methodID uuid.UUID) error
}

// ConfirmTx scopes an intent confirmation to a single database transaction
// holding the intent row lock, so created→confirmed happens exactly once no
// matter how many confirmations race.
type ConfirmTx interface {
	Intent() *PaymentIntent
	Method(ctx context.Context, methodID uuid.UUID) (*PaymentMethod, error)
	CreateTransaction(ctx context.Context, t *Transaction) error
	MarkConfirmed(ctx context.Context) error
	Commit() error
	Rollback() error
}

// Gateway is the payment processor boundary. A synchronous charge verdict is
// applied to the ledger directly; the processor webhook replays the same
// transition, which the store treats as a no-op.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

type ChargeRequest struct {
	TransactionID uuid.UUID // carried as external reference
	Amount        int64     // centavos
	Description   string
	MethodType    MethodType
}

type ChargeResult struct {
	ProviderRef string
	Approved    bool
	Detail      string
}

// Notifier is the slice of the notification dispatcher the ledger needs.
type Notifier interface {
	Notify(ctx context.Context, params notification.NotifyParams) (*notification.Notification, error)
}

// CompletedFunc observes transactions reaching completed. Listeners are
// registered once during startup, before the service handles traffic.
type CompletedFunc func(ctx context.Context, t *Transaction)

type Service struct {
	repo       Repository
	notifier   Notifier
	gateway    Gateway
	feePercent float64
	intentTTL  time.Duration

	onCompleted []CompletedFunc
}

func NewService(repo Repository, notifier Notifier, gateway Gateway, feePercent float64, intentTTL time.Duration) *Service {
	return &Service{
		repo:       repo,
		notifier:   notifier,
		gateway:    gateway,
		feePercent: feePercent,
		intentTTL:  intentTTL,
	}
}

// OnTransactionCompleted registers a settlement listener. Not safe to call
// once the service is serving requests.
func (s *Service) OnTransactionCompleted(fn CompletedFunc) {
	s.onCompleted = append(s.onCompleted, fn)
}

type CreateIntentParams struct {
	RequestID   uuid.UUID
	ClientID    uuid.UUID
	ProviderID  uuid.UUID
	Amount      int64
	Description string
}

// CreateIntent opens a time-boxed authorization for the request. A prior
// created intent for the same request is superseded (cancelled) in the same
// store transaction.
func (s *Service) CreateIntent(ctx context.Context, params CreateIntentParams) (*PaymentIntent, error) {
	if params.Amount <= 0 {
		return nil, money.ErrInvalidAmount
	}

	now := time.Now()
	intent := &PaymentIntent{
		RequestID:   params.RequestID,
		ClientID:    params.ClientID,
		ProviderID:  params.ProviderID,
		Amount:      params.Amount,
		Description: params.Description,
		Status:      IntentCreated,
		ExpiresAt:   now.Add(s.intentTTL),
	}
	if err := s.repo.CreateIntent(ctx, intent); err != nil {
		return nil, err
	}

	return intent, nil
}

func (s *Service) GetIntent(ctx context.Context, id uuid.UUID) (*PaymentIntent, error) {
	return s.repo.GetIntent(ctx, id)
}

// ConfirmIntent turns a created intent into a processing transaction. This
// is the sole creation path for transactions. The intent row stays locked
// until commit, so a raced duplicate confirmation observes `confirmed` and
// fails with ErrIntentAlreadyConfirmed. An expired intent is rejected and
// left untouched for the reaper.
func (s *Service) ConfirmIntent(ctx context.Context, intentID, methodID uuid.UUID) (*Transaction, error) {
	tx, err := s.repo.BeginConfirm(ctx, intentID)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	intent := tx.Intent()
	if intent.Status != IntentCreated {
		return nil, ErrIntentAlreadyConfirmed
	}

	if intent.Expired(time.Now()) {
		return nil, ErrIntentExpired
	}

	method, err := tx.Method(ctx, methodID)
	if err != nil {
		return nil, err
	}

	fee, net, err := money.ComputeFee(intent.Amount, s.feePercent)
	if err != nil {
		return nil, err
	}

	t := &Transaction{
		RequestID:     intent.RequestID,
		ClientID:      intent.ClientID,
		ProviderID:    intent.ProviderID,
		Amount:        intent.Amount,
		Fee:           fee,
		NetAmount:     net,
		Status:        StatusProcessing,
		PaymentMethod: method.Descriptor(),
		Description:   intent.Description,
	}
	if err := tx.CreateTransaction(ctx, t); err != nil {
		return nil, err
	}

	if err := tx.MarkConfirmed(ctx); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing confirmation: %w", err)
	}

	intent.Status = IntentConfirmed

	if s.gateway != nil {
		go s.charge(t, method.Type)
	}

	return t, nil
}

// charge hands the processing transaction to the payment processor. The
// terminal transition normally arrives through the processor webhook; a
// synchronous gateway verdict (mock mode) is applied directly.
func (s *Service) charge(t *Transaction, methodType MethodType) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := s.gateway.Charge(ctx, ChargeRequest{
		TransactionID: t.ID,
		Amount:        t.Amount,
		Description:   t.Description,
		MethodType:    methodType,
	})
	if err != nil {
		slog.Error("payment gateway charge failed", "transaction_id", t.ID, "error", err)

		if _, err := s.FailSettlement(ctx, t.ID, "gateway error"); err != nil {
			slog.Error("failed to record settlement failure", "transaction_id", t.ID, "error", err)
		}

		return
	}

	if result.Approved {
		if _, err := s.CompleteSettlement(ctx, t.ID); err != nil {
			slog.Error("failed to record settlement", "transaction_id", t.ID, "error", err)
		}

		return
	}

	if _, err := s.FailSettlement(ctx, t.ID, result.Detail); err != nil {
		slog.Error("failed to record settlement failure", "transaction_id", t.ID, "error", err)
	}
}

// CompleteSettlement moves a processing transaction to completed, stamps
// completedAt, notifies both parties, and fans out to the registered
// listeners. Settlement callbacks are at-least-once; a transaction already
// past processing is returned as-is.
func (s *Service) CompleteSettlement(ctx context.Context, txID uuid.UUID) (*Transaction, error) {
	t, err := s.repo.CompleteTransaction(ctx, txID, time.Now())
	if err != nil {
		if errors.Is(err, ErrTransactionSettled) {
			return s.repo.GetTransaction(ctx, txID)
		}

		return nil, err
	}

	s.notify(ctx, notification.NotifyParams{
		UserID:    t.ClientID,
		Type:      notification.TypePayment,
		Title:     "Pagamento processado",
		Message:   fmt.Sprintf("Pagamento de %s foi processado com sucesso", money.FormatBRL(t.Amount)),
		RelatedID: &t.RequestID,
		ActionURL: "/payments",
	})

	s.notify(ctx, notification.NotifyParams{
		UserID:    t.ProviderID,
		Type:      notification.TypePayment,
		Title:     "Pagamento recebido",
		Message:   fmt.Sprintf("Você recebeu %s pelo serviço %q", money.FormatBRL(t.NetAmount), t.Description),
		RelatedID: &t.RequestID,
		ActionURL: "/payments",
	})

	for _, fn := range s.onCompleted {
		fn(ctx, t)
	}

	return t, nil
}

// FailSettlement records a rejected settlement. Expected outcome of an
// async process, so the reason lands on the transaction instead of an
// error; only the paying client is told, since no money moved toward the
// provider.
func (s *Service) FailSettlement(ctx context.Context, txID uuid.UUID, reason string) (*Transaction, error) {
	t, err := s.repo.FailTransaction(ctx, txID, reason)
	if err != nil {
		if errors.Is(err, ErrTransactionSettled) {
			return s.repo.GetTransaction(ctx, txID)
		}

		return nil, err
	}

	s.notify(ctx, notification.NotifyParams{
		UserID:    t.ClientID,
		Type:      notification.TypePayment,
		Title:     "Falha no pagamento",
		Message:   fmt.Sprintf("O pagamento de %s não foi aprovado: %s", money.FormatBRL(t.Amount), reason),
		RelatedID: &t.RequestID,
		ActionURL: "/payments",
	})

	return t, nil
}

// TransactionFilter narrows ledger queries. Role is consulted only when
// UserID is set.
type TransactionFilter struct {
	UserID *uuid.UUID
	Role   identity.Role
	Status *TransactionStatus
}

func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

// TransactionsByUser returns the ledger entries where the user pays (client
// role) or is paid (provider role), newest first.
func (s *Service) TransactionsByUser(ctx context.Context, userID uuid.UUID, role identity.Role) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, TransactionFilter{UserID: &userID, Role: role})
}

func (s *Service) ListTransactions(ctx context.Context, filter TransactionFilter) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

func (s *Service) PlatformStats(ctx context.Context) (*PlatformStats, error) {
	return s.repo.PlatformStats(ctx)
}

type AddMethodParams struct {
	UserID      uuid.UUID
	Type        MethodType
	Last4       string
	Brand       string
	ExpiryMonth int
	ExpiryYear  int
}

// AddMethod stores a masked payment instrument. The user's first method
// becomes the default automatically.
func (s *Service) AddMethod(ctx context.Context, params AddMethodParams) (*PaymentMethod, error) {
	m := &PaymentMethod{
		UserID:      params.UserID,
		Type:        params.Type,
		Last4:       params.Last4,
		Brand:       params.Brand,
		ExpiryMonth: params.ExpiryMonth,
		ExpiryYear:  params.ExpiryYear,
	}
	if err := s.repo.CreateMethod(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

func (s *Service) MethodsByUser(ctx context.Context, userID uuid.UUID) ([]*PaymentMethod, error) {
	return s.repo.MethodsByUser(ctx, userID)
}

// SetDefaultMethod atomically moves the default flag: the previous default
// is cleared and the new one set in a single store transaction, so the user
// never observes zero or two defaults.
func (s *Service) SetDefaultMethod(ctx context.Context, userID, methodID uuid.UUID) error {
	return s.repo.SetDefaultMethod(ctx, userID, methodID)
}

// SweepExpiredIntents cancels created intents past their TTL. Run
// periodically; confirmation rejects expired intents regardless, the sweep
// just keeps the table honest.
func (s *Service) SweepExpiredIntents(ctx context.Context) (int64, error) {
	return s.repo.CancelExpiredIntents(ctx, time.Now())
}

func (s *Service) notify(ctx context.Context, params notification.NotifyParams) {
	if s.notifier == nil {
		return
	}

	if _, err := s.notifier.Notify(ctx, params); err != nil {
		slog.Error("failed to deliver notification", "type", params.Type, "user_id", params.UserID, "error", err)
	}
}
