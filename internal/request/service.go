package request

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/maonamassa/marketplace/internal/money"
	"github.com/maonamassa/marketplace/internal/notification"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=request
type Repository interface {
	CreateRequest(ctx context.Context, r *ServiceRequest) error
	GetRequest(ctx context.Context, id uuid.UUID) (*ServiceRequest, error)
	RequestsByClient(ctx context.Context, clientID uuid.UUID) ([]*ServiceRequest, error)
	Opportunities(ctx context.Context, providerID uuid.UUID, filter OpportunityFilter) ([]*ServiceRequest, error)

	ProposalsByRequest(ctx context.Context, requestID uuid.UUID) ([]*Proposal, error)
	ProposalsByProvider(ctx context.Context, providerID uuid.UUID) ([]*Proposal, error)

	Begin(ctx context.Context, requestID uuid.UUID) (RequestTx, error)
}

// RequestTx scopes mutations to a single request whose row is locked for the
// duration of the transaction, so concurrent submissions and status
// transitions against the same request are linearized.
type RequestTx interface {
	Request() *ServiceRequest
	CreateProposal(ctx context.Context, p *Proposal) error
	GetProposal(ctx context.Context, proposalID uuid.UUID) (*Proposal, error)
	SetStatus(ctx context.Context, status Status) error
	SetAcceptedProposal(ctx context.Context, proposalID uuid.UUID) error
	Commit() error
	Rollback() error
}

// Notifier is the slice of the notification dispatcher the state machine
// needs. Delivery failures are logged, never propagated.
type Notifier interface {
	Notify(ctx context.Context, params notification.NotifyParams) (*notification.Notification, error)
}

type Service struct {
	repo     Repository
	notifier Notifier
}

func NewService(repo Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

type CreateParams struct {
	ClientID      uuid.UUID
	CategoryID    string
	Title         string
	Description   string
	Location      Location
	Budget        Budget
	Urgency       Urgency
	PreferredDate time.Time
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*ServiceRequest, error) {
	if params.Budget.Min < 0 || params.Budget.Min > params.Budget.Max {
		return nil, ErrInvalidBudget
	}

	r := &ServiceRequest{
		ClientID:      params.ClientID,
		CategoryID:    params.CategoryID,
		Title:         params.Title,
		Description:   params.Description,
		Location:      params.Location,
		Budget:        params.Budget,
		Urgency:       params.Urgency,
		PreferredDate: params.PreferredDate,
		Status:        StatusOpen,
	}
	if err := s.repo.CreateRequest(ctx, r); err != nil {
		return nil, err
	}

	return r, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ServiceRequest, error) {
	return s.repo.GetRequest(ctx, id)
}

func (s *Service) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*ServiceRequest, error) {
	return s.repo.RequestsByClient(ctx, clientID)
}

type OpportunityFilter struct {
	CategoryID *string
	City       *string
}

// Opportunities lists open requests visible to a provider, excluding the
// provider's own.
func (s *Service) Opportunities(ctx context.Context, providerID uuid.UUID, filter OpportunityFilter) ([]*ServiceRequest, error) {
	return s.repo.Opportunities(ctx, providerID, filter)
}

type SubmitProposalParams struct {
	RequestID         uuid.UUID
	ProviderID        uuid.UUID
	Price             int64
	EstimatedDuration string
	Message           string
}

// SubmitProposal records a provider's offer. The self-proposal and status
// checks run against the locked request row, not just the opportunity
// listing, so a stale listing cannot slip a proposal past them.
func (s *Service) SubmitProposal(ctx context.Context, params SubmitProposalParams) (*Proposal, error) {
	if params.Price <= 0 {
		return nil, money.ErrInvalidAmount
	}

	tx, err := s.repo.Begin(ctx, params.RequestID)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	req := tx.Request()
	if req.ClientID == params.ProviderID {
		return nil, ErrSelfProposal
	}

	if req.Status != StatusOpen && req.Status != StatusProposals {
		return nil, ErrRequestNotOpen
	}

	p := &Proposal{
		RequestID:         params.RequestID,
		ProviderID:        params.ProviderID,
		Price:             params.Price,
		EstimatedDuration: params.EstimatedDuration,
		Message:           params.Message,
	}
	if err := tx.CreateProposal(ctx, p); err != nil {
		return nil, err
	}

	if req.Status == StatusOpen {
		if err := tx.SetStatus(ctx, StatusProposals); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing proposal: %w", err)
	}

	s.notify(ctx, notification.NotifyParams{
		UserID:    req.ClientID,
		Type:      notification.TypeProposalReceived,
		Title:     "Nova proposta recebida",
		Message:   fmt.Sprintf("Você recebeu uma proposta de %s para %q", money.FormatBRL(p.Price), req.Title),
		RelatedID: &req.ID,
		ActionURL: "/dashboard",
	})

	return p, nil
}

// Accept marks the winning proposal and moves the request to assigned. The
// caller is expected to follow up by creating a payment intent for the
// proposal price.
func (s *Service) Accept(ctx context.Context, requestID, proposalID, clientID uuid.UUID) (*ServiceRequest, *Proposal, error) {
	tx, err := s.repo.Begin(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	req := tx.Request()
	if req.ClientID != clientID {
		return nil, nil, ErrNotRequestOwner
	}

	if req.Status != StatusOpen && req.Status != StatusProposals {
		return nil, nil, ErrRequestNotOpen
	}

	p, err := tx.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, nil, err
	}

	if p.RequestID != requestID {
		return nil, nil, ErrProposalNotFound
	}

	if err := tx.SetAcceptedProposal(ctx, proposalID); err != nil {
		return nil, nil, err
	}

	if err := tx.SetStatus(ctx, StatusAssigned); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("committing acceptance: %w", err)
	}

	req.Status = StatusAssigned
	req.AcceptedProposalID = &p.ID

	s.notify(ctx, notification.NotifyParams{
		UserID:    p.ProviderID,
		Type:      notification.TypeProposalAccepted,
		Title:     "Proposta aceita!",
		Message:   fmt.Sprintf("Sua proposta para %q foi aceita", req.Title),
		RelatedID: &req.ID,
		ActionURL: "/opportunities",
	})

	return req, p, nil
}

// StartWork moves an assigned request to in-progress. Only the provider
// whose proposal was accepted may start.
func (s *Service) StartWork(ctx context.Context, requestID, providerID uuid.UUID) (*ServiceRequest, error) {
	tx, err := s.repo.Begin(ctx, requestID)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	req := tx.Request()
	if req.Status != StatusAssigned {
		return nil, ErrInvalidTransition
	}

	if req.AcceptedProposalID == nil {
		return nil, ErrInvalidTransition
	}

	p, err := tx.GetProposal(ctx, *req.AcceptedProposalID)
	if err != nil {
		return nil, err
	}

	if p.ProviderID != providerID {
		return nil, ErrNotAssignedProvider
	}

	if err := tx.SetStatus(ctx, StatusInProgress); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing start: %w", err)
	}

	req.Status = StatusInProgress

	s.notify(ctx, notification.NotifyParams{
		UserID:    req.ClientID,
		Type:      notification.TypeStatusUpdate,
		Title:     "Serviço iniciado",
		Message:   fmt.Sprintf("O prestador iniciou o serviço %q", req.Title),
		RelatedID: &req.ID,
		ActionURL: "/dashboard",
	})

	return req, nil
}

// Cancel is available to the owner while no work is underway. Once the
// request is in-progress or terminal it cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, requestID, clientID uuid.UUID) (*ServiceRequest, error) {
	tx, err := s.repo.Begin(ctx, requestID)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	req := tx.Request()
	if req.ClientID != clientID {
		return nil, ErrNotRequestOwner
	}

	switch req.Status {
	case StatusOpen, StatusProposals, StatusAssigned:
	default:
		return nil, ErrCancelNotAllowed
	}

	if err := tx.SetStatus(ctx, StatusCancelled); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing cancellation: %w", err)
	}

	req.Status = StatusCancelled

	return req, nil
}

// CompleteFromSettlement advances the request once its payment settles.
// Already-terminal requests are left untouched; settlement callbacks are
// delivered at least once.
func (s *Service) CompleteFromSettlement(ctx context.Context, requestID uuid.UUID) error {
	tx, err := s.repo.Begin(ctx, requestID)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	req := tx.Request()
	if req.Status.Terminal() {
		return nil
	}

	if req.Status != StatusAssigned && req.Status != StatusInProgress {
		return ErrInvalidTransition
	}

	if err := tx.SetStatus(ctx, StatusCompleted); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing completion: %w", err)
	}

	return nil
}

func (s *Service) ProposalsByRequest(ctx context.Context, requestID uuid.UUID) ([]*Proposal, error) {
	return s.repo.ProposalsByRequest(ctx, requestID)
}

func (s *Service) ProposalsByProvider(ctx context.Context, providerID uuid.UUID) ([]*Proposal, error) {
	return s.repo.ProposalsByProvider(ctx, providerID)
}

func (s *Service) notify(ctx context.Context, params notification.NotifyParams) {
	if s.notifier == nil {
		return
	}

	if _, err := s.notifier.Notify(ctx, params); err != nil {
		slog.Error("failed to deliver notification", "type", params.Type, "user_id", params.UserID, "error", err)
	}
}
