package notification

import (
	"context"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=notification
type Repository interface {
	CreateNotification(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type NotifyParams struct {
	UserID    uuid.UUID
	Type      Type
	Title     string
	Message   string
	RelatedID *uuid.UUID
	ActionURL string
}

// Notify appends a notification to the recipient's inbox. Callers that sit
// on a financial path must treat a returned error as non-fatal: losing a
// notification is tolerable, failing a settlement over one is not.
func (s *Service) Notify(ctx context.Context, params NotifyParams) (*Notification, error) {
	n := &Notification{
		UserID:    params.UserID,
		Type:      params.Type,
		Title:     params.Title,
		Message:   params.Message,
		RelatedID: params.RelatedID,
		ActionURL: params.ActionURL,
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return nil, err
	}

	return n, nil
}

// ListByUser returns the user's inbox, newest first.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Notification, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// MarkRead is idempotent; re-marking an already-read notification is a no-op.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, id)
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, userID)
}
