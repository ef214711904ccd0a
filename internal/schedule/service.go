package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/maonamassa/marketplace/internal/identity"
	"github.com/maonamassa/marketplace/internal/notification"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=schedule
type Repository interface {
	CreateSlot(ctx context.Context, slot *ScheduleSlot) error
	GetSlot(ctx context.Context, id uuid.UUID) (*ScheduleSlot, error)
	SlotsByUser(ctx context.Context, userID uuid.UUID, role identity.Role) ([]*ScheduleSlot, error)
	UpdateSlotStatus(ctx context.Context, id uuid.UUID, from []Status, to Status) (*ScheduleSlot, error)
}

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

type ProposeParams struct {
	RequestID  uuid.UUID
	ClientID   uuid.UUID
	ProviderID uuid.UUID
	Date       time.Time
	StartTime  string
	EndTime    string
	Notes      string
}

// Propose records a provider's visit window and tells the client about it.
func (s *Service) Propose(ctx context.Context, params ProposeParams) (*ScheduleSlot, error) {
	if params.EndTime <= params.StartTime {
		return nil, ErrInvalidTimes
	}

	slot := &ScheduleSlot{
		RequestID:  params.RequestID,
		ClientID:   params.ClientID,
		ProviderID: params.ProviderID,
		Date:       params.Date,
		StartTime:  params.StartTime,
		EndTime:    params.EndTime,
		Status:     StatusProposed,
		Notes:      params.Notes,
	}
	if err := s.repo.CreateSlot(ctx, slot); err != nil {
		return nil, err
	}

	s.notify(ctx, notification.NotifyParams{
		UserID:    slot.ClientID,
		Type:      notification.TypeStatusUpdate,
		Title:     "Agendamento proposto",
		Message:   fmt.Sprintf("Agendamento proposto: %s às %s", slot.Date.Format("02/01/2006"), slot.StartTime),
		RelatedID: &slot.RequestID,
		ActionURL: "/schedule",
	})

	return slot, nil
}

// Confirm accepts a proposed slot. Only the client the slot was proposed to
// may confirm.
func (s *Service) Confirm(ctx context.Context, slotID, userID uuid.UUID) (*ScheduleSlot, error) {
	slot, err := s.repo.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}

	if slot.ClientID != userID {
		return nil, ErrNotParticipant
	}

	slot, err = s.repo.UpdateSlotStatus(ctx, slotID, []Status{StatusProposed}, StatusConfirmed)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notification.NotifyParams{
		UserID:    slot.ProviderID,
		Type:      notification.TypeStatusUpdate,
		Title:     "Agendamento confirmado",
		Message:   fmt.Sprintf("O cliente confirmou o agendamento de %s às %s", slot.Date.Format("02/01/2006"), slot.StartTime),
		RelatedID: &slot.RequestID,
		ActionURL: "/schedule",
	})

	return slot, nil
}

// Cancel withdraws a slot that has not been carried out. Either participant
// may cancel.
func (s *Service) Cancel(ctx context.Context, slotID, userID uuid.UUID) (*ScheduleSlot, error) {
	slot, err := s.repo.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}

	if slot.ClientID != userID && slot.ProviderID != userID {
		return nil, ErrNotParticipant
	}

	return s.repo.UpdateSlotStatus(ctx, slotID, []Status{StatusProposed, StatusConfirmed}, StatusCancelled)
}

func (s *Service) SlotsByUser(ctx context.Context, userID uuid.UUID, role identity.Role) ([]*ScheduleSlot, error) {
	return s.repo.SlotsByUser(ctx, userID, role)
}

func (s *Service) notify(ctx context.Context, params notification.NotifyParams) {
	if s.notifier == nil {
		return
	}

	if _, err := s.notifier.Notify(ctx, params); err != nil {
		slog.Error("failed to deliver notification", "type", params.Type, "user_id", params.UserID, "error", err)
	}
}
