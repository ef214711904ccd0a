package schedule

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a scheduling slot.
type Status string

const (
	StatusProposed  Status = "proposed"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var (
	ErrNotFound          = errors.New("schedule slot not found")
	ErrNotParticipant    = errors.New("user is not part of this schedule slot")
	ErrInvalidTransition = errors.New("invalid schedule slot status transition")
	ErrInvalidTimes      = errors.New("slot end time must be after start time")
)

// ScheduleSlot is a provider's proposed visit window for a request,
// awaiting the client's confirmation.
type ScheduleSlot struct {
	ID         uuid.UUID
	RequestID  uuid.UUID
	ClientID   uuid.UUID
	ProviderID uuid.UUID
	Date       time.Time
	StartTime  string // "09:00"
	EndTime    string // "12:00"
	Status     Status
	Notes      string
	CreatedAt  time.Time
}
