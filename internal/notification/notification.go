package notification

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Type categorizes a notification for the frontend inbox.
type Type string

// proposal_rejected and message are part of the inbox contract but emitted
// by flows outside this engine (explicit rejections, chat).
const (
	TypeProposalReceived Type = "proposal_received"
	TypeProposalAccepted Type = "proposal_accepted"
	TypeProposalRejected Type = "proposal_rejected"
	TypeStatusUpdate     Type = "status_update"
	TypeMessage          Type = "message"
	TypePayment          Type = "payment"
)

var ErrNotFound = errors.New("notification not found")

// Notification is an in-app inbox entry created as a side effect of a
// domain state transition. Entries are append-only; only the read flag
// is ever mutated.
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      Type
	Title     string
	Message   string
	Read      bool
	RelatedID *uuid.UUID
	ActionURL string
	CreatedAt time.Time
}
