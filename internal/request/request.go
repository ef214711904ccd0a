package request

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a service request.
type Status string

const (
	StatusOpen       Status = "open"
	StatusProposals  Status = "proposals"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Urgency expresses how soon the client needs the service done.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

var (
	ErrNotFound            = errors.New("service request not found")
	ErrProposalNotFound    = errors.New("proposal not found")
	ErrInvalidBudget       = errors.New("budget minimum exceeds maximum")
	ErrSelfProposal        = errors.New("providers cannot propose on their own requests")
	ErrRequestNotOpen      = errors.New("request is not accepting proposals")
	ErrNotRequestOwner     = errors.New("request belongs to another client")
	ErrNotAssignedProvider = errors.New("request is assigned to another provider")
	ErrCancelNotAllowed    = errors.New("request can no longer be cancelled")
	ErrInvalidTransition   = errors.New("invalid request status transition")
)

type Location struct {
	Address string
	City    string
	State   string
}

// Budget is the client's acceptable price range, in centavos.
type Budget struct {
	Min int64
	Max int64
}

// ServiceRequest is a client's ask for a service. Requests are never
// deleted; they only move through the status state machine.
type ServiceRequest struct {
	ID                 uuid.UUID
	ClientID           uuid.UUID
	CategoryID         string
	Title              string
	Description        string
	Location           Location
	Budget             Budget
	Urgency            Urgency
	PreferredDate      time.Time
	Status             Status
	AcceptedProposalID *uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          *time.Time
}

// Proposal is a provider's offer against an open request. Proposals are
// immutable once created.
type Proposal struct {
	ID                uuid.UUID
	RequestID         uuid.UUID
	ProviderID        uuid.UUID
	Price             int64
	EstimatedDuration string
	Message           string
	CreatedAt         time.Time
}
