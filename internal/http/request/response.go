package request

import (
	"time"

	"github.com/google/uuid"

	"github.com/maonamassa/marketplace/internal/request"
)

type requestResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ClientID           uuid.UUID       `json:"client_id"`
	CategoryID         string          `json:"category_id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Location           locationPayload `json:"location"`
	Budget             budgetPayload   `json:"budget"`
	Urgency            request.Urgency `json:"urgency"`
	PreferredDate      time.Time       `json:"preferred_date"`
	Status             request.Status  `json:"status"`
	AcceptedProposalID *uuid.UUID      `json:"accepted_proposal_id,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          *time.Time      `json:"updated_at,omitempty"`
}

type locationPayload struct {
	Address string `json:"address"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required,len=2"`
}

type budgetPayload struct {
	Min int64 `json:"min" validate:"gte=0"`
	Max int64 `json:"max" validate:"gtefield=Min"`
}

func toResponse(r *request.ServiceRequest) requestResponse {
	return requestResponse{
		ID:                 r.ID,
		ClientID:           r.ClientID,
		CategoryID:         r.CategoryID,
		Title:              r.Title,
		Description:        r.Description,
		Location:           locationPayload{Address: r.Location.Address, City: r.Location.City, State: r.Location.State},
		Budget:             budgetPayload{Min: r.Budget.Min, Max: r.Budget.Max},
		Urgency:            r.Urgency,
		PreferredDate:      r.PreferredDate,
		Status:             r.Status,
		AcceptedProposalID: r.AcceptedProposalID,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func toResponseList(rs []*request.ServiceRequest) []requestResponse {
	resp := make([]requestResponse, len(rs))
	for i, r := range rs {
		resp[i] = toResponse(r)
	}

	return resp
}

type proposalResponse struct {
	ID                uuid.UUID `json:"id"`
	RequestID         uuid.UUID `json:"request_id"`
	ProviderID        uuid.UUID `json:"provider_id"`
	Price             int64     `json:"price"`
	EstimatedDuration string    `json:"estimated_duration"`
	Message           string    `json:"message"`
	CreatedAt         time.Time `json:"created_at"`
}

func toProposalResponse(p *request.Proposal) proposalResponse {
	return proposalResponse{
		ID:                p.ID,
		RequestID:         p.RequestID,
		ProviderID:        p.ProviderID,
		Price:             p.Price,
		EstimatedDuration: p.EstimatedDuration,
		Message:           p.Message,
		CreatedAt:         p.CreatedAt,
	}
}

func toProposalResponseList(ps []*request.Proposal) []proposalResponse {
	resp := make([]proposalResponse, len(ps))
	for i, p := range ps {
		resp[i] = toProposalResponse(p)
	}

	return resp
}

type acceptResponse struct {
	Request  requestResponse  `json:"request"`
	Proposal proposalResponse `json:"proposal"`
	Intent   *intentSummary   `json:"intent,omitempty"`
}

type intentSummary struct {
	ID        uuid.UUID `json:"id"`
	Amount    int64     `json:"amount"`
	ExpiresAt time.Time `json:"expires_at"`
}
