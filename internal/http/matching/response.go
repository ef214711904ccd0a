package matching

import (
	"time"

	"github.com/google/uuid"

	"github.com/maonamassa/marketplace/internal/matching"
)

type upsertProfileRequest struct {
	Name          string            `json:"name" validate:"required"`
	Bio           string            `json:"bio"`
	Categories    []categoryPayload `json:"categories" validate:"required,min=1,dive"`
	City          string            `json:"city" validate:"required"`
	State         string            `json:"state" validate:"required,len=2"`
	ServiceRadius int               `json:"service_radius" validate:"gte=0"`
	HourlyRate    *int64            `json:"hourly_rate,omitempty" validate:"omitempty,gt=0"`
}

type categoryPayload struct {
	ID        string `json:"id" validate:"required"`
	FixedRate *int64 `json:"fixed_rate,omitempty" validate:"omitempty,gt=0"`
}

type profileResponse struct {
	ID            uuid.UUID         `json:"id"`
	UserID        uuid.UUID         `json:"user_id"`
	Name          string            `json:"name"`
	Bio           string            `json:"bio,omitempty"`
	Categories    []categoryPayload `json:"categories"`
	City          string            `json:"city"`
	State         string            `json:"state"`
	ServiceRadius int               `json:"service_radius"`
	HourlyRate    *int64            `json:"hourly_rate,omitempty"`
	Rating        float64           `json:"rating"`
	ReviewCount   int               `json:"review_count"`
	CompletedJobs int               `json:"completed_jobs"`
	Verified      bool              `json:"verified"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     *time.Time        `json:"updated_at,omitempty"`
}

func toResponse(p *matching.ProviderProfile) profileResponse {
	categories := make([]categoryPayload, len(p.Categories))
	for i, c := range p.Categories {
		categories[i] = categoryPayload{ID: c.ID, FixedRate: c.FixedRate}
	}

	return profileResponse{
		ID:            p.ID,
		UserID:        p.UserID,
		Name:          p.Name,
		Bio:           p.Bio,
		Categories:    categories,
		City:          p.City,
		State:         p.State,
		ServiceRadius: p.ServiceRadius,
		HourlyRate:    p.HourlyRate,
		Rating:        p.Rating,
		ReviewCount:   p.ReviewCount,
		CompletedJobs: p.CompletedJobs,
		Verified:      p.Verified,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toResponseList(ps []*matching.ProviderProfile) []profileResponse {
	resp := make([]profileResponse, len(ps))
	for i, p := range ps {
		resp[i] = toResponse(p)
	}

	return resp
}
