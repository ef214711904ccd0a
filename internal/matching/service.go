package matching

import (
	"context"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=matching
type Repository interface {
	UpsertProfile(ctx context.Context, p *ProviderProfile) error
	ProfileByUser(ctx context.Context, userID uuid.UUID) (*ProviderProfile, error)
	FindProviders(ctx context.Context, filter MatchFilter) ([]*ProviderProfile, error)
}

// MatchFilter narrows the directory to candidates for one request.
type MatchFilter struct {
	CategoryID string
	City       string
	BudgetMax  int64
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type UpsertProfileParams struct {
	UserID        uuid.UUID
	Name          string
	Bio           string
	Categories    []Category
	City          string
	State         string
	ServiceRadius int
	HourlyRate    *int64
}

// UpsertProfile creates or replaces the caller's directory entry. The rating
// counters and the verified flag are never written from here.
func (s *Service) UpsertProfile(ctx context.Context, params UpsertProfileParams) (*ProviderProfile, error) {
	if len(params.Categories) == 0 {
		return nil, ErrNoCategories
	}

	p := &ProviderProfile{
		UserID:        params.UserID,
		Name:          params.Name,
		Bio:           params.Bio,
		Categories:    params.Categories,
		City:          params.City,
		State:         params.State,
		ServiceRadius: params.ServiceRadius,
		HourlyRate:    params.HourlyRate,
	}
	if err := s.repo.UpsertProfile(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) ProfileByUser(ctx context.Context, userID uuid.UUID) (*ProviderProfile, error) {
	return s.repo.ProfileByUser(ctx, userID)
}

// MatchProviders returns providers working the request's category in the
// request's city whose fixed rate, when they have one, fits under the budget
// ceiling. Best rated first.
func (s *Service) MatchProviders(ctx context.Context, categoryID, city string, budgetMax int64) ([]*ProviderProfile, error) {
	return s.repo.FindProviders(ctx, MatchFilter{
		CategoryID: categoryID,
		City:       city,
		BudgetMax:  budgetMax,
	})
}
