package matching_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/maonamassa/marketplace/internal/matching"
)

func TestService_UpsertProfile(t *testing.T) {
	userID := uuid.New()
	rate := int64(15000)

	type testCase struct {
		name      string
		params    matching.UpsertProfileParams
		setupMock func(m *matching.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			params: matching.UpsertProfileParams{
				UserID:        userID,
				Name:          "Maria Santos",
				Bio:           "Profissional de limpeza com 5 anos de experiência",
				Categories:    []matching.Category{{ID: "limpeza", FixedRate: &rate}},
				City:          "São Paulo",
				State:         "SP",
				ServiceRadius: 15,
			},
			setupMock: func(m *matching.MockRepository) {
				m.EXPECT().
					UpsertProfile(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p *matching.ProviderProfile) error {
						assert.Equal(t, userID, p.UserID)
						assert.Zero(t, p.Rating)
						assert.False(t, p.Verified)

						p.ID = uuid.New()
						return nil
					})
			},
		},
		{
			name: "NoCategories",
			params: matching.UpsertProfileParams{
				UserID: userID,
				Name:   "Maria Santos",
				City:   "São Paulo",
			},
			wantErr: matching.ErrNoCategories,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := matching.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := matching.NewService(repo)

			got, err := svc.UpsertProfile(context.Background(), tt.params)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, userID, got.UserID)
		})
	}
}

func TestService_ProfileByUser(t *testing.T) {
	userID := uuid.New()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := matching.NewMockRepository(ctrl)
	repo.EXPECT().ProfileByUser(gomock.Any(), userID).Return(nil, matching.ErrProfileNotFound)

	svc := matching.NewService(repo)

	_, err := svc.ProfileByUser(context.Background(), userID)
	assert.ErrorIs(t, err, matching.ErrProfileNotFound)
}

func TestService_MatchProviders(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := matching.NewMockRepository(ctrl)

	repo.EXPECT().
		FindProviders(gomock.Any(), matching.MatchFilter{
			CategoryID: "encanamento",
			City:       "São Paulo",
			BudgetMax:  50000,
		}).
		Return([]*matching.ProviderProfile{
			{ID: uuid.New(), Name: "Carlos Silva", Rating: 4.9},
			{ID: uuid.New(), Name: "João Pereira", Rating: 4.2},
		}, nil)

	svc := matching.NewService(repo)

	got, err := svc.MatchProviders(context.Background(), "encanamento", "São Paulo", 50000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.GreaterOrEqual(t, got[0].Rating, got[1].Rating)
}
