package notification_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/maonamassa/marketplace/internal/notification"
)

func TestService_Notify(t *testing.T) {
	userID := uuid.New()
	relatedID := uuid.New()

	type testCase struct {
		name      string
		params    notification.NotifyParams
		setupMock func(m *notification.MockRepository)
		wantErr   bool
	}

	tests := []testCase{
		{
			name: "Success",
			params: notification.NotifyParams{
				UserID:    userID,
				Type:      notification.TypeProposalReceived,
				Title:     "Nova proposta recebida",
				Message:   "Você recebeu uma proposta de R$ 300,00",
				RelatedID: &relatedID,
				ActionURL: "/dashboard",
			},
			setupMock: func(m *notification.MockRepository) {
				m.EXPECT().
					CreateNotification(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, n *notification.Notification) error {
						assert.False(t, n.Read)
						n.ID = uuid.New()
						return nil
					})
			},
		},
		{
			name:   "RepoError",
			params: notification.NotifyParams{UserID: userID, Type: notification.TypePayment},
			setupMock: func(m *notification.MockRepository) {
				m.EXPECT().
					CreateNotification(gomock.Any(), gomock.Any()).
					Return(errors.New("db error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := notification.NewMockRepository(ctrl)
			tt.setupMock(repo)

			svc := notification.NewService(repo)

			got, err := svc.Notify(context.Background(), tt.params)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.params.UserID, got.UserID)
			assert.Equal(t, tt.params.Type, got.Type)
		})
	}
}

func TestService_MarkRead(t *testing.T) {
	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := notification.NewMockRepository(ctrl)
		repo.EXPECT().MarkRead(gomock.Any(), id).Return(nil)

		svc := notification.NewService(repo)

		assert.NoError(t, svc.MarkRead(context.Background(), id))
	})

	t.Run("NotFound", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := notification.NewMockRepository(ctrl)
		repo.EXPECT().MarkRead(gomock.Any(), id).Return(notification.ErrNotFound)

		svc := notification.NewService(repo)

		assert.ErrorIs(t, svc.MarkRead(context.Background(), id), notification.ErrNotFound)
	})
}

func TestService_UnreadCount(t *testing.T) {
	userID := uuid.New()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := notification.NewMockRepository(ctrl)
	repo.EXPECT().UnreadCount(gomock.Any(), userID).Return(4, nil)

	svc := notification.NewService(repo)

	count, err := svc.UnreadCount(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}
