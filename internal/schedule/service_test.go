package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/maonamassa/marketplace/internal/notification"
	"github.com/maonamassa/marketplace/internal/schedule"
)

func TestService_Propose(t *testing.T) {
	requestID := uuid.New()
	clientID := uuid.New()
	providerID := uuid.New()

	type testCase struct {
		name      string
		params    schedule.ProposeParams
		setupMock func(m *schedule.MockRepository, n *schedule.MockNotifier)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			params: schedule.ProposeParams{
				RequestID:  requestID,
				ClientID:   clientID,
				ProviderID: providerID,
				Date:       time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
				StartTime:  "09:00",
				EndTime:    "12:00",
			},
			setupMock: func(m *schedule.MockRepository, n *schedule.MockNotifier) {
				m.EXPECT().
					CreateSlot(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, slot *schedule.ScheduleSlot) error {
						assert.Equal(t, schedule.StatusProposed, slot.Status)
						slot.ID = uuid.New()
						return nil
					})

				n.EXPECT().
					Notify(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, params notification.NotifyParams) (*notification.Notification, error) {
						assert.Equal(t, clientID, params.UserID)
						assert.Equal(t, "Agendamento proposto: 15/09/2026 às 09:00", params.Message)
						return nil, nil
					})
			},
		},
		{
			name: "EndBeforeStart",
			params: schedule.ProposeParams{
				StartTime: "12:00",
				EndTime:   "09:00",
			},
			wantErr: schedule.ErrInvalidTimes,
		},
		{
			name: "EndEqualsStart",
			params: schedule.ProposeParams{
				StartTime: "09:00",
				EndTime:   "09:00",
			},
			wantErr: schedule.ErrInvalidTimes,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := schedule.NewMockRepository(ctrl)
			notifier := schedule.NewMockNotifier(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo, notifier)
			}

			svc := schedule.NewService(repo, notifier)

			got, err := svc.Propose(context.Background(), tt.params)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, schedule.StatusProposed, got.Status)
		})
	}
}

func TestService_Confirm(t *testing.T) {
	slotID := uuid.New()
	requestID := uuid.New()
	clientID := uuid.New()
	providerID := uuid.New()

	proposed := &schedule.ScheduleSlot{
		ID:         slotID,
		RequestID:  requestID,
		ClientID:   clientID,
		ProviderID: providerID,
		Date:       time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		StartTime:  "09:00",
		EndTime:    "12:00",
		Status:     schedule.StatusProposed,
	}

	t.Run("Success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := schedule.NewMockRepository(ctrl)
		notifier := schedule.NewMockNotifier(ctrl)

		confirmed := *proposed
		confirmed.Status = schedule.StatusConfirmed

		repo.EXPECT().GetSlot(gomock.Any(), slotID).Return(proposed, nil)
		repo.EXPECT().
			UpdateSlotStatus(gomock.Any(), slotID, []schedule.Status{schedule.StatusProposed}, schedule.StatusConfirmed).
			Return(&confirmed, nil)

		notifier.EXPECT().
			Notify(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, params notification.NotifyParams) (*notification.Notification, error) {
				assert.Equal(t, providerID, params.UserID)
				return nil, nil
			})

		svc := schedule.NewService(repo, notifier)

		got, err := svc.Confirm(context.Background(), slotID, clientID)
		require.NoError(t, err)
		assert.Equal(t, schedule.StatusConfirmed, got.Status)
	})

	t.Run("ProviderCannotConfirm", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := schedule.NewMockRepository(ctrl)

		repo.EXPECT().GetSlot(gomock.Any(), slotID).Return(proposed, nil)

		svc := schedule.NewService(repo, nil)

		_, err := svc.Confirm(context.Background(), slotID, providerID)
		assert.ErrorIs(t, err, schedule.ErrNotParticipant)
	})

	t.Run("AlreadyConfirmed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := schedule.NewMockRepository(ctrl)

		repo.EXPECT().GetSlot(gomock.Any(), slotID).Return(proposed, nil)
		repo.EXPECT().
			UpdateSlotStatus(gomock.Any(), slotID, []schedule.Status{schedule.StatusProposed}, schedule.StatusConfirmed).
			Return(nil, schedule.ErrInvalidTransition)

		svc := schedule.NewService(repo, nil)

		_, err := svc.Confirm(context.Background(), slotID, clientID)
		assert.ErrorIs(t, err, schedule.ErrInvalidTransition)
	})
}

func TestService_Cancel(t *testing.T) {
	slotID := uuid.New()
	clientID := uuid.New()
	providerID := uuid.New()

	slot := &schedule.ScheduleSlot{
		ID:         slotID,
		ClientID:   clientID,
		ProviderID: providerID,
		Status:     schedule.StatusConfirmed,
	}

	type testCase struct {
		name    string
		userID  uuid.UUID
		wantErr error
	}

	tests := []testCase{
		{name: "ClientCancels", userID: clientID},
		{name: "ProviderCancels", userID: providerID},
		{name: "StrangerCannot", userID: uuid.New(), wantErr: schedule.ErrNotParticipant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := schedule.NewMockRepository(ctrl)

			repo.EXPECT().GetSlot(gomock.Any(), slotID).Return(slot, nil)

			if tt.wantErr == nil {
				cancelled := *slot
				cancelled.Status = schedule.StatusCancelled

				repo.EXPECT().
					UpdateSlotStatus(gomock.Any(), slotID,
						[]schedule.Status{schedule.StatusProposed, schedule.StatusConfirmed},
						schedule.StatusCancelled).
					Return(&cancelled, nil)
			}

			svc := schedule.NewService(repo, nil)

			got, err := svc.Cancel(context.Background(), slotID, tt.userID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, schedule.StatusCancelled, got.Status)
		})
	}
}
