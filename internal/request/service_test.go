package request_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/maonamassa/marketplace/internal/money"
	"github.com/maonamassa/marketplace/internal/notification"
	"github.com/maonamassa/marketplace/internal/request"
)

func TestService_Create(t *testing.T) {
	type testCase struct {
		name      string
		params    request.CreateParams
		setupMock func(m *request.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			params: request.CreateParams{
				ClientID:    uuid.New(),
				CategoryID:  "eletricista",
				Title:       "Trocar fiação da cozinha",
				Description: "Fiação antiga, precisa de substituição completa",
				Location:    request.Location{City: "São Paulo", State: "SP"},
				Budget:      request.Budget{Min: 10000, Max: 50000},
				Urgency:     request.UrgencyHigh,
			},
			setupMock: func(m *request.MockRepository) {
				m.EXPECT().
					CreateRequest(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, r *request.ServiceRequest) error {
						assert.Equal(t, request.StatusOpen, r.Status)
						r.ID = uuid.New()
						return nil
					})
			},
		},
		{
			name: "MinAboveMax",
			params: request.CreateParams{
				Budget: request.Budget{Min: 50000, Max: 10000},
			},
			wantErr: request.ErrInvalidBudget,
		},
		{
			name: "NegativeMin",
			params: request.CreateParams{
				Budget: request.Budget{Min: -100, Max: 10000},
			},
			wantErr: request.ErrInvalidBudget,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := request.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := request.NewService(repo, nil)

			got, err := svc.Create(context.Background(), tt.params)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, request.StatusOpen, got.Status)
		})
	}
}

func TestService_SubmitProposal(t *testing.T) {
	requestID := uuid.New()
	clientID := uuid.New()
	providerID := uuid.New()

	openRequest := func(status request.Status) *request.ServiceRequest {
		return &request.ServiceRequest{
			ID:       requestID,
			ClientID: clientID,
			Title:    "Pintura da sala",
			Status:   status,
		}
	}

	type testCase struct {
		name       string
		params     request.SubmitProposalParams
		setupMock  func(m *request.MockRepository, tx *request.MockRequestTx, n *request.MockNotifier)
		wantErr    error
	}

	tests := []testCase{
		{
			name: "FirstProposalMovesRequestToProposals",
			params: request.SubmitProposalParams{
				RequestID:         requestID,
				ProviderID:        providerID,
				Price:             30000,
				EstimatedDuration: "2 dias",
			},
			setupMock: func(m *request.MockRepository, tx *request.MockRequestTx, n *request.MockNotifier) {
				m.EXPECT().Begin(gomock.Any(), requestID).Return(tx, nil)
				tx.EXPECT().Request().Return(openRequest(request.StatusOpen))
				tx.EXPECT().
					CreateProposal(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p *request.Proposal) error {
						p.ID = uuid.New()
						return nil
					})
				tx.EXPECT().SetStatus(gomock.Any(), request.StatusProposals).Return(nil)
				tx.EXPECT().Commit().Return(nil)
				tx.EXPECT().Rollback().Return(nil)

				n.EXPECT().
					Notify(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, params notification.NotifyParams) (*notification.Notification, error) {
						assert.Equal(t, clientID, params.UserID)
						assert.Equal(t, notification.TypeProposalReceived, params.Type)
						return nil, nil
					})
			},
		},
		{
			name: "SecondProposalKeepsStatus",
			params: request.SubmitProposalParams{
				RequestID:  requestID,
				ProviderID: providerID,
				Price:      25000,
			},
			setupMock: func(m *request.MockRepository, tx *request.MockRequestTx, n *request.MockNotifier) {
				m.EXPECT().Begin(gomock.Any(), requestID).Return(tx, nil)
				tx.EXPECT().Request().Return(openRequest(request.StatusProposals))
				tx.EXPECT().CreateProposal(gomock.Any(), gomock.Any()).Return(nil)
				tx.EXPECT().Commit().Return(nil)
				tx.EXPECT().Rollback().Return(nil)

				n.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil, nil)
			},
		},
		{
			name: "SelfProposal",
			params: request.SubmitProposalParams{
				RequestID:  requestID,
				ProviderID: clientID,
				Price:      30000,
			},
			setupMock: func(m *request.MockRepository, tx *request.MockRequestTx, _ *request.MockNotifier) {
				m.EXPECT().Begin(gomock.Any(), requestID).Return(tx, nil)
				tx.EXPECT().Request().Return(openRequest(request.StatusOpen))
				tx.EXPECT().Rollback().Return(nil)
			},
			wantErr: request.ErrSelfProposal,
		},
		{
			name: "RequestAssigned",
			params: request.SubmitProposalParams{
				RequestID:  requestID,
				ProviderID: providerID,
				Price:      30000,
			},
			setupMock: func(m *request.MockRepository, tx *request.MockRequestTx, _ *request.MockNotifier) {
				m.EXPECT().Begin(gomock.Any(), requestID).Return(tx, nil)
				tx.EXPECT().Request().Return(openRequest(request.StatusAssigned))
				tx.EXPECT().Rollback().Return(nil)
			},
			wantErr: request.ErrRequestNotOpen,
		},
		{
			name: "ZeroPrice",
			params: request.SubmitProposalParams{
				RequestID:  requestID,
				ProviderID: providerID,
				Price:      0,
			},
			wantErr: money.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := request.NewMockRepository(ctrl)
			tx := request.NewMockRequestTx(ctrl)
			notifier := request.NewMockNotifier(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo, tx, notifier)
			}

			svc := request.NewService(repo, notifier)

			got, err := svc.SubmitProposal(context.Background(), tt.params)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.params.Price, got.Price)
		})
	}
}

func TestService_Accept(t *testing.T) {
	requestID := uuid.New()
	proposalID := uuid.New()
	clientID := uuid.New()
	providerID := uuid.New()

	proposal := &request.Proposal{
		ID:         proposalID,
		RequestID:  requestID,
		ProviderID: providerID,
		Price:      30000,
	}

	type testCase struct {
		name      string
		clientID  uuid.UUID
		setupMock func(m *request.MockRepository, tx *request.MockRequestTx, n *request.MockNotifier)
		wantErr   error
	}

	tests := []testCase{
		{
			name:     "Success",
			clientID: clientID,
			setupMock: func(m *request.MockRepository, tx *request.MockRequestTx, n *request.MockNotifier) {
				m.EXPECT().Begin(gomock.Any(), requestID).Return(tx, nil)
				tx.EXPECT().Request().Return(&request.ServiceRequest{
					ID:       requestID,
					ClientID: clientID,
					Status:   request.StatusProposals,
				})
				tx.EXPECT().GetProposal(gomock.Any(), proposalID).Return(proposal, nil)
				tx.EXPECT().SetAcceptedProposal(gomock.Any(), proposalID).Return(nil)
				tx.EXPECT().SetStatus(gomock.Any(), request.StatusAssigned).Return(nil)
				tx.EXPECT().Commit().Return(nil)
				tx.EXPECT().Rollback().Return(nil)

				n.EXPECT().
					Notify(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, params notification.NotifyParams) (*notification.Notification, error) {
						assert.Equal(t, providerID, params.UserID)
						assert.Equal(t, notification.TypeProposalAccepted, params.Type)
						return nil, nil
					})
			},
		},
		{
			name:     "NotOwner",
			clientID: uuid.New(),
			setupMock: func(m *request.MockRepository, tx *request.MockRequestTx, _ *request.MockNotifier) {
				m.EXPECT().Begin(gomock.Any(), requestID).Return(tx, nil)
				tx.EXPECT().Request().Return(&request.ServiceRequest{
					ID:       requestID,
					ClientID: clientID,
					Status:   request.StatusProposals,
				})
				tx.EXPECT().Rollback().Return(nil)
			},
			wantErr: request.ErrNotRequestOwner,
		},
		{
			name:     "ProposalFromAnotherRequest",
			clientID: clientID,
			setupMock: func(m *request.MockRepository, tx *request.MockRequestTx, _ *request.MockNotifier) {
				foreign := &request.Proposal{
					ID:        proposalID,
					RequestID: uuid.New(),
				}

				m.EXPECT().Begin(gomock.Any(), requestID).Return(tx, nil)
				tx.EXPECT().Request().Return(&request.ServiceRequest{
					ID:       requestID,
					ClientID: clientID,
					Status:   request.StatusProposals,
				})
				tx.EXPECT().GetProposal(gomock.Any(), proposalID).Return(foreign, nil)
				tx.EXPECT().Rollback().Return(nil)
			},
			wantErr: request.ErrProposalNotFound,
		},
		{
			name:     "AlreadyAssigned",
			clientID: clientID,
			setupMock: func(m *request.MockRepository, tx *request.MockRequestTx, _ *request.MockNotifier) {
				m.EXPECT().Begin(gomock.Any(), requestID).Return(tx, nil)
				tx.EXPECT().Request().Return(&request.ServiceRequest{
					ID:       requestID,
					ClientID: clientID,
					Status:   request.StatusAssigned,
				})
				tx.EXPECT().Rollback().Return(nil)
			},
			wantErr: request.ErrRequestNotOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := request.NewMockRepository(ctrl)
			tx := request.NewMockRequestTx(ctrl)
			notifier := request.NewMockNotifier(ctrl)
			tt.setupMock(repo, tx, notifier)

			svc := request.NewService(repo, notifier)

			gotReq, gotProposal, err := svc.Accept(context.Background(), requestID, proposalID, tt.clientID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, request.StatusAssigned, gotReq.Status)
			require.NotNil(t, gotReq.AcceptedProposalID)
			assert.Equal(t, proposalID, *gotReq.AcceptedProposalID)
			assert.Equal(t, proposalID, gotProposal.ID)
		})
	}
}

func TestService_StartWork(t *testing.T) {
	requestID := uuid.New()
	proposalID := uuid.New()
	clientID := uuid.New()
	providerID := uuid.New()

	assigned := func() *request.ServiceRequest {
		return &request.ServiceRequest{
			ID:                 requestID,
			ClientID:           clientID,
			Status:             request.StatusAssigned,
			AcceptedProposalID: &proposalID,
		}
	}

	proposal := &request.Proposal{
		ID:         proposalID,
		RequestID:  requestID,
		ProviderID: providerID,
	}

	t.Run("Success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := request.NewMockRepository(ctrl)
		tx := request.NewMockRequestTx(ctrl)
		notifier := request.NewMockNotifier(ctrl)

		repo.EXPECT().Begin(gomock.Any(), requestID).Return(tx, nil)
		tx.EXPECT().Request().Return(assigned())
		tx.EXPECT().GetProposal(gomock.Any(), proposalID).Return(proposal, nil)
		tx.EXPECT().SetStatus(gomock.Any(), request.StatusInProgress).Return(nil)
		tx.EXPECT().Commit().Return(nil)
		tx.EXPECT().Rollback().Return(nil)

		notifier.EXPECT().
			Notify(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, params notification.NotifyParams) (*notification.Notification, error) {
				assert.Equal(t, clientID, params.UserID)
				return nil, nil
			})

		svc := request.NewService(repo, notifier)

		got, err := svc.StartWork(context.Background(), requestID, providerID)
		require.NoError(t, err)
		assert.Equal(t, request.StatusInProgress, got.Status)
	})

	t.Run("WrongProvider", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := request.NewMockRepository(ctrl)
		tx := request.NewMockRequestTx(ctrl)

		repo.EXPECT().Begin(gomock.Any(), requestID).Return(tx, nil)
		tx.EXPECT().Request().Return(assigned())
		tx.EXPECT().GetProposal(gomock.Any(), proposalID).Return(proposal, nil)
		tx.EXPECT().Rollback().Return(nil)

		svc := request.NewService(repo, nil)

		_, err := svc.StartWork(context.Background(), requestID, uuid.New())
		assert.ErrorIs(t, err, request.ErrNotAssignedProvider)
	})

	t.Run("NotAssigned", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := request.NewMockRepository(ctrl)
		tx := request.NewMockRequestTx(ctrl)

		repo.EXPECT().Begin(gomock.Any(), requestID).Return(tx, nil)
		tx.EXPECT().Request().Return(&request.ServiceRequest{
			ID:     requestID,
			Status: request.StatusOpen,
		})
		tx.EXPECT().Rollback().Return(nil)

		svc := request.NewService(repo, nil)

		_, err := svc.StartWork(context.Background(), requestID, providerID)
		assert.ErrorIs(t, err, request.ErrInvalidTransition)
	})
}

func TestService_Cancel(t *testing.T) {
	requestID := uuid.New()
	clientID := uuid.New()

	type testCase struct {
		name    string
		status  request.Status
		wantErr error
	}

	tests := []testCase{
		{name: "OpenCancellable", status: request.StatusOpen},
		{name: "ProposalsCancellable", status: request.StatusProposals},
		{name: "AssignedCancellable", status: request.StatusAssigned},
		{name: "InProgressNotCancellable", status: request.StatusInProgress, wantErr: request.ErrCancelNotAllowed},
		{name: "CompletedNotCancellable", status: request.StatusCompleted, wantErr: request.ErrCancelNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := request.NewMockRepository(ctrl)
			tx := request.NewMockRequestTx(ctrl)

			repo.EXPECT().Begin(gomock.Any(), requestID).Return(tx, nil)
			tx.EXPECT().Request().Return(&request.ServiceRequest{
				ID:       requestID,
				ClientID: clientID,
				Status:   tt.status,
			})
			tx.EXPECT().Rollback().Return(nil)

			if tt.wantErr == nil {
				tx.EXPECT().SetStatus(gomock.Any(), request.StatusCancelled).Return(nil)
				tx.EXPECT().Commit().Return(nil)
			}

			svc := request.NewService(repo, nil)

			got, err := svc.Cancel(context.Background(), requestID, clientID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, request.StatusCancelled, got.Status)
		})
	}
}

func TestService_CompleteFromSettlement(t *testing.T) {
	requestID := uuid.New()

	type testCase struct {
		name       string
		status     request.Status
		wantCommit bool
		wantErr    error
	}

	tests := []testCase{
		{name: "AssignedCompletes", status: request.StatusAssigned, wantCommit: true},
		{name: "InProgressCompletes", status: request.StatusInProgress, wantCommit: true},
		{name: "CompletedIsNoOp", status: request.StatusCompleted},
		{name: "CancelledIsNoOp", status: request.StatusCancelled},
		{name: "OpenIsInvalid", status: request.StatusOpen, wantErr: request.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := request.NewMockRepository(ctrl)
			tx := request.NewMockRequestTx(ctrl)

			repo.EXPECT().Begin(gomock.Any(), requestID).Return(tx, nil)
			tx.EXPECT().Request().Return(&request.ServiceRequest{
				ID:     requestID,
				Status: tt.status,
			})
			tx.EXPECT().Rollback().Return(nil)

			if tt.wantCommit {
				tx.EXPECT().SetStatus(gomock.Any(), request.StatusCompleted).Return(nil)
				tx.EXPECT().Commit().Return(nil)
			}

			svc := request.NewService(repo, nil)

			err := svc.CompleteFromSettlement(context.Background(), requestID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
		})
	}
}
