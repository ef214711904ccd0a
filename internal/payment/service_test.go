package payment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/maonamassa/marketplace/internal/identity"
	"github.com/maonamassa/marketplace/internal/money"
	"github.com/maonamassa/marketplace/internal/notification"
	"github.com/maonamassa/marketplace/internal/payment"
)

func TestService_CreateIntent(t *testing.T) {
	type testCase struct {
		name      string
		params    payment.CreateIntentParams
		setupMock func(m *payment.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			params: payment.CreateIntentParams{
				RequestID:   uuid.New(),
				ClientID:    uuid.New(),
				ProviderID:  uuid.New(),
				Amount:      20000,
				Description: "Instalação elétrica",
			},
			setupMock: func(m *payment.MockRepository) {
				m.EXPECT().
					CreateIntent(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, intent *payment.PaymentIntent) error {
						intent.ID = uuid.New()
						intent.CreatedAt = time.Now()
						return nil
					})
			},
		},
		{
			name:    "ZeroAmount",
			params:  payment.CreateIntentParams{Amount: 0},
			wantErr: money.ErrInvalidAmount,
		},
		{
			name:    "NegativeAmount",
			params:  payment.CreateIntentParams{Amount: -500},
			wantErr: money.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := payment.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := payment.NewService(repo, nil, nil, 10, 24*time.Hour)

			got, err := svc.CreateIntent(context.Background(), tt.params)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, payment.IntentCreated, got.Status)
			assert.WithinDuration(t, time.Now().Add(24*time.Hour), got.ExpiresAt, time.Minute)
		})
	}
}

func TestService_ConfirmIntent(t *testing.T) {
	intentID := uuid.New()
	methodID := uuid.New()
	clientID := uuid.New()

	method := &payment.PaymentMethod{
		ID:     methodID,
		UserID: clientID,
		Type:   payment.MethodCreditCard,
		Brand:  "Visa",
		Last4:  "4242",
	}

	openIntent := func() *payment.PaymentIntent {
		return &payment.PaymentIntent{
			ID:          intentID,
			RequestID:   uuid.New(),
			ClientID:    clientID,
			ProviderID:  uuid.New(),
			Amount:      20000,
			Description: "Reforma do banheiro",
			Status:      payment.IntentCreated,
			ExpiresAt:   time.Now().Add(time.Hour),
		}
	}

	type testCase struct {
		name      string
		setupMock func(m *payment.MockRepository, tx *payment.MockConfirmTx)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			setupMock: func(m *payment.MockRepository, tx *payment.MockConfirmTx) {
				m.EXPECT().BeginConfirm(gomock.Any(), intentID).Return(tx, nil)
				tx.EXPECT().Intent().Return(openIntent())
				tx.EXPECT().Method(gomock.Any(), methodID).Return(method, nil)
				tx.EXPECT().
					CreateTransaction(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tr *payment.Transaction) error {
						assert.Equal(t, int64(20000), tr.Amount)
						assert.Equal(t, int64(2000), tr.Fee)
						assert.Equal(t, int64(18000), tr.NetAmount)
						assert.Equal(t, payment.StatusProcessing, tr.Status)
						assert.Equal(t, "Visa ****4242", tr.PaymentMethod)

						tr.ID = uuid.New()
						return nil
					})
				tx.EXPECT().MarkConfirmed(gomock.Any()).Return(nil)
				tx.EXPECT().Commit().Return(nil)
				tx.EXPECT().Rollback().Return(nil)
			},
		},
		{
			name: "AlreadyConfirmed",
			setupMock: func(m *payment.MockRepository, tx *payment.MockConfirmTx) {
				confirmed := openIntent()
				confirmed.Status = payment.IntentConfirmed

				m.EXPECT().BeginConfirm(gomock.Any(), intentID).Return(tx, nil)
				tx.EXPECT().Intent().Return(confirmed)
				tx.EXPECT().Rollback().Return(nil)
			},
			wantErr: payment.ErrIntentAlreadyConfirmed,
		},
		{
			name: "Expired",
			setupMock: func(m *payment.MockRepository, tx *payment.MockConfirmTx) {
				expired := openIntent()
				expired.ExpiresAt = time.Now().Add(-time.Minute)

				m.EXPECT().BeginConfirm(gomock.Any(), intentID).Return(tx, nil)
				tx.EXPECT().Intent().Return(expired)
				tx.EXPECT().Rollback().Return(nil)
			},
			wantErr: payment.ErrIntentExpired,
		},
		{
			name: "MethodNotFound",
			setupMock: func(m *payment.MockRepository, tx *payment.MockConfirmTx) {
				m.EXPECT().BeginConfirm(gomock.Any(), intentID).Return(tx, nil)
				tx.EXPECT().Intent().Return(openIntent())
				tx.EXPECT().Method(gomock.Any(), methodID).Return(nil, payment.ErrMethodNotFound)
				tx.EXPECT().Rollback().Return(nil)
			},
			wantErr: payment.ErrMethodNotFound,
		},
		{
			name: "IntentNotFound",
			setupMock: func(m *payment.MockRepository, _ *payment.MockConfirmTx) {
				m.EXPECT().BeginConfirm(gomock.Any(), intentID).Return(nil, payment.ErrIntentNotFound)
			},
			wantErr: payment.ErrIntentNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := payment.NewMockRepository(ctrl)
			tx := payment.NewMockConfirmTx(ctrl)
			tt.setupMock(repo, tx)

			svc := payment.NewService(repo, nil, nil, 10, 24*time.Hour)

			got, err := svc.ConfirmIntent(context.Background(), intentID, methodID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, got.Fee+got.NetAmount, got.Amount)
		})
	}
}

func TestService_ConfirmIntent_SyncGatewayVerdict(t *testing.T) {
	intentID := uuid.New()
	methodID := uuid.New()
	clientID := uuid.New()
	providerID := uuid.New()

	method := &payment.PaymentMethod{
		ID:     methodID,
		UserID: clientID,
		Type:   payment.MethodCreditCard,
		Brand:  "Visa",
		Last4:  "4242",
	}

	expectConfirm := func(repo *payment.MockRepository, tx *payment.MockConfirmTx) {
		repo.EXPECT().BeginConfirm(gomock.Any(), intentID).Return(tx, nil)
		tx.EXPECT().Intent().Return(&payment.PaymentIntent{
			ID:          intentID,
			RequestID:   uuid.New(),
			ClientID:    clientID,
			ProviderID:  providerID,
			Amount:      20000,
			Description: "Montagem de móveis",
			Status:      payment.IntentCreated,
			ExpiresAt:   time.Now().Add(time.Hour),
		})
		tx.EXPECT().Method(gomock.Any(), methodID).Return(method, nil)
		tx.EXPECT().
			CreateTransaction(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, tr *payment.Transaction) error {
				tr.ID = uuid.New()
				return nil
			})
		tx.EXPECT().MarkConfirmed(gomock.Any()).Return(nil)
		tx.EXPECT().Commit().Return(nil)
		tx.EXPECT().Rollback().Return(nil)
	}

	t.Run("ApprovedChargeCompletesLedger", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := payment.NewMockRepository(ctrl)
		tx := payment.NewMockConfirmTx(ctrl)
		notifier := payment.NewMockNotifier(ctrl)
		gateway := payment.NewMockGateway(ctrl)

		expectConfirm(repo, tx)

		gateway.EXPECT().
			Charge(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
				assert.Equal(t, int64(20000), req.Amount)
				assert.Equal(t, payment.MethodCreditCard, req.MethodType)
				return &payment.ChargeResult{ProviderRef: "mp-1", Approved: true, Detail: "accredited"}, nil
			})

		repo.EXPECT().
			CompleteTransaction(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, id uuid.UUID, completedAt time.Time) (*payment.Transaction, error) {
				return &payment.Transaction{
					ID:          id,
					RequestID:   uuid.New(),
					ClientID:    clientID,
					ProviderID:  providerID,
					Amount:      20000,
					Fee:         2000,
					NetAmount:   18000,
					Status:      payment.StatusCompleted,
					CompletedAt: &completedAt,
				}, nil
			})

		notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)

		svc := payment.NewService(repo, notifier, gateway, 10, 24*time.Hour)

		// The listener fires last in the settlement sequence, so receiving
		// here means the whole approved path ran.
		settled := make(chan *payment.Transaction, 1)
		svc.OnTransactionCompleted(func(_ context.Context, tr *payment.Transaction) {
			settled <- tr
		})

		got, err := svc.ConfirmIntent(context.Background(), intentID, methodID)
		require.NoError(t, err)
		assert.Equal(t, payment.StatusProcessing, got.Status)

		select {
		case tr := <-settled:
			assert.Equal(t, got.ID, tr.ID)
			assert.Equal(t, payment.StatusCompleted, tr.Status)
		case <-time.After(time.Second):
			t.Fatal("approved charge never settled the transaction")
		}
	})

	t.Run("RejectedChargeFailsLedger", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := payment.NewMockRepository(ctrl)
		tx := payment.NewMockConfirmTx(ctrl)
		notifier := payment.NewMockNotifier(ctrl)
		gateway := payment.NewMockGateway(ctrl)

		expectConfirm(repo, tx)

		gateway.EXPECT().
			Charge(gomock.Any(), gomock.Any()).
			Return(&payment.ChargeResult{ProviderRef: "mp-2", Approved: false, Detail: "cc_rejected_insufficient_amount"}, nil)

		repo.EXPECT().
			FailTransaction(gomock.Any(), gomock.Any(), "cc_rejected_insufficient_amount").
			DoAndReturn(func(_ context.Context, id uuid.UUID, reason string) (*payment.Transaction, error) {
				return &payment.Transaction{
					ID:            id,
					ClientID:      clientID,
					ProviderID:    providerID,
					Amount:        20000,
					Status:        payment.StatusFailed,
					FailureReason: reason,
				}, nil
			})

		notified := make(chan notification.NotifyParams, 1)
		notifier.EXPECT().
			Notify(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, params notification.NotifyParams) (*notification.Notification, error) {
				notified <- params
				return nil, nil
			}).
			Times(1)

		svc := payment.NewService(repo, notifier, gateway, 10, 24*time.Hour)

		_, err := svc.ConfirmIntent(context.Background(), intentID, methodID)
		require.NoError(t, err)

		select {
		case params := <-notified:
			assert.Equal(t, clientID, params.UserID)
		case <-time.After(time.Second):
			t.Fatal("rejected charge never failed the transaction")
		}
	})
}

func TestService_CompleteSettlement(t *testing.T) {
	txID := uuid.New()

	completed := &payment.Transaction{
		ID:          txID,
		RequestID:   uuid.New(),
		ClientID:    uuid.New(),
		ProviderID:  uuid.New(),
		Amount:      20000,
		Fee:         2000,
		NetAmount:   18000,
		Status:      payment.StatusCompleted,
		Description: "Pintura da sala",
	}

	t.Run("Success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := payment.NewMockRepository(ctrl)
		notifier := payment.NewMockNotifier(ctrl)

		repo.EXPECT().
			CompleteTransaction(gomock.Any(), txID, gomock.Any()).
			Return(completed, nil)

		// Both sides of the marketplace hear about the settlement.
		notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)

		svc := payment.NewService(repo, notifier, nil, 10, 24*time.Hour)

		var listenerCalls int
		svc.OnTransactionCompleted(func(_ context.Context, got *payment.Transaction) {
			listenerCalls++
			assert.Equal(t, txID, got.ID)
		})

		got, err := svc.CompleteSettlement(context.Background(), txID)
		require.NoError(t, err)
		assert.Equal(t, payment.StatusCompleted, got.Status)
		assert.Equal(t, 1, listenerCalls)
	})

	t.Run("AlreadySettledIsNoOp", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := payment.NewMockRepository(ctrl)
		notifier := payment.NewMockNotifier(ctrl)

		repo.EXPECT().
			CompleteTransaction(gomock.Any(), txID, gomock.Any()).
			Return(nil, payment.ErrTransactionSettled)
		repo.EXPECT().GetTransaction(gomock.Any(), txID).Return(completed, nil)

		svc := payment.NewService(repo, notifier, nil, 10, 24*time.Hour)

		var listenerCalls int
		svc.OnTransactionCompleted(func(context.Context, *payment.Transaction) {
			listenerCalls++
		})

		got, err := svc.CompleteSettlement(context.Background(), txID)
		require.NoError(t, err)
		assert.Equal(t, payment.StatusCompleted, got.Status)
		assert.Zero(t, listenerCalls, "replayed settlement must not re-fire listeners")
	})

	t.Run("RepoError", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repo := payment.NewMockRepository(ctrl)

		repo.EXPECT().
			CompleteTransaction(gomock.Any(), txID, gomock.Any()).
			Return(nil, errors.New("db error"))

		svc := payment.NewService(repo, nil, nil, 10, 24*time.Hour)

		_, err := svc.CompleteSettlement(context.Background(), txID)
		assert.Error(t, err)
	})
}

func TestService_FailSettlement(t *testing.T) {
	txID := uuid.New()
	clientID := uuid.New()

	failed := &payment.Transaction{
		ID:            txID,
		RequestID:     uuid.New(),
		ClientID:      clientID,
		ProviderID:    uuid.New(),
		Amount:        5000,
		Fee:           500,
		NetAmount:     4500,
		Status:        payment.StatusFailed,
		FailureReason: "card declined",
	}

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)
	notifier := payment.NewMockNotifier(ctrl)

	repo.EXPECT().
		FailTransaction(gomock.Any(), txID, "card declined").
		Return(failed, nil)

	// Only the paying client is told; no money moved toward the provider.
	notifier.EXPECT().
		Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params notification.NotifyParams) (*notification.Notification, error) {
			assert.Equal(t, clientID, params.UserID)
			return nil, nil
		}).
		Times(1)

	svc := payment.NewService(repo, notifier, nil, 10, 24*time.Hour)

	got, err := svc.FailSettlement(context.Background(), txID, "card declined")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusFailed, got.Status)
	assert.Equal(t, "card declined", got.FailureReason)
}

func TestService_TransactionsByUser(t *testing.T) {
	userID := uuid.New()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)

	repo.EXPECT().
		ListTransactions(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, filter payment.TransactionFilter) ([]*payment.Transaction, error) {
			require.NotNil(t, filter.UserID)
			assert.Equal(t, userID, *filter.UserID)
			assert.Equal(t, identity.RoleProvider, filter.Role)
			return []*payment.Transaction{{ID: uuid.New()}}, nil
		})

	svc := payment.NewService(repo, nil, nil, 10, 24*time.Hour)

	txs, err := svc.TransactionsByUser(context.Background(), userID, identity.RoleProvider)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestService_SweepExpiredIntents(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := payment.NewMockRepository(ctrl)

	repo.EXPECT().
		CancelExpiredIntents(gomock.Any(), gomock.Any()).
		Return(int64(3), nil)

	svc := payment.NewService(repo, nil, nil, 10, 24*time.Hour)

	n, err := svc.SweepExpiredIntents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
