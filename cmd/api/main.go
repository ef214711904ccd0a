package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/maonamassa/marketplace/internal/config"
	"github.com/maonamassa/marketplace/internal/database"
	"github.com/maonamassa/marketplace/internal/gateway/mercadopago"
	marketplaceHttp "github.com/maonamassa/marketplace/internal/http"
	matchingHandler "github.com/maonamassa/marketplace/internal/http/matching"
	notificationHandler "github.com/maonamassa/marketplace/internal/http/notification"
	paymentHandler "github.com/maonamassa/marketplace/internal/http/payment"
	requestHandler "github.com/maonamassa/marketplace/internal/http/request"
	scheduleHandler "github.com/maonamassa/marketplace/internal/http/schedule"
	webhookHandler "github.com/maonamassa/marketplace/internal/http/webhook"
	"github.com/maonamassa/marketplace/internal/matching"
	matchingStore "github.com/maonamassa/marketplace/internal/matching/store"
	"github.com/maonamassa/marketplace/internal/notification"
	notificationStore "github.com/maonamassa/marketplace/internal/notification/store"
	"github.com/maonamassa/marketplace/internal/payment"
	paymentStore "github.com/maonamassa/marketplace/internal/payment/store"
	"github.com/maonamassa/marketplace/internal/request"
	requestStore "github.com/maonamassa/marketplace/internal/request/store"
	"github.com/maonamassa/marketplace/internal/schedule"
	scheduleStore "github.com/maonamassa/marketplace/internal/schedule/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.DB.Name, "file://migrations"); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	gateway, err := mercadopago.New(cfg.Payments.MercadoPagoToken, cfg.Payments.MockGateway)
	if err != nil {
		slog.Error("failed to build payment gateway", "error", err)
		os.Exit(1)
	}

	var (
		notificationService = notification.NewService(notificationStore.New(db))
		requestService      = request.NewService(requestStore.New(db), notificationService)
		paymentService      = payment.NewService(
			paymentStore.New(db),
			notificationService,
			gateway,
			cfg.Payments.FeePercent,
			cfg.Payments.IntentTTL,
		)
		scheduleService = schedule.NewService(scheduleStore.New(db), notificationService)
		matchingService = matching.NewService(matchingStore.New(db))
	)

	// A settled payment is what closes out the underlying request.
	paymentService.OnTransactionCompleted(func(ctx context.Context, t *payment.Transaction) {
		if err := requestService.CompleteFromSettlement(ctx, t.RequestID); err != nil {
			slog.Error("failed to complete request after settlement",
				"request_id", t.RequestID, "transaction_id", t.ID, "error", err)
		}
	})

	go sweepExpiredIntents(paymentService, cfg.Payments.SweepInterval)

	validate := validator.New(validator.WithRequiredStructEnabled())

	var (
		requestH      = requestHandler.NewHandler(requestService, paymentService, validate)
		matchingH     = matchingHandler.NewHandler(matchingService, requestService, validate)
		paymentH      = paymentHandler.NewHandler(paymentService, validate)
		notificationH = notificationHandler.NewHandler(notificationService)
		scheduleH     = scheduleHandler.NewHandler(scheduleService, validate)
		webhookH      = webhookHandler.NewHandler(paymentService)
	)

	router := marketplaceHttp.New(
		cfg.Auth.JWTSecret,
		cfg.Server.CORSOrigins,
		requestH, matchingH, paymentH, notificationH, scheduleH, webhookH,
	)

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "addr", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	if err := server.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// sweepExpiredIntents periodically cancels created intents past their TTL.
func sweepExpiredIntents(svc *payment.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

		if n, err := svc.SweepExpiredIntents(ctx); err != nil {
			slog.Error("failed to sweep expired intents", "error", err)
		} else if n > 0 {
			slog.Info("cancelled expired payment intents", "count", n)
		}

		cancel()
	}
}
