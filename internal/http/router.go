package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/maonamassa/marketplace/internal/http/auth"
	matchingHandler "github.com/maonamassa/marketplace/internal/http/matching"
	notificationHandler "github.com/maonamassa/marketplace/internal/http/notification"
	paymentHandler "github.com/maonamassa/marketplace/internal/http/payment"
	requestHandler "github.com/maonamassa/marketplace/internal/http/request"
	scheduleHandler "github.com/maonamassa/marketplace/internal/http/schedule"
	"github.com/maonamassa/marketplace/internal/http/webhook"
)

// New assembles the API router. Everything under /api/v1 requires a bearer
// token except the processor webhooks, which authenticate by knowing the
// external reference.
func New(
	jwtSecret string,
	corsOrigins []string,
	requestsV1 *requestHandler.Handler,
	matchingV1 *matchingHandler.Handler,
	paymentsV1 *paymentHandler.Handler,
	notificationsV1 *notificationHandler.Handler,
	scheduleV1 *scheduleHandler.Handler,
	webhooksV1 *webhook.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/webhooks", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			webhooksV1.Routes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(jwtSecret))

			r.Route("/requests", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				requestsV1.Routes(r)
				matchingV1.RequestRoutes(r)
			})

			r.Route("/providers", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				matchingV1.Routes(r)
			})

			r.Route("/payments", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				paymentsV1.Routes(r)
			})

			r.Route("/notifications", func(r chi.Router) {
				notificationsV1.Routes(r)
			})

			r.Route("/schedule", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				scheduleV1.Routes(r)
			})
		})
	})

	return router
}
