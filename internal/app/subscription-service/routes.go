// Package subscriptionservice собирает HTTP-приложение сервиса подписок.
package subscriptionservice

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/churchpad/subscription-service/internal/http/handlers/plan/planlist"
	"github.com/churchpad/subscription-service/internal/http/handlers/plan/planregister"
	"github.com/churchpad/subscription-service/internal/http/handlers/subscription/confirm"
	"github.com/churchpad/subscription-service/internal/http/handlers/subscription/deactivate"
	"github.com/churchpad/subscription-service/internal/http/handlers/subscription/health"
	"github.com/churchpad/subscription-service/internal/http/handlers/subscription/initiate"
	"github.com/churchpad/subscription-service/internal/http/handlers/subscription/list"
	"github.com/churchpad/subscription-service/internal/http/handlers/webhook/stripewebhook"
	"github.com/churchpad/subscription-service/internal/http/middlewarectx"
	"github.com/churchpad/subscription-service/internal/paymentgateway"
	planservice "github.com/churchpad/subscription-service/internal/services/plan"
	subservice "github.com/churchpad/subscription-service/internal/services/subscription"
	webhookservice "github.com/churchpad/subscription-service/internal/services/webhook"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger,
	subscriptionService *subservice.SubscriptionService,
	planService *planservice.PlanService,
	webhookService *webhookservice.WebhookService,
	verifier paymentgateway.WebhookVerifier) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.MetricsMiddleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/subscriptions", initiate.New(logger, subscriptionService).ServeHTTP)
			r.Post("/subscriptions/confirm", confirm.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions", list.New(logger, subscriptionService).ServeHTTP)
			r.Delete("/subscriptions/{id}", deactivate.New(logger, subscriptionService).ServeHTTP)
			r.Get("/plans", planlist.New(logger, planService).ServeHTTP)
			r.Post("/plans", planregister.New(logger, planService).ServeHTTP)
		})

		// Webhook endpoint: аутентификация подписью, без ограничения частоты
		r.Post("/payments/webhook", stripewebhook.New(logger, verifier, webhookService).ServeHTTP)
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
