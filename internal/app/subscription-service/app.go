package subscriptionservice

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/churchpad/subscription-service/internal/cache"
	"github.com/churchpad/subscription-service/internal/config"
	"github.com/churchpad/subscription-service/internal/lib/rabbitmq"
	"github.com/churchpad/subscription-service/internal/migrations"
	"github.com/churchpad/subscription-service/internal/paymentgateway"
	notifierservice "github.com/churchpad/subscription-service/internal/services/notifier"
	planservice "github.com/churchpad/subscription-service/internal/services/plan"
	subservice "github.com/churchpad/subscription-service/internal/services/subscription"
	webhookservice "github.com/churchpad/subscription-service/internal/services/webhook"
	"github.com/churchpad/subscription-service/internal/storage/repository"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}

	gateway := paymentgateway.NewStripeGateway(cfg.Stripe)
	notifier := notifierservice.NewNotifierService(rabbitmq.NewPublisher(ch), logger)

	subscriptionService := subservice.NewSubscriptionService(db, gateway, notifier, cacheRedis, logger)
	planService := planservice.NewPlanService(db, gateway, cacheRedis, logger)
	webhookService := webhookservice.NewWebhookService(db, notifier, cacheRedis, logger)

	router := chi.NewRouter()

	RegisterRoutes(router, logger, subscriptionService, planService, webhookService, gateway)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
		conn:   conn,
		ch:     ch,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if cerr := a.ch.Close(); cerr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", cerr))
		}
		if cerr := a.conn.Close(); cerr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", cerr))
		}
		a.db.DB.Close()
		return err
	}
}
