// Package services содержит обработку событий платёжного провайдера:
// перевод проверенных по подписи событий в переходы состояния подписчика.
// Переходы — идемпотентные присваивания флага активности, поэтому повторная
// доставка того же события оставляет состояние неизменным без ведения
// журнала дедупликации.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/churchpad/subscription-service/internal/lib/sl"
	"github.com/churchpad/subscription-service/internal/models"
)

// Статусы обработки, возвращаемые провайдеру в теле ответа.
const (
	StatusActivated        = "subscription activated"
	StatusUpdated          = "subscription updated"
	StatusDeleted          = "subscription deleted"
	StatusPaymentSucceeded = "payment succeeded"
	StatusIgnored          = "event ignored"
)

var webhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "webhook_events_total",
	Help: "Count of processed provider webhook events by type and result.",
}, []string{"type", "result"})

// SubscriberRepository определяет методы хранилища, нужные обработчику событий.
type SubscriberRepository interface {
	// FindSubscriberByCustomerID ищет подписчика по идентификатору клиента провайдера.
	FindSubscriberByCustomerID(ctx context.Context, customerID string) (*models.Subscriber, error)
	// SetSubscriberActive выставляет флаг активности под блокировкой строки.
	SetSubscriberActive(ctx context.Context, customerID string, active bool) (*models.Subscriber, error)
}

// NotificationDispatcher описывает постановку писем в очередь.
type NotificationDispatcher interface {
	EnqueueEmail(subject, body string, recipients []string)
}

// Cache описывает инвалидацию кеша списков.
type Cache interface {
	Invalidate(key string) error
}

// WebhookService переводит события провайдера в изменения локального состояния.
type WebhookService struct {
	repo     SubscriberRepository
	notifier NotificationDispatcher
	cache    Cache
	log      *slog.Logger
}

// NewWebhookService создает новый экземпляр WebhookService.
func NewWebhookService(repo SubscriberRepository, notifier NotificationDispatcher,
	cache Cache, log *slog.Logger) *WebhookService {
	return &WebhookService{
		repo:     repo,
		notifier: notifier,
		cache:    cache,
		log:      log,
	}
}

const activeSubscribersKey = "subscribers:active"

// ProcessEvent применяет событие к подписчику, найденному по идентификатору
// клиента. Уведомление ставится в очередь после фиксации изменения состояния
// и отправляется на каждую доставку события, независимо от того, изменился
// ли флаг. Неизвестные типы событий подтверждаются без поиска подписчика,
// чтобы не провоцировать повторные доставки.
func (s *WebhookService) ProcessEvent(ctx context.Context, event *models.WebhookEvent) (string, error) {
	log := s.log.With(slog.String("event", event.Type), slog.String("customer_id", event.CustomerID))

	switch event.Type {
	case models.EventSubscriptionCreated:
		subscriber, err := s.repo.SetSubscriberActive(ctx, event.CustomerID, true)
		if err != nil {
			webhookEventsTotal.WithLabelValues(event.Type, "error").Inc()
			return "", err
		}
		s.invalidateActive(log)
		log.Info("subscription activated", slog.Int("subscriber_id", subscriber.ID))
		s.notifier.EnqueueEmail("Subscription Created",
			fmt.Sprintf("Dear %s,\n\nYour subscription has been successfully created.", subscriber.Name),
			[]string{subscriber.Email})
		webhookEventsTotal.WithLabelValues(event.Type, "ok").Inc()
		return StatusActivated, nil

	case models.EventSubscriptionUpdated:
		subscriber, err := s.repo.FindSubscriberByCustomerID(ctx, event.CustomerID)
		if err != nil {
			webhookEventsTotal.WithLabelValues(event.Type, "error").Inc()
			return "", err
		}
		log.Info("subscription updated", slog.Int("subscriber_id", subscriber.ID))
		s.notifier.EnqueueEmail("Subscription Updated",
			fmt.Sprintf("Dear %s,\n\nYour subscription has been updated.", subscriber.Name),
			[]string{subscriber.Email})
		webhookEventsTotal.WithLabelValues(event.Type, "ok").Inc()
		return StatusUpdated, nil

	case models.EventSubscriptionDeleted:
		subscriber, err := s.repo.SetSubscriberActive(ctx, event.CustomerID, false)
		if err != nil {
			webhookEventsTotal.WithLabelValues(event.Type, "error").Inc()
			return "", err
		}
		s.invalidateActive(log)
		log.Info("subscription cancelled", slog.Int("subscriber_id", subscriber.ID))
		s.notifier.EnqueueEmail("Subscription Cancelled",
			fmt.Sprintf("Dear %s,\n\nYour subscription has been cancelled.", subscriber.Name),
			[]string{subscriber.Email})
		webhookEventsTotal.WithLabelValues(event.Type, "ok").Inc()
		return StatusDeleted, nil

	case models.EventPaymentSucceeded:
		subscriber, err := s.repo.FindSubscriberByCustomerID(ctx, event.CustomerID)
		if err != nil {
			webhookEventsTotal.WithLabelValues(event.Type, "error").Inc()
			return "", err
		}
		log.Info("payment succeeded", slog.Int("subscriber_id", subscriber.ID))
		s.notifier.EnqueueEmail("Payment Successful",
			fmt.Sprintf("Dear %s,\n\nYour payment was successful. Thank you!", subscriber.Name),
			[]string{subscriber.Email})
		webhookEventsTotal.WithLabelValues(event.Type, "ok").Inc()
		return StatusPaymentSucceeded, nil

	default:
		log.Warn("unhandled event type")
		webhookEventsTotal.WithLabelValues(event.Type, "ignored").Inc()
		return StatusIgnored, nil
	}
}

func (s *WebhookService) invalidateActive(log *slog.Logger) {
	if err := s.cache.Invalidate(activeSubscribersKey); err != nil {
		log.Warn("failed to invalidate cache", slog.String("key", activeSubscribersKey), sl.Err(err))
	}
}
