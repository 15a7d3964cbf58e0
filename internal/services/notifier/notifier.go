// Package services содержит диспетчер уведомлений: постановку писем и SMS
// в очереди RabbitMQ по принципу fire-and-forget.
package services

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/churchpad/subscription-service/internal/lib/rabbitmq"
	"github.com/churchpad/subscription-service/internal/lib/sl"
	"github.com/churchpad/subscription-service/internal/models"
)

// Publisher описывает публикацию сообщения в брокер.
type Publisher interface {
	Publish(exchange, routingkey string, message any) error
}

// NotifierService ставит уведомления в очереди. Ошибки публикации
// логируются и никогда не возвращаются вызывающей стороне: сбой доставки
// уведомления не должен откатывать или блокировать вызвавшую его операцию.
type NotifierService struct {
	pub Publisher
	log *slog.Logger
}

// NewNotifierService создает новый экземпляр NotifierService.
func NewNotifierService(pub Publisher, log *slog.Logger) *NotifierService {
	return &NotifierService{
		pub: pub,
		log: log,
	}
}

// EnqueueEmail ставит в очередь письмо с уже отрендеренными темой и текстом.
func (n *NotifierService) EnqueueEmail(subject, body string, recipients []string) {
	msg := models.EmailMessage{
		ID:         uuid.NewString(),
		Subject:    subject,
		Body:       body,
		Recipients: recipients,
	}
	if err := n.pub.Publish(rabbitmq.NotificationsExchange, rabbitmq.EmailRoutingKey, msg); err != nil {
		n.log.Error("failed to enqueue email notification",
			slog.String("message_id", msg.ID), slog.String("subject", subject), sl.Err(err))
		return
	}
	n.log.Info("email notification enqueued",
		slog.String("message_id", msg.ID), slog.String("subject", subject))
}

// EnqueueSMS ставит в очередь SMS для подписчика. Текст сообщения
// воркер рендерит сам по данным подписчика.
func (n *NotifierService) EnqueueSMS(subscriberID int) {
	msg := models.SMSMessage{
		ID:           uuid.NewString(),
		SubscriberID: subscriberID,
	}
	if err := n.pub.Publish(rabbitmq.NotificationsExchange, rabbitmq.SMSRoutingKey, msg); err != nil {
		n.log.Error("failed to enqueue sms notification",
			slog.String("message_id", msg.ID), slog.Int("subscriber_id", subscriberID), sl.Err(err))
		return
	}
	n.log.Info("sms notification enqueued",
		slog.String("message_id", msg.ID), slog.Int("subscriber_id", subscriberID))
}
