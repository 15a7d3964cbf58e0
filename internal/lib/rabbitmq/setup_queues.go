package rabbitmq

// NotificationsExchange — exchange, через который сервис публикует уведомления.
const NotificationsExchange = "notifications"

// Очереди и ключи маршрутизации уведомлений.
const (
	EmailQueue      = "notifications.email"
	EmailRoutingKey = "email"
	SMSQueue        = "notifications.sms"
	SMSRoutingKey   = "sms"
)

// QueueConfig описывает очередь и её ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди, которые потребляет воркер уведомлений.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: EmailQueue, RoutingKey: EmailRoutingKey},
		{QueueName: SMSQueue, RoutingKey: SMSRoutingKey},
	}
}
