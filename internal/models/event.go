package models

// Типы событий Stripe, которые обрабатывает сервис. Остальные события
// подтверждаются и игнорируются.
const (
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventPaymentSucceeded    = "payment_intent.succeeded"
)

// WebhookEvent — проверенное по подписи событие платёжного провайдера.
// CustomerID используется как ключ поиска локального подписчика.
type WebhookEvent struct {
	Type       string `json:"type"`
	CustomerID string `json:"customer_id"`
}
