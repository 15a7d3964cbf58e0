// Package paymentgateway изолирует работу с платёжным провайдером Stripe
// за узким интерфейсом. Бизнес-логика зависит только от Gateway,
// реализация на stripe-go подключается при сборке приложения.
package paymentgateway

import (
	"context"

	"github.com/churchpad/subscription-service/internal/models"
)

// Customer — данные удалённого клиента, источник истины о контактах
// подписчика на шаге подтверждения.
type Customer struct {
	ID    string
	Name  string
	Email string
	Phone string
}

// PaymentIntent — созданное намерение платежа. ClientSecret передается
// клиенту для завершения оплаты.
type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// Subscription — созданная удалённая подписка.
type Subscription struct {
	ID string
}

// Price — зарегистрированная у провайдера цена тарифного плана.
type Price struct {
	ID string
}

// Gateway описывает операции платёжного провайдера, которые использует сервис.
type Gateway interface {
	// CreateCustomer создает удалённого клиента.
	CreateCustomer(ctx context.Context, email, name, phone string) (*Customer, error)
	// AttachPaymentMethod привязывает платёжный метод к клиенту и делает его
	// методом оплаты по умолчанию.
	AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) error
	// CreatePaymentIntent создает намерение платежа на сумму в минимальных
	// единицах валюты с метаданными для связи с тарифным планом.
	CreatePaymentIntent(ctx context.Context, amount int64, currency, customerID string, metadata map[string]string) (*PaymentIntent, error)
	// CreateSubscription создает удалённую подписку клиента на цену.
	CreateSubscription(ctx context.Context, customerID, priceID string) (*Subscription, error)
	// CreatePrice регистрирует цену тарифного плана у провайдера.
	CreatePrice(ctx context.Context, currency string, unitAmount int64, interval, productName string) (*Price, error)
	// RetrieveCustomer возвращает данные удалённого клиента.
	RetrieveCustomer(ctx context.Context, customerID string) (*Customer, error)
}

// WebhookVerifier проверяет подпись сырого payload вебхука и разбирает
// его в типизированное событие. Проверка выполняется до чтения любых полей.
type WebhookVerifier interface {
	VerifyWebhook(payload []byte, signature string) (*models.WebhookEvent, error)
}
