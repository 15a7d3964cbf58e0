package models

import "time"

// Subscriber представляет подписчика сервиса. Поля StripeCustomerID и
// StripeSubscriptionID глобально уникальны и после установки не меняются —
// по ним локальная запись связывается с данными платёжного провайдера.
// Подписчик никогда не удаляется физически: отмена подписки переводит
// IsActive в false.
type Subscriber struct {
	ID                   int       `json:"id"`
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	PhoneNumber          string    `json:"phone_number"`
	PlanID               int       `json:"plan_id"`
	IsActive             bool      `json:"is_active"`
	StripeCustomerID     string    `json:"stripe_customer_id"`
	StripeSubscriptionID string    `json:"stripe_subscription_id"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// SubscriberWithPlan — подписчик вместе с тарифным планом,
// возвращается списочными запросами.
type SubscriberWithPlan struct {
	Subscriber
	Plan Plan `json:"plan"`
}

// DummySubscriber используется для приёма данных запроса на оформление
// подписки из JSON-запроса.
type DummySubscriber struct {
	PlanID          int    `json:"plan_id" validate:"required,gt=0"`      // Идентификатор тарифного плана
	Name            string `json:"name" validate:"required"`              // Имя подписчика
	Email           string `json:"email" validate:"required,email"`       // Электронная почта
	PhoneNumber     string `json:"phone_number" validate:"required"`      // Номер телефона
	PaymentMethodID string `json:"payment_method_id" validate:"required"` // Платёжный метод Stripe
}

// DummyConfirm используется для приёма данных подтверждения подписки.
type DummyConfirm struct {
	CustomerID string `json:"customer_id" validate:"required"` // Идентификатор клиента Stripe
	PlanID     int    `json:"plan_id" validate:"required,gt=0"`
}

// InitiateResult возвращается после первого шага оформления подписки:
// клиент завершает оплату по client_secret, локальная запись ещё не создана.
type InitiateResult struct {
	ClientSecret string `json:"client_secret"`
	CustomerID   string `json:"customer_id"`
	PlanID       int    `json:"plan_id"`
}
