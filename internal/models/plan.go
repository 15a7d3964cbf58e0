// Package models содержит доменные структуры сервиса подписок:
// тарифные планы, подписчиков и вспомогательные типы для приёма
// данных из JSON-запросов.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Периоды оплаты тарифного плана. Значения совпадают с interval в Stripe.
const (
	BillingPeriodMonthly = "month"
	BillingPeriodYearly  = "year"
)

// Plan представляет тарифный план. После того как на план ссылается
// хотя бы один подписчик, план считается неизменяемым, а его удаление
// запрещено на уровне базы данных.
type Plan struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	StripePriceID string          `json:"stripe_price_id"` // Внешний идентификатор цены в Stripe
	Price         decimal.Decimal `json:"price"`           // Цена с двумя знаками после запятой
	BillingPeriod string          `json:"billing_period"`  // month или year
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// DummyPrice используется для приёма данных регистрации цены из JSON-запроса.
// Сумма приходит в минимальных единицах валюты (центах), как её ожидает Stripe.
type DummyPrice struct {
	Name       string `json:"name" validate:"required"`                      // Название плана
	Currency   string `json:"currency" validate:"required"`                  // Валюта, например usd
	UnitAmount int64  `json:"unit_amount" validate:"required,gt=0"`          // Сумма в центах (>0)
	Interval   string `json:"interval" validate:"required,oneof=month year"` // Период оплаты
}
