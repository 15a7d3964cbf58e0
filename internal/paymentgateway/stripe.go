package paymentgateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	stripe "github.com/stripe/stripe-go"
	"github.com/stripe/stripe-go/client"
	"github.com/stripe/stripe-go/webhook"

	"github.com/churchpad/subscription-service/internal/apperr"
	"github.com/churchpad/subscription-service/internal/config"
	"github.com/churchpad/subscription-service/internal/models"
)

// StripeGateway реализует Gateway и WebhookVerifier поверх официального SDK.
// Ключ API передается явно через конфиг, глобальный stripe.Key не используется.
type StripeGateway struct {
	sc            *client.API
	webhookSecret string
}

// NewStripeGateway создает шлюз с ограниченным таймаутом HTTP-запросов
// к Stripe: зависший запрос превращается в ошибку шлюза, а не в зависание.
func NewStripeGateway(cfg config.Stripe) *StripeGateway {
	httpClient := &http.Client{Timeout: cfg.StripeTimeout}
	sc := client.New(cfg.StripeSecretKey, stripe.NewBackends(httpClient))
	return &StripeGateway{
		sc:            sc,
		webhookSecret: cfg.StripeWebhookSecret,
	}
}

// CreateCustomer создает клиента в Stripe.
func (g *StripeGateway) CreateCustomer(ctx context.Context, email, name, phone string) (*Customer, error) {
	const op = "paymentgateway.CreateCustomer"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	cust, err := g.sc.Customers.New(&stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
		Phone: stripe.String(phone),
	})
	if err != nil {
		return nil, wrapStripeErr(op, err)
	}
	return &Customer{ID: cust.ID, Name: cust.Name, Email: cust.Email, Phone: cust.Phone}, nil
}

// AttachPaymentMethod привязывает платёжный метод к клиенту и назначает его
// методом оплаты счетов по умолчанию.
func (g *StripeGateway) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) error {
	const op = "paymentgateway.AttachPaymentMethod"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	_, err := g.sc.PaymentMethods.Attach(paymentMethodID, &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(customerID),
	})
	if err != nil {
		return wrapStripeErr(op, err)
	}

	_, err = g.sc.Customers.Update(customerID, &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	})
	if err != nil {
		return wrapStripeErr(op, err)
	}
	return nil
}

// CreatePaymentIntent создает намерение платежа с сохранением платёжного
// метода для последующих списаний (off_session).
func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, amount int64, currency, customerID string, metadata map[string]string) (*PaymentIntent, error) {
	const op = "paymentgateway.CreatePaymentIntent"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	params := &stripe.PaymentIntentParams{
		Amount:           stripe.Int64(amount),
		Currency:         stripe.String(currency),
		Customer:         stripe.String(customerID),
		SetupFutureUsage: stripe.String(string(stripe.PaymentIntentSetupFutureUsageOffSession)),
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	intent, err := g.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, wrapStripeErr(op, err)
	}
	return &PaymentIntent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

// CreateSubscription создает подписку клиента на цену тарифного плана.
func (g *StripeGateway) CreateSubscription(ctx context.Context, customerID, priceID string) (*Subscription, error) {
	const op = "paymentgateway.CreateSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	sub, err := g.sc.Subscriptions.New(&stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Plan: stripe.String(priceID)},
		},
	})
	if err != nil {
		return nil, wrapStripeErr(op, err)
	}
	return &Subscription{ID: sub.ID}, nil
}

// CreatePrice регистрирует повторяющуюся цену вместе с продуктом.
// В этой версии SDK повторяющиеся цены создаются через Plan API.
func (g *StripeGateway) CreatePrice(ctx context.Context, currency string, unitAmount int64, interval, productName string) (*Price, error) {
	const op = "paymentgateway.CreatePrice"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	plan, err := g.sc.Plans.New(&stripe.PlanParams{
		Currency: stripe.String(currency),
		Amount:   stripe.Int64(unitAmount),
		Interval: stripe.String(interval),
		Product: &stripe.PlanProductParams{
			Name: stripe.String(productName),
		},
	})
	if err != nil {
		return nil, wrapStripeErr(op, err)
	}
	return &Price{ID: plan.ID}, nil
}

// RetrieveCustomer возвращает данные клиента. Отсутствующий клиент
// отдается как apperr.ErrCustomerNotFound.
func (g *StripeGateway) RetrieveCustomer(ctx context.Context, customerID string) (*Customer, error) {
	const op = "paymentgateway.RetrieveCustomer"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	cust, err := g.sc.Customers.Get(customerID, nil)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrCustomerNotFound)
		}
		return nil, wrapStripeErr(op, err)
	}
	return &Customer{ID: cust.ID, Name: cust.Name, Email: cust.Email, Phone: cust.Phone}, nil
}

// VerifyWebhook проверяет подпись payload по webhook-секрету и разбирает
// событие. Подпись проверяется до разбора JSON.
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*models.WebhookEvent, error) {
	const op = "paymentgateway.VerifyWebhook"

	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		if errors.Is(err, webhook.ErrNotSigned) ||
			errors.Is(err, webhook.ErrNoValidSignature) ||
			errors.Is(err, webhook.ErrInvalidHeader) ||
			errors.Is(err, webhook.ErrTooOld) {
			return nil, fmt.Errorf("%s: %w", op, apperr.ErrInvalidSignature)
		}
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrMalformedPayload)
	}

	if event.Data == nil {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrMalformedPayload)
	}
	customerID, _ := event.Data.Object["customer"].(string)
	if event.Type == "" || customerID == "" {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrMalformedPayload)
	}

	return &models.WebhookEvent{Type: event.Type, CustomerID: customerID}, nil
}

// wrapStripeErr превращает ошибку SDK в GatewayError с сообщением провайдера.
func wrapStripeErr(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &apperr.GatewayError{Op: op, Message: stripeErr.Msg, Err: err}
	}
	return &apperr.GatewayError{Op: op, Message: err.Error(), Err: err}
}
