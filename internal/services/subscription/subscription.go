// Package services содержит бизнес-логику оформления и отмены подписок.
// Оформление двухфазное: Initiate создает удалённые сущности у провайдера
// и не трогает локальную базу, Confirm создает удалённую подписку и только
// затем локальную запись подписчика.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/churchpad/subscription-service/internal/apperr"
	"github.com/churchpad/subscription-service/internal/lib/sl"
	"github.com/churchpad/subscription-service/internal/models"
	"github.com/churchpad/subscription-service/internal/paymentgateway"
)

// Валюта и тексты приветственных уведомлений.
const (
	paymentCurrency     = "usd"
	welcomeEmailSubject = "Welcome to ChurchPad"
)

// SubscriberRepository определяет методы хранилища, нужные сервису подписок.
type SubscriberRepository interface {
	// ReadPlan возвращает тарифный план по ID.
	ReadPlan(ctx context.Context, id int) (*models.Plan, error)
	// CreateSubscriber создает подписчика в одной транзакции.
	CreateSubscriber(ctx context.Context, sub models.Subscriber) (*models.Subscriber, error)
	// ListActiveSubscribers возвращает активных подписчиков с планами.
	ListActiveSubscribers(ctx context.Context) ([]*models.SubscriberWithPlan, error)
	// DeactivateSubscriber деактивирует активного подписчика.
	DeactivateSubscriber(ctx context.Context, id int) error
}

// NotificationDispatcher описывает постановку уведомлений в очередь.
// Вызовы не блокируют и не возвращают ошибок: доставка best-effort.
type NotificationDispatcher interface {
	EnqueueEmail(subject, body string, recipients []string)
	EnqueueSMS(subscriberID int)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// SubscriptionService координирует многошаговые сценарии оформления подписки
// между платёжным шлюзом, хранилищем и диспетчером уведомлений.
type SubscriptionService struct {
	repo     SubscriberRepository
	gateway  paymentgateway.Gateway
	notifier NotificationDispatcher
	cache    Cache
	log      *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriberRepository, gateway paymentgateway.Gateway,
	notifier NotificationDispatcher, cache Cache, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
		cache:    cache,
		log:      log,
	}
}

const activeSubscribersKey = "subscribers:active"

// Initiate выполняет первый шаг оформления: создает клиента у провайдера,
// привязывает платёжный метод и создает намерение платежа на цену плана.
// Локальная запись подписчика на этом шаге не создается. Любая ошибка
// шлюза прерывает операцию целиком, частичное локальное состояние не пишется.
func (s *SubscriptionService) Initiate(ctx context.Context, req models.DummySubscriber) (*models.InitiateResult, error) {
	// Проверка до любых удалённых вызовов: без платёжного метода к шлюзу не ходим.
	if req.PaymentMethodID == "" {
		return nil, apperr.Validation("payment_method_id", "is required")
	}

	plan, err := s.readPlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	customer, err := s.gateway.CreateCustomer(ctx, req.Email, req.Name, req.PhoneNumber)
	if err != nil {
		return nil, err
	}
	s.log.Info("remote customer created", slog.String("customer_id", customer.ID))

	if err := s.gateway.AttachPaymentMethod(ctx, req.PaymentMethodID, customer.ID); err != nil {
		return nil, err
	}
	s.log.Info("payment method attached",
		slog.String("payment_method_id", req.PaymentMethodID), slog.String("customer_id", customer.ID))

	amount := plan.Price.Mul(decimal.NewFromInt(100)).IntPart()
	intent, err := s.gateway.CreatePaymentIntent(ctx, amount, paymentCurrency, customer.ID,
		map[string]string{"plan_id": strconv.Itoa(plan.ID)})
	if err != nil {
		return nil, err
	}
	s.log.Info("payment intent created", slog.String("payment_intent_id", intent.ID))

	return &models.InitiateResult{
		ClientSecret: intent.ClientSecret,
		CustomerID:   customer.ID,
		PlanID:       plan.ID,
	}, nil
}

// Confirm выполняет второй шаг оформления: по данным удалённого клиента
// создает удалённую подписку и локальную запись подписчика (неактивную —
// активация придет событием вебхука). Контакты берутся у провайдера как
// источник истины. После фиксации записи ставятся приветственные SMS и
// письмо; сбой их постановки операцию не откатывает.
func (s *SubscriptionService) Confirm(ctx context.Context, customerID string, planID int) (*models.Subscriber, error) {
	const op = "services.subscription.Confirm"

	plan, err := s.readPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	customer, err := s.gateway.RetrieveCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	s.log.Info("remote customer retrieved", slog.String("customer_id", customer.ID))

	remoteSub, err := s.gateway.CreateSubscription(ctx, customer.ID, plan.StripePriceID)
	if err != nil {
		return nil, err
	}
	s.log.Info("remote subscription created", slog.String("subscription_id", remoteSub.ID))

	subscriber, err := s.repo.CreateSubscriber(ctx, models.Subscriber{
		Name:                 customer.Name,
		Email:                customer.Email,
		PhoneNumber:          customer.Phone,
		PlanID:               plan.ID,
		IsActive:             false,
		StripeCustomerID:     customer.ID,
		StripeSubscriptionID: remoteSub.ID,
	})
	if err != nil {
		// Удалённая подписка уже существует, локальной записи нет:
		// разрыв согласованности логируется, компенсирующая отмена
		// у провайдера не выполняется.
		s.log.Error("reconciliation gap: remote subscription created but local commit failed",
			slog.String("customer_id", customer.ID),
			slog.String("subscription_id", remoteSub.ID),
			sl.Err(err))
		return nil, &apperr.PersistenceError{Op: op, Err: err}
	}
	s.log.Info("subscriber saved", slog.Int("id", subscriber.ID))

	s.notifier.EnqueueSMS(subscriber.ID)
	s.notifier.EnqueueEmail(welcomeEmailSubject,
		fmt.Sprintf("Hi %s,\n\nThank you for subscribing to our service. We are excited to have you on board!", subscriber.Name),
		[]string{subscriber.Email})

	return subscriber, nil
}

// Deactivate отменяет подписку: переводит активного подписчика в
// неактивное состояние. Неактивный или отсутствующий подписчик отдается
// как "не найдено", поэтому повторный вызов возвращает ту же ошибку.
// Удалённая отмена подписки этим методом не выполняется: она приходит
// от провайдера событием вебхука.
func (s *SubscriptionService) Deactivate(ctx context.Context, id int) error {
	if err := s.repo.DeactivateSubscriber(ctx, id); err != nil {
		return err
	}
	s.log.Info("subscriber deactivated", slog.Int("id", id))

	if err := s.cache.Invalidate(activeSubscribersKey); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", activeSubscribersKey), sl.Err(err))
	}
	return nil
}

// ListActive возвращает активных подписчиков с планами, используя кеш.
func (s *SubscriptionService) ListActive(ctx context.Context) ([]*models.SubscriberWithPlan, error) {
	var result []*models.SubscriberWithPlan
	found, err := s.cache.Get(activeSubscribersKey, &result)
	if err != nil {
		s.log.Warn("failed to read cache", slog.String("key", activeSubscribersKey), sl.Err(err))
	}
	if found {
		return result, nil
	}

	result, err = s.repo.ListActiveSubscribers(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(activeSubscribersKey, result, time.Minute); err != nil {
		s.log.Warn("failed to cache active subscribers", slog.String("key", activeSubscribersKey), sl.Err(err))
	}
	return result, nil
}

// readPlan возвращает план по ID, используя кеш или репозиторий.
func (s *SubscriptionService) readPlan(ctx context.Context, id int) (*models.Plan, error) {
	var result *models.Plan
	cacheKey := fmt.Sprintf("plan:%d", id)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return result, nil
	}

	result, err = s.repo.ReadPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to cache plan", slog.String("key", cacheKey), sl.Err(err))
	}
	return result, nil
}
