// Package services содержит бизнес-логику тарифных планов: регистрацию
// цены у платёжного провайдера и выдачу каталога планов.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/churchpad/subscription-service/internal/lib/sl"
	"github.com/churchpad/subscription-service/internal/models"
	"github.com/churchpad/subscription-service/internal/paymentgateway"
)

// PlanRepository определяет методы хранилища тарифных планов.
type PlanRepository interface {
	CreatePlan(ctx context.Context, plan models.Plan) (int, error)
	ListPlans(ctx context.Context) ([]*models.Plan, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// PlanService регистрирует цены у провайдера и ведет локальный каталог планов.
type PlanService struct {
	repo    PlanRepository
	gateway paymentgateway.Gateway
	cache   Cache
	log     *slog.Logger
}

// NewPlanService создает новый экземпляр PlanService.
func NewPlanService(repo PlanRepository, gateway paymentgateway.Gateway, cache Cache, log *slog.Logger) *PlanService {
	return &PlanService{
		repo:    repo,
		gateway: gateway,
		cache:   cache,
		log:     log,
	}
}

const plansKey = "plans:all"

// RegisterPrice создает цену у провайдера, затем сохраняет тарифный план
// локально. Сумма приходит в минимальных единицах валюты и хранится
// в виде десятичной цены с двумя знаками.
func (s *PlanService) RegisterPrice(ctx context.Context, req models.DummyPrice) (*models.Plan, error) {
	price, err := s.gateway.CreatePrice(ctx, req.Currency, req.UnitAmount, req.Interval, req.Name)
	if err != nil {
		return nil, err
	}
	s.log.Info("remote price created", slog.String("price_id", price.ID))

	plan := models.Plan{
		Name:          req.Name,
		StripePriceID: price.ID,
		Price:         decimal.NewFromInt(req.UnitAmount).Div(decimal.NewFromInt(100)),
		BillingPeriod: req.Interval,
	}
	id, err := s.repo.CreatePlan(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = id
	s.log.Info("plan saved", slog.Int("id", id))

	if err := s.cache.Invalidate(plansKey); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", plansKey), sl.Err(err))
	}
	return &plan, nil
}

// List возвращает все тарифные планы, используя кеш.
func (s *PlanService) List(ctx context.Context) ([]*models.Plan, error) {
	var result []*models.Plan
	found, err := s.cache.Get(plansKey, &result)
	if err != nil {
		s.log.Warn("failed to read cache", slog.String("key", plansKey), sl.Err(err))
	}
	if found {
		return result, nil
	}

	result, err = s.repo.ListPlans(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(plansKey, result, time.Hour); err != nil {
		s.log.Warn("failed to cache plans", slog.String("key", plansKey), sl.Err(err))
	}
	return result, nil
}
