package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/churchpad/subscription-service/internal/apperr"
	"github.com/churchpad/subscription-service/internal/models"
	"github.com/churchpad/subscription-service/internal/paymentgateway"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreatePlan(ctx context.Context, plan models.Plan) (int, error) {
	args := m.Called(ctx, plan)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plan), args.Error(1)
}

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreateCustomer(ctx context.Context, email, name, phone string) (*paymentgateway.Customer, error) {
	args := m.Called(ctx, email, name, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.Customer), args.Error(1)
}
func (m *GatewayMock) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) error {
	return m.Called(ctx, paymentMethodID, customerID).Error(0)
}
func (m *GatewayMock) CreatePaymentIntent(ctx context.Context, amount int64, currency, customerID string, metadata map[string]string) (*paymentgateway.PaymentIntent, error) {
	args := m.Called(ctx, amount, currency, customerID, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.PaymentIntent), args.Error(1)
}
func (m *GatewayMock) CreateSubscription(ctx context.Context, customerID, priceID string) (*paymentgateway.Subscription, error) {
	args := m.Called(ctx, customerID, priceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.Subscription), args.Error(1)
}
func (m *GatewayMock) CreatePrice(ctx context.Context, currency string, unitAmount int64, interval, productName string) (*paymentgateway.Price, error) {
	args := m.Called(ctx, currency, unitAmount, interval, productName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.Price), args.Error(1)
}
func (m *GatewayMock) RetrieveCustomer(ctx context.Context, customerID string) (*paymentgateway.Customer, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentgateway.Customer), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestPlanService_RegisterPrice(t *testing.T) {
	req := models.DummyPrice{
		Name:       "Livestream Monthly",
		Currency:   "usd",
		UnitAmount: 999,
		Interval:   models.BillingPeriodMonthly,
	}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, g *GatewayMock, c *CacheMock)
		wantErr    bool
	}{
		{
			name: "success register",
			setupMocks: func(r *RepoMock, g *GatewayMock, c *CacheMock) {
				g.On("CreatePrice", mock.Anything, "usd", int64(999), "month", "Livestream Monthly").
					Return(&paymentgateway.Price{ID: "price_123"}, nil).Once()
				r.On("CreatePlan", mock.Anything, mock.MatchedBy(func(p models.Plan) bool {
					return p.Name == "Livestream Monthly" &&
						p.StripePriceID == "price_123" &&
						p.Price.Equal(decimal.NewFromFloat(9.99)) &&
						p.BillingPeriod == models.BillingPeriodMonthly
				})).Return(5, nil).Once()
				c.On("Invalidate", "plans:all").Return(nil).Once()
			},
		},
		{
			name: "ошибка провайдера не сохраняет план",
			setupMocks: func(_ *RepoMock, g *GatewayMock, _ *CacheMock) {
				g.On("CreatePrice", mock.Anything, "usd", int64(999), "month", "Livestream Monthly").
					Return(nil, &apperr.GatewayError{Op: "CreatePrice", Message: "Invalid currency"}).Once()
			},
			wantErr: true,
		},
		{
			name: "storage error",
			setupMocks: func(r *RepoMock, g *GatewayMock, _ *CacheMock) {
				g.On("CreatePrice", mock.Anything, "usd", int64(999), "month", "Livestream Monthly").
					Return(&paymentgateway.Price{ID: "price_123"}, nil).Once()
				r.On("CreatePlan", mock.Anything, mock.Anything).Return(0, errors.New("db down")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			gateway := new(GatewayMock)
			cache := new(CacheMock)
			svc := NewPlanService(repo, gateway, cache, newNoopLogger())

			tt.setupMocks(repo, gateway, cache)

			got, err := svc.RegisterPrice(context.Background(), req)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, 5, got.ID)
				assert.Equal(t, "price_123", got.StripePriceID)
			}

			repo.AssertExpectations(t)
			gateway.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestPlanService_List(t *testing.T) {
	plans := []*models.Plan{
		{ID: 1, Name: "Livestream Monthly", StripePriceID: "price_123", Price: decimal.NewFromFloat(9.99)},
	}

	t.Run("cache miss reads repository and fills cache", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := NewPlanService(repo, new(GatewayMock), cache, newNoopLogger())

		cache.On("Get", "plans:all", mock.Anything).Return(false, nil).Once()
		repo.On("ListPlans", mock.Anything).Return(plans, nil).Once()
		cache.On("Set", "plans:all", plans, time.Hour).Return(nil).Once()

		got, err := svc.List(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, plans, got)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("cache hit skips repository", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := NewPlanService(repo, new(GatewayMock), cache, newNoopLogger())

		cache.On("Get", "plans:all", mock.Anything).Return(true, nil).Once()

		_, err := svc.List(context.Background())
		assert.NoError(t, err)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})
}
