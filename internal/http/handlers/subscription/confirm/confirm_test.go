package confirm

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/churchpad/subscription-service/internal/apperr"
	"github.com/churchpad/subscription-service/internal/models"
)

// MockService реализует интерфейс confirm.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Confirm(ctx context.Context, customerID string, planID int) (*models.Subscriber, error) {
	args := m.Called(ctx, customerID, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscriber), args.Error(1)
}

func TestConfirmHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	validBody := `{"customer_id":"cus_1","plan_id":1}`

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное подтверждение",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("Confirm", mock.Anything, "cus_1", 1).Return(&models.Subscriber{
					ID: 42, Name: "Jane", Email: "jane@x.com",
					StripeCustomerID: "cus_1", StripeSubscriptionID: "sub_1",
				}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"stripe_subscription_id":"sub_1"`,
		},
		{
			name:           "некорректный JSON",
			body:           `{invalid`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid request body`,
		},
		{
			name:           "отсутствует customer_id",
			body:           `{"plan_id":1}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field CustomerID is a required field`,
		},
		{
			name: "клиент не найден",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("Confirm", mock.Anything, "cus_1", 1).Return(nil, apperr.ErrCustomerNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `plan or customer not found`,
		},
		{
			name: "ошибка провайдера",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("Confirm", mock.Anything, "cus_1", 1).Return(nil,
					&apperr.GatewayError{Op: "CreateSubscription", Message: "No such price"})
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `No such price`,
		},
		{
			name: "сбой сохранения подписчика",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("Confirm", mock.Anything, "cus_1", 1).Return(nil,
					&apperr.PersistenceError{Op: "Confirm", Err: errors.New("db down")})
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `could not save subscriber`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/subscriptions/confirm", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
