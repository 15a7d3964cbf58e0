package initiate

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

// MockService реализует интерфейс initiate.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Initiate(ctx context.Context, req models.DummySubscriber) (*models.InitiateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InitiateResult), args.Error(1)
}

func TestInitiateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	validBody := `{"plan_id":1,"name":"Jane","email":"jane@x.com","phone_number":"+1555","payment_method_id":"pm_1"}`

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное оформление",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("Initiate", mock.Anything, mock.MatchedBy(func(req models.DummySubscriber) bool {
					return req.PlanID == 1 && req.PaymentMethodID == "pm_1"
				})).Return(&models.InitiateResult{
					ClientSecret: "pi_1_secret", CustomerID: "cus_1", PlanID: 1,
				}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"client_secret":"pi_1_secret"`,
		},
		{
			name:           "некорректный JSON",
			body:           `{invalid`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid request body`,
		},
		{
			name:           "отсутствует email",
			body:           `{"plan_id":1,"name":"Jane","phone_number":"+1555","payment_method_id":"pm_1"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Email is a required field`,
		},
		{
			name: "план не найден",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("Initiate", mock.Anything, mock.Anything).Return(nil, apperr.ErrPlanNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `plan not found`,
		},
		{
			name: "ошибка провайдера отдается с его сообщением",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("Initiate", mock.Anything, mock.Anything).Return(nil,
					&apperr.GatewayError{Op: "CreateCustomer", Message: "Your card was declined"})
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `Your card was declined`,
		},
		{
			name: "внутренняя ошибка",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("Initiate", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `could not initiate subscription`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
