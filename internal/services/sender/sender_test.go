package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/churchpad/subscription-service/internal/apperr"
	"github.com/churchpad/subscription-service/internal/lib/smtp"
	"github.com/churchpad/subscription-service/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ReadSubscriber(ctx context.Context, id int) (*models.Subscriber, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscriber), args.Error(1)
}

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	args := m.Called(from)
	return args.Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	args := m.Called(to)
	return args.Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSMTPClient) Quit() error {
	args := m.Called()
	return args.Error(0)
}

type MockSMTPWriter struct {
	mock.Mock
}

func (m *MockSMTPWriter) Write(p []byte) (n int, err error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockSMTPWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockSMSClient struct {
	mock.Mock
}

func (m *MockSMSClient) SendSMS(ctx context.Context, to, body string) (string, error) {
	args := m.Called(ctx, to, body)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSenderService_SendEmailMessage(t *testing.T) {
	tests := []struct {
		name          string
		body          []byte
		setupMocks    func(*MockTransport)
		expectedError bool
		errorMessage  string
	}{
		{
			name: "success - deliver email",
			body: []byte(`{"id":"m1","subject":"Welcome to ChurchPad","body":"Hi Jane","recipients":["jane@x.com"]}`),
			setupMocks: func(tr *MockTransport) {
				mockClient := new(MockSMTPClient)
				mockWriter := new(MockSMTPWriter)

				tr.On("GetSMTPUser").Return("sender@churchpad.com")
				tr.On("Connect").Return(mockClient, nil).Once()
				mockClient.On("Mail", "sender@churchpad.com").Return(nil).Once()
				mockClient.On("Rcpt", "jane@x.com").Return(nil).Once()
				mockClient.On("Data").Return(mockWriter, nil).Once()
				mockWriter.On("Write", mock.AnythingOfType("[]uint8")).Return(100, nil).Once()
				mockWriter.On("Close").Return(nil).Once()
				mockClient.On("Quit").Return(nil).Once()
				mockClient.On("Close").Return(nil).Once()
			},
			expectedError: false,
		},
		{
			name: "invalid JSON",
			body: []byte(`invalid json`),
			setupMocks: func(_ *MockTransport) {
				// No transport calls expected for invalid JSON
			},
			expectedError: true,
			errorMessage:  "error unmarshalling message",
		},
		{
			name: "SMTP connection error",
			body: []byte(`{"id":"m1","subject":"Welcome to ChurchPad","body":"Hi Jane","recipients":["jane@x.com"]}`),
			setupMocks: func(tr *MockTransport) {
				tr.On("GetSMTPUser").Return("sender@churchpad.com")
				tr.On("Connect").Return(nil, errors.New("connection error")).Once()
			},
			expectedError: true,
			errorMessage:  "connection error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			transport := new(MockTransport)
			sms := new(MockSMSClient)
			service := NewSenderService(repo, transport, sms, newNoopLogger())

			tt.setupMocks(transport)

			err := service.SendEmailMessage(tt.body)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMessage)
			} else {
				assert.NoError(t, err)
			}

			transport.AssertExpectations(t)
		})
	}
}

func TestSenderService_SendSMSMessage(t *testing.T) {
	tests := []struct {
		name          string
		body          []byte
		setupMocks    func(*MockRepository, *MockSMSClient)
		expectedError bool
		errorMessage  string
	}{
		{
			name: "success - deliver sms",
			body: []byte(`{"id":"m2","subscriber_id":42}`),
			setupMocks: func(r *MockRepository, sms *MockSMSClient) {
				r.On("ReadSubscriber", mock.Anything, 42).Return(&models.Subscriber{
					ID: 42, Name: "Jane", PhoneNumber: "+1555",
				}, nil).Once()
				sms.On("SendSMS", mock.Anything, "+1555",
					"Hi Jane, thanks for subscribing to our livestream service on ChurchPad!").
					Return("SM123", nil).Once()
			},
			expectedError: false,
		},
		{
			name: "invalid JSON",
			body: []byte(`invalid json`),
			setupMocks: func(_ *MockRepository, _ *MockSMSClient) {
			},
			expectedError: true,
			errorMessage:  "error unmarshalling message",
		},
		{
			name: "subscriber not found does not requeue",
			body: []byte(`{"id":"m2","subscriber_id":99}`),
			setupMocks: func(r *MockRepository, _ *MockSMSClient) {
				r.On("ReadSubscriber", mock.Anything, 99).
					Return(nil, apperr.ErrSubscriberNotFound).Once()
			},
			expectedError: false,
		},
		{
			name: "provider error is returned for retry",
			body: []byte(`{"id":"m2","subscriber_id":42}`),
			setupMocks: func(r *MockRepository, sms *MockSMSClient) {
				r.On("ReadSubscriber", mock.Anything, 42).Return(&models.Subscriber{
					ID: 42, Name: "Jane", PhoneNumber: "+1555",
				}, nil).Once()
				sms.On("SendSMS", mock.Anything, "+1555", mock.Anything).
					Return("", errors.New("provider unavailable")).Once()
			},
			expectedError: true,
			errorMessage:  "provider unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			transport := new(MockTransport)
			sms := new(MockSMSClient)
			service := NewSenderService(repo, transport, sms, newNoopLogger())

			tt.setupMocks(repo, sms)

			err := service.SendSMSMessage(tt.body)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMessage)
			} else {
				assert.NoError(t, err)
			}

			repo.AssertExpectations(t)
			sms.AssertExpectations(t)
		})
	}
}
