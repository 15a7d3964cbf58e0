// Package services содержит доставку уведомлений воркером: письма через
// SMTP и SMS через HTTP API провайдера. Ошибка доставки возвращается
// потребителю очереди и приводит к повторной постановке сообщения.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/churchpad/subscription-service/internal/apperr"
	"github.com/churchpad/subscription-service/internal/lib/sl"
	"github.com/churchpad/subscription-service/internal/lib/smtp"
	"github.com/churchpad/subscription-service/internal/models"
)

// SubscriberRepository определяет чтение подписчика для рендеринга SMS.
type SubscriberRepository interface {
	ReadSubscriber(ctx context.Context, id int) (*models.Subscriber, error)
}

// Transport описывает SMTP транспорт.
type Transport interface {
	Connect() (smtp.Client, error)
	GetSMTPUser() string
}

// SMSClient описывает отправку SMS.
type SMSClient interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

// SenderService доставляет сообщения из очередей уведомлений.
type SenderService struct {
	repo      SubscriberRepository
	transport Transport
	sms       SMSClient
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(repo SubscriberRepository, transport Transport, sms SMSClient, log *slog.Logger) *SenderService {
	return &SenderService{
		repo:      repo,
		transport: transport,
		sms:       sms,
		log:       log,
	}
}

// SendEmailMessage доставляет письмо из очереди notifications.email.
// Тема и текст уже отрендерены отправителем в очередь.
func (s *SenderService) SendEmailMessage(body []byte) error {
	var message models.EmailMessage
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal email message", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	if err := s.sendEmail(message.Recipients, message.Subject, message.Body); err != nil {
		return err
	}
	s.log.Info("email delivered", slog.String("message_id", message.ID),
		slog.String("subject", message.Subject))
	return nil
}

// SendSMSMessage доставляет SMS из очереди notifications.sms: читает
// подписчика из базы и рендерит текст по его имени. Отсутствующий
// подписчик логируется и не ведет к повторной доставке.
func (s *SenderService) SendSMSMessage(body []byte) error {
	var message models.SMSMessage
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal sms message", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	subscriber, err := s.repo.ReadSubscriber(ctx, message.SubscriberID)
	if err != nil {
		if errors.Is(err, apperr.ErrSubscriberNotFound) {
			s.log.Error("subscriber for sms does not exist",
				slog.String("message_id", message.ID), slog.Int("subscriber_id", message.SubscriberID))
			return nil
		}
		return err
	}

	text := fmt.Sprintf("Hi %s, thanks for subscribing to our livestream service on ChurchPad!", subscriber.Name)
	sid, err := s.sms.SendSMS(ctx, subscriber.PhoneNumber, text)
	if err != nil {
		s.log.Error("failed to send sms", slog.String("message_id", message.ID), sl.Err(err))
		return err
	}
	s.log.Info("sms delivered", slog.String("message_id", message.ID),
		slog.String("provider_sid", sid), slog.String("to", subscriber.PhoneNumber))
	return nil
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	return nil
}
