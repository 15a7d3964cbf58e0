// Package stripewebhook реализует HTTP-обработчик вебхуков платёжного провайдера.
//
// Подпись сырого payload проверяется до разбора полей и до любого обращения
// к базе: событие с неверной подписью отклоняется без изменений состояния.
package stripewebhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/churchpad/subscription-service/internal/apperr"
	"github.com/churchpad/subscription-service/internal/http/response"
	"github.com/churchpad/subscription-service/internal/lib/sl"
	"github.com/churchpad/subscription-service/internal/models"
	"github.com/churchpad/subscription-service/internal/paymentgateway"
)

// Заголовок с подписью вебхука Stripe.
const signatureHeader = "Stripe-Signature"

// Service описывает интерфейс обработки событий провайдера.
type Service interface {
	ProcessEvent(ctx context.Context, event *models.WebhookEvent) (string, error)
}

// Handler управляет HTTP-запросами вебхуков провайдера.
type Handler struct {
	log      *slog.Logger
	verifier paymentgateway.WebhookVerifier
	service  Service
}

// New создает новый Handler с переданными логгером, верификатором и сервисом.
func New(log *slog.Logger, verifier paymentgateway.WebhookVerifier, service Service) *Handler {
	return &Handler{
		log:      log,
		verifier: verifier,
		service:  service,
	}
}

// ServeHTTP godoc
// @Summary Обработать событие платёжного провайдера
// @Description Проверяет подпись события и применяет его к подписчику. Неизвестные типы событий подтверждаются без обработки.
// @Tags Webhooks
// @Accept  json
// @Produce  json
// @Success 200 {object} response.Response "Событие обработано или проигнорировано"
// @Failure 400 {object} response.ErrorResponse "Некорректный payload"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Failure 404 {object} response.ErrorResponse "Подписчик не найден"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.webhook.stripe"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid payload"))
		return
	}
	defer func() { _ = r.Body.Close() }()

	event, err := h.verifier.VerifyWebhook(body, r.Header.Get(signatureHeader))
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidSignature) {
			log.Error("invalid webhook signature", sl.Err(err))
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid signature"))
			return
		}
		log.Error("malformed webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid payload"))
		return
	}

	status, err := h.service.ProcessEvent(r.Context(), event)
	if err != nil {
		if errors.Is(err, apperr.ErrSubscriberNotFound) {
			log.Error("subscriber not found", slog.String("customer_id", event.CustomerID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("subscriber not found"))
			return
		}
		log.Error("failed to process webhook event", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not process event"))
		return
	}

	log.Info("webhook processed", slog.String("event", event.Type), slog.String("status", status))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status": status,
	}))
}
