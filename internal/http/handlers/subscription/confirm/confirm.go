// Package confirm реализует HTTP-обработчик подтверждения подписки.
//
// Handler принимает идентификатор клиента у платёжного провайдера и ID
// тарифного плана, создает удалённую подписку и локальную запись подписчика.
package confirm

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/churchpad/subscription-service/internal/apperr"
	"github.com/churchpad/subscription-service/internal/http/response"
	"github.com/churchpad/subscription-service/internal/lib/sl"
	"github.com/churchpad/subscription-service/internal/models"
)

// Handler управляет HTTP-запросами на подтверждение подписки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики подтверждения подписки.
type Service interface {
	Confirm(ctx context.Context, customerID string, planID int) (*models.Subscriber, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Подтвердить подписку
// @Description Создает удалённую подписку клиента и сохраняет подписчика в базе. Приветственные SMS и письмо ставятся в очередь после сохранения.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param request body models.DummyConfirm true "Идентификатор клиента и тарифный план"
// @Success 201 {object} response.Response "Подписчик создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка провайдера"
// @Failure 404 {object} response.ErrorResponse "План или клиент не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Сбой сохранения подписчика"
// @Router /subscriptions/confirm [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.confirm"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyConfirm
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.String("customer_id", req.CustomerID), slog.Int("plan_id", req.PlanID))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	subscriber, err := h.service.Confirm(r.Context(), req.CustomerID, req.PlanID)
	if err != nil {
		var gatewayErr *apperr.GatewayError
		var persistenceErr *apperr.PersistenceError
		switch {
		case apperr.IsNotFound(err):
			log.Error("plan or customer not found", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("plan or customer not found"))
		case errors.As(err, &gatewayErr):
			log.Error("payment gateway error", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(gatewayErr.Message))
		case errors.As(err, &persistenceErr):
			log.Error("failed to save subscriber", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not save subscriber"))
		default:
			log.Error("failed to confirm subscription", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not confirm subscription"))
		}
		return
	}

	log.Info("subscription confirmed", slog.Int("subscriber_id", subscriber.ID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(subscriber))
}
