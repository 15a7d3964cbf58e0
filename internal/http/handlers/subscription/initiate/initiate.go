// Package initiate реализует HTTP-обработчик первого шага оформления подписки.
//
// Handler принимает JSON-запрос с данными подписчика и платёжным методом,
// валидирует их и запускает создание удалённых сущностей у платёжного
// провайдера. В ответ возвращается client_secret намерения платежа —
// локальная запись подписчика на этом шаге не создается.
package initiate

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

// Handler управляет HTTP-запросами на оформление подписки.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики оформления подписки
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики оформления подписки.
type Service interface {
	Initiate(ctx context.Context, req models.DummySubscriber) (*models.InitiateResult, error)
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
// @Summary Оформить подписку
// @Description Создает клиента у платёжного провайдера, привязывает платёжный метод и создает намерение платежа. Возвращает client_secret для завершения оплаты.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param request body models.DummySubscriber true "Данные подписчика и платёжный метод"
// @Success 201 {object} response.Response "Намерение платежа создано"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка провайдера"
// @Failure 404 {object} response.ErrorResponse "Тарифный план не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /subscriptions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.initiate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummySubscriber
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.Int("plan_id", req.PlanID))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	result, err := h.service.Initiate(r.Context(), req)
	if err != nil {
		var validationErr *apperr.ValidationError
		var gatewayErr *apperr.GatewayError
		switch {
		case errors.As(err, &validationErr):
			log.Error("invalid initiate request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(validationErr.Error()))
		case errors.Is(err, apperr.ErrPlanNotFound):
			log.Error("invalid plan id", sl.Err(err))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("plan not found"))
		case errors.As(err, &gatewayErr):
			log.Error("payment gateway error", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(gatewayErr.Message))
		default:
			log.Error("failed to initiate subscription", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not initiate subscription"))
		}
		return
	}

	log.Info("subscription initiated", slog.String("customer_id", result.CustomerID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(result))
}
