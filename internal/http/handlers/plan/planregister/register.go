// Package planregister реализует HTTP-обработчик регистрации цены тарифного плана.
//
// Handler создает цену у платёжного провайдера и сохраняет тарифный план
// в базе. Сумма принимается в минимальных единицах валюты.
package planregister

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

// Handler управляет HTTP-запросами регистрации цены.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики регистрации цены.
type Service interface {
	RegisterPrice(ctx context.Context, req models.DummyPrice) (*models.Plan, error)
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
// @Summary Зарегистрировать цену тарифного плана
// @Description Создает цену у платёжного провайдера и сохраняет тарифный план в базе.
// @Tags Plans
// @Accept  json
// @Produce  json
// @Param request body models.DummyPrice true "Данные цены"
// @Success 201 {object} response.Response "План создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка провайдера"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /plans [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.register"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyPrice
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.String("name", req.Name))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	plan, err := h.service.RegisterPrice(r.Context(), req)
	if err != nil {
		var gatewayErr *apperr.GatewayError
		if errors.As(err, &gatewayErr) {
			log.Error("payment gateway error", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(gatewayErr.Message))
			return
		}
		log.Error("failed to register price", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not register price"))
		return
	}

	log.Info("plan registered", slog.Int("id", plan.ID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(plan))
}
