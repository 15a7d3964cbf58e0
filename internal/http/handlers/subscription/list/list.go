// Package list реализует HTTP-обработчик списка активных подписок.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/churchpad/subscription-service/internal/http/response"
	"github.com/churchpad/subscription-service/internal/lib/sl"
	"github.com/churchpad/subscription-service/internal/models"
)

// Handler управляет HTTP-запросами списка активных подписок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списка подписок.
type Service interface {
	ListActive(ctx context.Context) ([]*models.SubscriberWithPlan, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список активных подписок
// @Description Возвращает активных подписчиков вместе с их тарифными планами.
// @Tags Subscriptions
// @Produce  json
// @Success 200 {object} response.Response "Список активных подписчиков"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /subscriptions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	subscribers, err := h.service.ListActive(r.Context())
	if err != nil {
		log.Error("failed to list active subscribers", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list subscriptions"))
		return
	}

	log.Info("active subscribers listed", slog.Int("count", len(subscribers)))
	render.JSON(w, r, response.OKWithData(subscribers))
}
