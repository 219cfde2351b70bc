// Package list реализует HTTP-обработчик списка тарифных планов.
//
// По умолчанию возвращаются все планы; параметр active=true
// ограничивает выдачу активными.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/avdeev-lv/subscription-manager/internal/http/response"
	"github.com/avdeev-lv/subscription-manager/internal/lib/sl"
	"github.com/avdeev-lv/subscription-manager/internal/models"
)

// Service описывает интерфейс получения списка планов.
type Service interface {
	List(ctx context.Context, activeOnly bool) ([]*models.Plan, error)
}

// Handler обрабатывает запросы на список планов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список тарифных планов
// @Tags Plans
// @Produce json
// @Param active query bool false "Показать только активные планы"
// @Success 200 {array} models.Plan
// @Router /plans [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	activeOnly := r.URL.Query().Get("active") == "true"

	plans, err := h.service.List(r.Context(), activeOnly)
	if err != nil {
		log.Error("failed to list plans", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list plans"))
		return
	}

	render.JSON(w, r, plans)
}
