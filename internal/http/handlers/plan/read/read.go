// Package read реализует HTTP-обработчик получения тарифного плана по ID.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/avdeev-lv/subscription-manager/internal/http/response"
	"github.com/avdeev-lv/subscription-manager/internal/lib/sl"
	"github.com/avdeev-lv/subscription-manager/internal/models"
	"github.com/avdeev-lv/subscription-manager/internal/storage"
)

// Service описывает интерфейс получения плана.
type Service interface {
	Get(ctx context.Context, id int) (*models.Plan, error)
}

// Handler обрабатывает запросы на чтение плана.
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
// @Summary Получение тарифного плана
// @Tags Plans
// @Produce json
// @Param id path int true "ID плана"
// @Success 200 {object} models.Plan
// @Failure 404 {object} response.ErrorResponse "План не найден"
// @Router /plans/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid plan id", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("invalid plan id"))
		return
	}

	plan, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("Plan not found"))
			return
		}
		log.Error("failed to get plan", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get plan"))
		return
	}

	render.JSON(w, r, plan)
}
