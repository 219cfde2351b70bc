// Package remove реализует HTTP-обработчик удаления тарифного плана.
//
// План с существующими подписками удалить нельзя: его следует деактивировать.
package remove

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
	"github.com/avdeev-lv/subscription-manager/internal/storage"
)

// Service описывает интерфейс удаления плана.
type Service interface {
	Delete(ctx context.Context, id int) error
}

// Handler обрабатывает запросы на удаление плана.
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
// @Summary Удаление тарифного плана
// @Tags Plans
// @Security BearerAuth
// @Param id path int true "ID плана"
// @Success 204 "План удален"
// @Failure 404 {object} response.ErrorResponse "План не найден"
// @Failure 409 {object} response.ErrorResponse "На план есть подписки"
// @Router /plans/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.remove"

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

	if err := h.service.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("Plan not found"))
		case errors.Is(err, storage.ErrReferenced):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("Plan has subscriptions and cannot be deleted"))
		default:
			log.Error("failed to delete plan", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to delete plan"))
		}
		return
	}

	log.Info("plan deleted", slog.Int("id", id))
	w.WriteHeader(http.StatusNoContent)
}
