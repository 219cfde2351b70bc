// Package cancel реализует HTTP-обработчик отмены подписки.
//
// Отмена снимает флаг активности, дата окончания не меняется.
// Повторная отмена возвращает то же состояние без ошибки.
package cancel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/avdeev-lv/subscription-manager/internal/http/middlewarectx"
	"github.com/avdeev-lv/subscription-manager/internal/http/response"
	"github.com/avdeev-lv/subscription-manager/internal/lib/sl"
	"github.com/avdeev-lv/subscription-manager/internal/models"
	subservice "github.com/avdeev-lv/subscription-manager/internal/services/subscription"
	"github.com/avdeev-lv/subscription-manager/internal/storage"
)

// Service описывает интерфейс отмены подписки.
type Service interface {
	Cancel(ctx context.Context, requester *models.User, id int) (*models.Subscription, error)
}

// Handler обрабатывает запросы на отмену подписки.
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
// @Summary Отмена подписки
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID подписки"
// @Success 200 {object} models.Subscription
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Router /subscriptions/{id}/cancel [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.cancel"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	requester, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("not authenticated"))
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid subscription id", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("invalid subscription id"))
		return
	}

	sub, err := h.service.Cancel(r.Context(), requester, id)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("Subscription not found"))
		case errors.Is(err, subservice.ErrNotOwner):
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("Not enough permissions"))
		default:
			log.Error("failed to cancel subscription", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to cancel subscription"))
		}
		return
	}

	log.Info("subscription cancelled", slog.Int("id", sub.ID))
	render.JSON(w, r, sub)
}
