// Package listall реализует HTTP-обработчик списка всех подписок.
//
// Доступно только администратору.
package listall

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/avdeev-lv/subscription-manager/internal/http/response"
	"github.com/avdeev-lv/subscription-manager/internal/lib/sl"
	"github.com/avdeev-lv/subscription-manager/internal/models"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Service описывает интерфейс получения всех подписок.
type Service interface {
	ListAll(ctx context.Context, limit, offset int) ([]*models.Subscription, error)
}

// Handler обрабатывает запросы на список всех подписок.
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
// @Summary Список всех подписок
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Максимум записей" default(100)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {array} models.Subscription
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Router /subscriptions/all [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.listall"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > maxLimit {
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("invalid limit"))
			return
		}
		limit = v
	}

	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("invalid offset"))
			return
		}
		offset = v
	}

	subs, err := h.service.ListAll(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list subscriptions", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list subscriptions"))
		return
	}

	render.JSON(w, r, subs)
}
