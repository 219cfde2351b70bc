// Package extend реализует HTTP-обработчик продления подписки администратором.
package extend

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/avdeev-lv/subscription-manager/internal/http/response"
	"github.com/avdeev-lv/subscription-manager/internal/lib/sl"
	"github.com/avdeev-lv/subscription-manager/internal/models"
	subservice "github.com/avdeev-lv/subscription-manager/internal/services/subscription"
	"github.com/avdeev-lv/subscription-manager/internal/storage"
)

// Request — новая дата окончания подписки.
type Request struct {
	EndDate time.Time `json:"end_date" validate:"required"`
}

// Service описывает интерфейс продления подписки.
type Service interface {
	ExtendEndDate(ctx context.Context, id int, newEndDate time.Time) (*models.Subscription, error)
}

// Handler обрабатывает запросы на продление подписки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Продление подписки
// @Description Перезаписывает дату окончания. Новая дата должна быть позже даты начала.
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID подписки"
// @Param request body Request true "Новая дата окончания"
// @Success 200 {object} models.Subscription
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Failure 422 {object} response.ErrorResponse "Некорректная дата"
// @Router /subscriptions/{id}/extend [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.extend"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid subscription id", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("invalid subscription id"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	sub, err := h.service.ExtendEndDate(r.Context(), id, req.EndDate)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("Subscription not found"))
		case errors.Is(err, subservice.ErrInvalidEndDate):
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("End date must be after start date"))
		default:
			log.Error("failed to extend subscription", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to extend subscription"))
		}
		return
	}

	log.Info("subscription extended", slog.Int("id", sub.ID), slog.Time("end_date", sub.EndDate))
	render.JSON(w, r, sub)
}
