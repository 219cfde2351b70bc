// Package create реализует HTTP-обработчик оформления подписки.
//
// Подписка оформляется на текущего пользователя. Одновременно у пользователя
// может быть только одна активная подписка.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/avdeev-lv/subscription-manager/internal/http/middlewarectx"
	"github.com/avdeev-lv/subscription-manager/internal/http/response"
	"github.com/avdeev-lv/subscription-manager/internal/lib/sl"
	"github.com/avdeev-lv/subscription-manager/internal/models"
	subservice "github.com/avdeev-lv/subscription-manager/internal/services/subscription"
)

// Request — входные данные для оформления подписки.
type Request struct {
	PlanID int `json:"plan_id" validate:"required,gt=0"`
}

// Service описывает интерфейс оформления подписки.
type Service interface {
	Subscribe(ctx context.Context, requester *models.User, planID int) (*models.Subscription, error)
}

// Handler обрабатывает запросы на оформление подписки.
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
// @Summary Оформление подписки
// @Description Оформляет подписку текущего пользователя на активный план.
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "ID плана"
// @Success 200 {object} models.Subscription
// @Failure 400 {object} response.ErrorResponse "Уже есть активная подписка"
// @Failure 404 {object} response.ErrorResponse "План недоступен"
// @Router /subscriptions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.create"

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

	sub, err := h.service.Subscribe(r.Context(), requester, req.PlanID)
	if err != nil {
		switch {
		case errors.Is(err, subservice.ErrActiveSubscriptionExists):
			log.Warn("duplicate active subscription", slog.Int("user_id", requester.ID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf(
				"User with ID %d already has an active subscription", requester.ID)))
		case errors.Is(err, subservice.ErrPlanUnavailable):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("Invalid or inactive plan"))
		default:
			log.Error("failed to create subscription", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to create subscription"))
		}
		return
	}

	log.Info("subscription created", slog.Int("id", sub.ID), slog.Int("user_id", requester.ID))
	render.JSON(w, r, sub)
}
