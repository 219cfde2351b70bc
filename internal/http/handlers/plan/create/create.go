// Package create реализует HTTP-обработчик создания тарифного плана.
//
// Доступно только администратору. Новый план всегда создается активным.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/shopspring/decimal"

	"github.com/avdeev-lv/subscription-manager/internal/http/response"
	"github.com/avdeev-lv/subscription-manager/internal/lib/sl"
	"github.com/avdeev-lv/subscription-manager/internal/models"
	planservice "github.com/avdeev-lv/subscription-manager/internal/services/plan"
)

// Request — входные данные для создания плана.
type Request struct {
	Name           string          `json:"name" validate:"required,min=1"`
	Price          decimal.Decimal `json:"price" validate:"required"`
	Description    *string         `json:"description,omitempty"`
	DurationMonths int             `json:"duration_months" validate:"required,gt=0"`
}

// Service описывает интерфейс создания плана.
type Service interface {
	Create(ctx context.Context, plan models.Plan) (*models.Plan, error)
}

// Handler обрабатывает запросы на создание плана.
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
// @Summary Создание тарифного плана
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body Request true "Данные плана"
// @Success 201 {object} models.Plan
// @Failure 409 {object} response.ErrorResponse "Имя плана занято"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /plans [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	plan, err := h.service.Create(r.Context(), models.Plan{
		Name:           req.Name,
		Price:          req.Price,
		Description:    req.Description,
		DurationMonths: req.DurationMonths,
	})
	if err != nil {
		switch {
		case errors.Is(err, planservice.ErrNameTaken):
			log.Error("plan name already taken", slog.String("name", req.Name))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("Plan with this name already exists"))
		case errors.Is(err, planservice.ErrInvalidPlan):
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("invalid plan parameters"))
		default:
			log.Error("failed to create plan", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to create plan"))
		}
		return
	}

	log.Info("plan created", slog.Int("id", plan.ID), slog.String("name", plan.Name))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, plan)
}
