// Package update реализует HTTP-обработчик частичного обновления тарифного плана.
//
// Доступно только администратору. Отсутствующие поля не изменяются.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/shopspring/decimal"

	"github.com/avdeev-lv/subscription-manager/internal/http/response"
	"github.com/avdeev-lv/subscription-manager/internal/lib/sl"
	"github.com/avdeev-lv/subscription-manager/internal/models"
	planservice "github.com/avdeev-lv/subscription-manager/internal/services/plan"
	"github.com/avdeev-lv/subscription-manager/internal/storage"
)

// Request — частичное обновление: nil-поля не трогаются.
type Request struct {
	Name           *string          `json:"name,omitempty" validate:"omitempty,min=1"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	Description    *string          `json:"description,omitempty"`
	DurationMonths *int             `json:"duration_months,omitempty" validate:"omitempty,gt=0"`
	IsActive       *bool            `json:"is_active,omitempty"`
}

// Service описывает интерфейс обновления плана.
type Service interface {
	Update(ctx context.Context, id int, patch models.PlanPatch) (*models.Plan, error)
}

// Handler обрабатывает запросы на обновление плана.
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
// @Summary Обновление тарифного плана
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID плана"
// @Param request body Request true "Изменяемые поля"
// @Success 200 {object} models.Plan
// @Failure 404 {object} response.ErrorResponse "План не найден"
// @Failure 409 {object} response.ErrorResponse "Имя плана занято"
// @Router /plans/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.update"

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

	plan, err := h.service.Update(r.Context(), id, models.PlanPatch{
		Name:           req.Name,
		Price:          req.Price,
		Description:    req.Description,
		DurationMonths: req.DurationMonths,
		IsActive:       req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("Plan not found"))
		case errors.Is(err, planservice.ErrNameTaken):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("Plan with this name already exists"))
		case errors.Is(err, planservice.ErrInvalidPlan):
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("invalid plan parameters"))
		default:
			log.Error("failed to update plan", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to update plan"))
		}
		return
	}

	log.Info("plan updated", slog.Int("id", plan.ID))
	render.JSON(w, r, plan)
}
