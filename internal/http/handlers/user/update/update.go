// Package update реализует HTTP-обработчик частичного обновления пользователя.
//
// Обновить запись может либо сам пользователь, либо администратор.
// Отсутствующие в теле поля остаются без изменений.
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

	"github.com/avdeev-lv/subscription-manager/internal/http/middlewarectx"
	"github.com/avdeev-lv/subscription-manager/internal/http/response"
	"github.com/avdeev-lv/subscription-manager/internal/lib/sl"
	"github.com/avdeev-lv/subscription-manager/internal/models"
	userservice "github.com/avdeev-lv/subscription-manager/internal/services/user"
	"github.com/avdeev-lv/subscription-manager/internal/storage"
)

// Request — частичное обновление: nil-поля не трогаются.
type Request struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

// Service описывает интерфейс обновления пользователя.
type Service interface {
	Update(ctx context.Context, id int, patch models.UserPatch) (*models.User, error)
}

// Handler обрабатывает запросы на обновление пользователя.
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
// @Summary Обновление пользователя
// @Description Частично обновляет имя и/или email. Доступно владельцу и администратору.
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID пользователя"
// @Param request body Request true "Изменяемые поля"
// @Success 200 {object} models.User
// @Failure 400 {object} response.ErrorResponse "Email уже занят"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /users/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.update"

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
		log.Error("invalid user id", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("invalid user id"))
		return
	}

	if requester.ID != id && !requester.IsAdmin {
		log.Warn("forbidden user update",
			slog.Int("requester_id", requester.ID),
			slog.Int("target_id", id))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("Not enough permissions"))
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

	user, err := h.service.Update(r.Context(), id, models.UserPatch{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("User not found"))
		case errors.Is(err, userservice.ErrEmailTaken):
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("Email already registered"))
		default:
			log.Error("failed to update user", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to update user"))
		}
		return
	}

	log.Info("user updated", slog.Int("id", user.ID))
	render.JSON(w, r, user)
}
