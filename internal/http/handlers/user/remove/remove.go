// Package remove реализует HTTP-обработчик удаления пользователя.
//
// Удаление отклоняется, пока у пользователя есть активная подписка.
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

	"github.com/avdeev-lv/subscription-manager/internal/http/middlewarectx"
	"github.com/avdeev-lv/subscription-manager/internal/http/response"
	"github.com/avdeev-lv/subscription-manager/internal/lib/sl"
	userservice "github.com/avdeev-lv/subscription-manager/internal/services/user"
	"github.com/avdeev-lv/subscription-manager/internal/storage"
)

// Service описывает интерфейс удаления пользователя.
type Service interface {
	Delete(ctx context.Context, id int) error
}

// Handler обрабатывает запросы на удаление пользователя.
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
// @Summary Удаление пользователя
// @Description Удаляет учетную запись. Доступно владельцу и администратору.
// @Tags Users
// @Security BearerAuth
// @Param id path int true "ID пользователя"
// @Success 204 "Пользователь удален"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 409 {object} response.ErrorResponse "Есть активная подписка"
// @Router /users/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.remove"

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
		log.Warn("forbidden user delete",
			slog.Int("requester_id", requester.ID),
			slog.Int("target_id", id))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("Not enough permissions"))
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("User not found"))
		case errors.Is(err, userservice.ErrHasActiveSubscription):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("User has an active subscription"))
		default:
			log.Error("failed to delete user", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to delete user"))
		}
		return
	}

	log.Info("user deleted", slog.Int("id", id))
	w.WriteHeader(http.StatusNoContent)
}
