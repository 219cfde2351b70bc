// Package me возвращает сведения о текущем аутентифицированном пользователе.
package me

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/avdeev-lv/subscription-manager/internal/http/middlewarectx"
	"github.com/avdeev-lv/subscription-manager/internal/http/response"
)

// Handler обрабатывает запросы GET /auth/me.
type Handler struct {
	log *slog.Logger
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		h.log.Error("user not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid or expired token"))
		return
	}

	render.JSON(w, r, map[string]string{"email": user.Email})
}
