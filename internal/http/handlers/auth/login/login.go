// Package login реализует HTTP-обработчик аутентификации пользователей.
//
// Учетные данные принимаются в form-encoded виде (поля username и password,
// в username передается email). При успехе возвращается токен доступа.
// Любая неудача входа отвечает единым сообщением, не раскрывая, что именно
// не совпало.
package login

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/avdeev-lv/subscription-manager/internal/http/response"
	"github.com/avdeev-lv/subscription-manager/internal/lib/sl"
	"github.com/avdeev-lv/subscription-manager/internal/services/auth"
)

// Handler обрабатывает запросы на вход.
type Handler struct {
	log         *slog.Logger
	authService Service
}

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, authService Service) *Handler {
	return &Handler{
		log:         log,
		authService: authService,
	}
}

// ServeHTTP godoc
// @Summary Авторизация пользователя
// @Description Аутентифицирует пользователя по email и паролю. Возвращает токен доступа.
// @Tags Auth
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Email пользователя"
// @Param password formData string true "Пароль"
// @Success 200 {object} map[string]string "Токен доступа"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Router /auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := r.ParseForm(); err != nil {
		log.Error("failed to parse form", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	email := r.PostFormValue("username")
	pass := r.PostFormValue("password")
	if email == "" || pass == "" {
		log.Error("missing credentials")
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("username and password are required"))
		return
	}

	token, err := h.authService.Login(r.Context(), email, pass)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			log.Error("login failed", sl.Err(err))
			w.Header().Set("WWW-Authenticate", "Bearer")
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Incorrect username or password"))
			return
		}
		log.Error("login failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	log.Info("login success", slog.String("email", email))
	render.JSON(w, r, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}
