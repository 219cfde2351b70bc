// Package middlewarectx содержит HTTP middleware авторизации.
//
// JWTMiddleware извлекает bearer-токен из заголовка Authorization, проверяет
// его и кладет разрешенного пользователя в контекст запроса. Все варианты
// отказа (нет заголовка, битый токен, истекший срок, неизвестный subject)
// намеренно сводятся к единому ответу 401, чтобы не раскрывать причину.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/avdeev-lv/subscription-manager/internal/http/response"
	"github.com/avdeev-lv/subscription-manager/internal/lib/sl"
	"github.com/avdeev-lv/subscription-manager/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// UserKey — ключ для разрешенного пользователя в контексте.
const UserKey Key = "user"

// AuthService описывает разрешение токена в пользователя.
type AuthService interface {
	ResolveToken(ctx context.Context, token string) (*models.User, error)
}

// UserFromContext возвращает аутентифицированного пользователя запроса.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserKey).(*models.User)
	return user, ok && user != nil
}

// JWTMiddleware возвращает middleware, проверяющий bearer-токен.
func JWTMiddleware(authService AuthService, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			user, err := authService.ResolveToken(r.Context(), tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminMiddleware пропускает только администраторов. Требует JWTMiddleware выше по цепочке.
func AdminMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.AdminMiddleware"

			user, ok := UserFromContext(r.Context())
			if !ok {
				log.Error("user missing in context", slog.String("op", op))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			if !user.IsAdmin {
				log.Error("admin privileges required",
					slog.String("op", op), slog.Int("user_id", user.ID))
				w.WriteHeader(http.StatusForbidden)
				render.JSON(w, r, response.Error("the user does not have enough privileges"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
