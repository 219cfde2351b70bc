// Package subscriptionmanager предоставляет маршруты для основного приложения.
package subscriptionmanager

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/avdeev-lv/subscription-manager/internal/http/handlers/auth/login"
	"github.com/avdeev-lv/subscription-manager/internal/http/handlers/auth/me"
	plancreate "github.com/avdeev-lv/subscription-manager/internal/http/handlers/plan/create"
	plandeactivate "github.com/avdeev-lv/subscription-manager/internal/http/handlers/plan/deactivate"
	planlist "github.com/avdeev-lv/subscription-manager/internal/http/handlers/plan/list"
	planread "github.com/avdeev-lv/subscription-manager/internal/http/handlers/plan/read"
	planremove "github.com/avdeev-lv/subscription-manager/internal/http/handlers/plan/remove"
	planupdate "github.com/avdeev-lv/subscription-manager/internal/http/handlers/plan/update"
	subcancel "github.com/avdeev-lv/subscription-manager/internal/http/handlers/subscription/cancel"
	subcreate "github.com/avdeev-lv/subscription-manager/internal/http/handlers/subscription/create"
	subextend "github.com/avdeev-lv/subscription-manager/internal/http/handlers/subscription/extend"
	sublistall "github.com/avdeev-lv/subscription-manager/internal/http/handlers/subscription/listall"
	sublistmy "github.com/avdeev-lv/subscription-manager/internal/http/handlers/subscription/listmy"
	subread "github.com/avdeev-lv/subscription-manager/internal/http/handlers/subscription/read"
	subremove "github.com/avdeev-lv/subscription-manager/internal/http/handlers/subscription/remove"
	userlist "github.com/avdeev-lv/subscription-manager/internal/http/handlers/user/list"
	userread "github.com/avdeev-lv/subscription-manager/internal/http/handlers/user/read"
	userregister "github.com/avdeev-lv/subscription-manager/internal/http/handlers/user/register"
	userremove "github.com/avdeev-lv/subscription-manager/internal/http/handlers/user/remove"
	userupdate "github.com/avdeev-lv/subscription-manager/internal/http/handlers/user/update"
	"github.com/avdeev-lv/subscription-manager/internal/http/middlewarectx"
	authservice "github.com/avdeev-lv/subscription-manager/internal/services/auth"
	planservice "github.com/avdeev-lv/subscription-manager/internal/services/plan"
	subservice "github.com/avdeev-lv/subscription-manager/internal/services/subscription"
	userservice "github.com/avdeev-lv/subscription-manager/internal/services/user"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger,
	authService *authservice.Service,
	userService *userservice.Service,
	planService *planservice.Service,
	subscriptionService *subservice.Service,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	limiter := rate.NewLimiter(rate.Limit(50), 100)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/users", userregister.New(logger, userService).ServeHTTP)
		r.Post("/auth/login", login.New(logger, authService).ServeHTTP)
		r.Get("/users/{id}", userread.New(logger, userService).ServeHTTP)
		r.Get("/plans", planlist.New(logger, planService).ServeHTTP)
		r.Get("/plans/{id}", planread.New(logger, planService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, limiter))

			r.Get("/auth/me", me.New(logger).ServeHTTP)

			r.Put("/users/{id}", userupdate.New(logger, userService).ServeHTTP)
			r.Delete("/users/{id}", userremove.New(logger, userService).ServeHTTP)

			r.Post("/subscriptions", subcreate.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/me", sublistmy.New(logger, subscriptionService).ServeHTTP)
			r.Get("/subscriptions/{id}", subread.New(logger, subscriptionService).ServeHTTP)
			r.Patch("/subscriptions/{id}/cancel", subcancel.New(logger, subscriptionService).ServeHTTP)

			// Административные операции
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminMiddleware(logger))

				r.Get("/users", userlist.New(logger, userService).ServeHTTP)

				r.Post("/plans", plancreate.New(logger, planService).ServeHTTP)
				r.Put("/plans/{id}", planupdate.New(logger, planService).ServeHTTP)
				r.Patch("/plans/{id}/deactivate", plandeactivate.New(logger, planService).ServeHTTP)
				r.Delete("/plans/{id}", planremove.New(logger, planService).ServeHTTP)

				r.Get("/subscriptions/all", sublistall.New(logger, subscriptionService).ServeHTTP)
				r.Patch("/subscriptions/{id}/extend", subextend.New(logger, subscriptionService).ServeHTTP)
				r.Delete("/subscriptions/{id}", subremove.New(logger, subscriptionService).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
