// Package subscriptionmanager собирает основной HTTP-сервис:
// хранилище, кеш, брокер событий, сервисы и маршруты.
package subscriptionmanager

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/avdeev-lv/subscription-manager/internal/cache"
	"github.com/avdeev-lv/subscription-manager/internal/config"
	"github.com/avdeev-lv/subscription-manager/internal/lib/jwt"
	"github.com/avdeev-lv/subscription-manager/internal/migrations"
	"github.com/avdeev-lv/subscription-manager/internal/rabbitmq"
	authservice "github.com/avdeev-lv/subscription-manager/internal/services/auth"
	planservice "github.com/avdeev-lv/subscription-manager/internal/services/plan"
	subservice "github.com/avdeev-lv/subscription-manager/internal/services/subscription"
	userservice "github.com/avdeev-lv/subscription-manager/internal/services/user"
	"github.com/avdeev-lv/subscription-manager/internal/storage/repository"
)

const (
	rabbitMaxRetries = 10
	rabbitRetryDelay = 3 * time.Second
)

// App представляет основное приложение.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New создает новый экземпляр приложения.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	// Брокер необязателен: без него события жизненного цикла не публикуются.
	var (
		conn   *amqp.Connection
		ch     *amqp.Channel
		events subservice.EventPublisher
	)
	if cfg.RabbitMQURL != "" {
		conn, err = rabbitmq.Connect(cfg.RabbitMQURL, rabbitMaxRetries, rabbitRetryDelay)
		if err != nil {
			return nil, err
		}
		ch, err = rabbitmq.SetupChannel(conn, rabbitmq.NotificationQueues())
		if err != nil {
			return nil, err
		}
		events = rabbitmq.NewChannelPublisher(ch)
	} else {
		logger.Warn("rabbitmq url is empty, lifecycle events disabled")
	}

	jwtMaker := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	authService := authservice.New(db, jwtMaker)
	userService := userservice.New(db, logger)
	planService := planservice.New(db, cacheRedis, logger)
	subscriptionService := subservice.New(db, cacheRedis, events, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, authService, userService, planService, subscriptionService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", slog.Any("err", err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", slog.Any("err", err))
		}
	}
	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close storage", slog.Any("err", err))
	}
}
