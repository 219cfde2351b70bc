// Package scheduler собирает приложение планировщика уведомлений.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/avdeev-lv/subscription-manager/internal/config"
	"github.com/avdeev-lv/subscription-manager/internal/rabbitmq"
	schedulerservice "github.com/avdeev-lv/subscription-manager/internal/services/scheduler"
	"github.com/avdeev-lv/subscription-manager/internal/storage/repository"
)

const (
	rabbitMaxRetries = 10
	rabbitRetryDelay = 3 * time.Second
	scanInterval     = 12 * time.Hour
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.Service
	db               *repository.Storage
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

// New создает новый экземпляр приложения планировщика.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, rabbitMaxRetries, rabbitRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.NotificationQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	schedulerService := schedulerservice.New(db, rabbitmq.NewChannelPublisher(ch), logger)

	return &App{
		schedulerService: schedulerService,
		db:               db,
		conn:             conn,
		ch:               ch,
		logger:           logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", slog.Any("err", err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", slog.Any("err", err))
		}
	}
}

// Run запускает планировщик и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	go a.schedulerService.Run(ctx, scanInterval)

	<-ctx.Done()

	a.logger.Info("shutting down scheduler service")

	closeResources(a.ch, a.conn, a.logger)
	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close storage", slog.Any("err", err))
	}
	return nil
}
