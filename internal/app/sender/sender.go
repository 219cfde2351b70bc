// Package sender собирает приложение отправки почтовых уведомлений.
package sender

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/avdeev-lv/subscription-manager/internal/config"
	"github.com/avdeev-lv/subscription-manager/internal/rabbitmq"
	senderservice "github.com/avdeev-lv/subscription-manager/internal/services/sender"
)

const (
	rabbitMaxRetries = 10
	rabbitRetryDelay = 3 * time.Second
	expiringQueue    = "notifications.expiring"
)

// App представляет приложение отправителя уведомлений.
type App struct {
	senderService *senderservice.Service
	conn          *amqp.Connection
	ch            *amqp.Channel
	logger        *slog.Logger
}

// New создает новый экземпляр приложения отправителя.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, rabbitMaxRetries, rabbitRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.NotificationQueues())
	if err != nil {
		if cerr := conn.Close(); cerr != nil {
			logger.Error("failed to close connection", slog.Any("err", cerr))
		}
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	return &App{
		senderService: senderservice.New(cfg, logger),
		conn:          conn,
		ch:            ch,
		logger:        logger,
	}, nil
}

// Run потребляет очередь уведомлений до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumeMessages(ctx, a.ch, expiringQueue, a.senderService.SendExpiringNotice)

	a.logger.Info("shutting down sender service")

	if cerr := a.ch.Close(); cerr != nil {
		a.logger.Error("failed to close channel", slog.Any("err", cerr))
	}
	if cerr := a.conn.Close(); cerr != nil {
		a.logger.Error("failed to close connection", slog.Any("err", cerr))
	}
	return err
}
