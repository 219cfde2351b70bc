// Package scheduler периодически ищет подписки с истекающим сроком действия
// и публикует уведомления в брокер.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/avdeev-lv/subscription-manager/internal/lib/sl"
	"github.com/avdeev-lv/subscription-manager/internal/models"
)

// Repository описывает поиск истекающих подписок.
type Repository interface {
	FindSubscriptionsExpiringTomorrow(ctx context.Context) ([]*models.ExpiringSubscription, error)
}

// Publisher публикует уведомления в брокер.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// Service периодически сканирует подписки и рассылает уведомления.
type Service struct {
	repo      Repository
	publisher Publisher
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, publisher Publisher, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

// Run запускает цикл поиска с заданным интервалом до отмены контекста.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.ScanOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// ScanOnce выполняет один проход: находит истекающие завтра подписки
// и публикует уведомление по каждой.
func (s *Service) ScanOnce(ctx context.Context) {
	s.log.Info("scanning for expiring subscriptions")
	expiring, err := s.repo.FindSubscriptionsExpiringTomorrow(ctx)
	if err != nil {
		s.log.Error("failed to find expiring subscriptions", sl.Err(err))
		return
	}
	for _, e := range expiring {
		if err := s.publisher.Publish("expiring", e); err != nil {
			s.log.Error("failed to publish notification", sl.Err(err))
		}
	}
	s.log.Info("scan finished", slog.Int("found", len(expiring)))
}
