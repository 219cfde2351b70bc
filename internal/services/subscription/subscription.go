// Package subscription содержит ядро бизнес-логики: жизненный цикл подписки
// и правила доступа владелец-или-админ.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avdeev-lv/subscription-manager/internal/lib/month"
	"github.com/avdeev-lv/subscription-manager/internal/lib/sl"
	"github.com/avdeev-lv/subscription-manager/internal/models"
	"github.com/avdeev-lv/subscription-manager/internal/storage"
)

var (
	// ErrActiveSubscriptionExists — у пользователя уже есть активная подписка.
	ErrActiveSubscriptionExists = errors.New("user already has an active subscription")
	// ErrPlanUnavailable — план не существует или отключен.
	ErrPlanUnavailable = errors.New("invalid or inactive plan")
	// ErrNotOwner — запрашивающий не владелец подписки и не администратор.
	ErrNotOwner = errors.New("not the subscription owner")
	// ErrInvalidEndDate — новая дата окончания не позже даты начала.
	ErrInvalidEndDate = errors.New("end date must be after start date")
)

// Repository определяет методы для работы с подписками и планами в хранилище.
type Repository interface {
	CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	GetSubscription(ctx context.Context, id int) (*models.Subscription, error)
	HasActiveSubscription(ctx context.Context, userID int) (bool, error)
	ListSubscriptionsByUser(ctx context.Context, userID int) ([]*models.Subscription, error)
	ListAllSubscriptions(ctx context.Context, limit, offset int) ([]*models.Subscription, error)
	CancelSubscription(ctx context.Context, id int) (*models.Subscription, error)
	UpdateSubscriptionEndDate(ctx context.Context, id int, endDate time.Time) (*models.Subscription, error)
	DeleteSubscription(ctx context.Context, id int) error
	GetActivePlan(ctx context.Context, id int) (*models.Plan, error)
}

// Cache описывает методы для кэширования подписок.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// EventPublisher публикует события жизненного цикла подписки в брокер.
type EventPublisher interface {
	Publish(routingKey string, message any) error
}

// Service реализует жизненный цикл подписок.
type Service struct {
	repo   Repository
	cache  Cache
	events EventPublisher
	log    *slog.Logger
	now    func() time.Time
}

// New создает новый экземпляр Service. events может быть nil,
// тогда события не публикуются.
func New(repo Repository, cache Cache, events EventPublisher, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		events: events,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func cacheKey(id int) string {
	return fmt.Sprintf("subscription:%d", id)
}

// Subscribe оформляет подписку пользователя на план.
//
// Проверяется отсутствие активной подписки и доступность плана, затем
// вычисляется окно действия: end = start плюс длительность плана
// в календарных месяцах. Повторная проверка инварианта выполняется базой
// через частичный уникальный индекс, что закрывает гонку проверка-вставка.
func (s *Service) Subscribe(ctx context.Context, requester *models.User, planID int) (*models.Subscription, error) {
	const op = "subscription.Subscribe"

	exists, err := s.repo.HasActiveSubscription(ctx, requester.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil, fmt.Errorf("%s: user %d: %w", op, requester.ID, ErrActiveSubscriptionExists)
	}

	plan, err := s.repo.GetActivePlan(ctx, planID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrPlanUnavailable)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	start := s.now()
	sub := models.Subscription{
		UserID:    requester.ID,
		PlanID:    plan.ID,
		StartDate: start,
		EndDate:   month.Add(start, plan.DurationMonths),
		IsActive:  true,
	}

	created, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		if errors.Is(err, storage.ErrActiveSubscriptionExists) {
			return nil, fmt.Errorf("%s: user %d: %w", op, requester.ID, ErrActiveSubscriptionExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created new subscription",
		slog.Int("id", created.ID),
		slog.Int("user_id", created.UserID),
		slog.Int("plan_id", created.PlanID))

	if err := s.cache.Set(cacheKey(created.ID), created, time.Hour); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", cacheKey(created.ID)), sl.Err(err))
	}
	s.publishEvent("subscription.created", created)

	return created, nil
}

// GetByID возвращает подписку по ID для владельца или администратора.
func (s *Service) GetByID(ctx context.Context, requester *models.User, id int) (*models.Subscription, error) {
	const op = "subscription.GetByID"

	var cached models.Subscription
	found, err := s.cache.Get(cacheKey(id), &cached)
	if err == nil && found {
		if err := s.authorize(requester, &cached); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &cached, nil
	}

	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.authorize(requester, sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Set(cacheKey(id), sub, time.Hour); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", cacheKey(id)), sl.Err(err))
	}
	return sub, nil
}

// ListByUser возвращает подписки пользователя в порядке создания.
func (s *Service) ListByUser(ctx context.Context, userID int) ([]*models.Subscription, error) {
	return s.repo.ListSubscriptionsByUser(ctx, userID)
}

// ListAll возвращает все подписки с пагинацией. Доступ ограничен
// администраторами на уровне маршрутизации.
func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]*models.Subscription, error) {
	return s.repo.ListAllSubscriptions(ctx, limit, offset)
}

// Cancel снимает флаг активности подписки. Дата окончания не меняется.
// Операция идемпотентна: повторная отмена возвращает то же состояние.
func (s *Service) Cancel(ctx context.Context, requester *models.User, id int) (*models.Subscription, error) {
	const op = "subscription.Cancel"

	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.authorize(requester, sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cancelled, err := s.repo.CancelSubscription(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("cancelled subscription", slog.Int("id", id))

	if err := s.cache.Invalidate(cacheKey(id)); err != nil {
		s.log.Warn("failed to invalidate subscription cache", slog.String("key", cacheKey(id)), sl.Err(err))
	}
	s.publishEvent("subscription.cancelled", cancelled)

	return cancelled, nil
}

// ExtendEndDate перезаписывает дату окончания подписки. Используется
// администраторами для продления доступа. Новая дата обязана быть позже
// даты начала подписки.
func (s *Service) ExtendEndDate(ctx context.Context, id int, newEndDate time.Time) (*models.Subscription, error) {
	const op = "subscription.ExtendEndDate"

	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !newEndDate.After(sub.StartDate) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidEndDate)
	}

	updated, err := s.repo.UpdateSubscriptionEndDate(ctx, id, newEndDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Invalidate(cacheKey(id)); err != nil {
		s.log.Warn("failed to invalidate subscription cache", slog.String("key", cacheKey(id)), sl.Err(err))
	}
	return updated, nil
}

// HardDelete безусловно удаляет подписку. Только для администраторов.
func (s *Service) HardDelete(ctx context.Context, id int) error {
	const op = "subscription.HardDelete"
	if err := s.repo.DeleteSubscription(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Invalidate(cacheKey(id)); err != nil {
		s.log.Warn("failed to invalidate subscription cache", slog.String("key", cacheKey(id)), sl.Err(err))
	}
	s.log.Info("deleted subscription", slog.Int("id", id))
	return nil
}

// authorize проверяет правило владелец-или-админ.
func (s *Service) authorize(requester *models.User, sub *models.Subscription) error {
	if sub.UserID != requester.ID && !requester.IsAdmin {
		return ErrNotOwner
	}
	return nil
}

func (s *Service) publishEvent(eventType string, sub *models.Subscription) {
	if s.events == nil {
		return
	}
	event := models.SubscriptionEvent{
		Type:           eventType,
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		PlanID:         sub.PlanID,
		OccurredAt:     s.now(),
	}
	if err := s.events.Publish("lifecycle", event); err != nil {
		s.log.Warn("failed to publish subscription event", slog.String("type", eventType), sl.Err(err))
	}
}
