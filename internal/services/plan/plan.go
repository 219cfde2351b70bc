// Package plan содержит бизнес-логику каталога тарифных планов.
package plan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avdeev-lv/subscription-manager/internal/lib/sl"
	"github.com/avdeev-lv/subscription-manager/internal/models"
	"github.com/avdeev-lv/subscription-manager/internal/storage"
)

// ErrNameTaken возвращается при создании плана с занятым именем.
var ErrNameTaken = errors.New("plan name already exists")

// ErrInvalidPlan возвращается при недопустимых атрибутах плана.
var ErrInvalidPlan = errors.New("invalid plan attributes")

// Repository описывает методы хранилища для работы с планами.
type Repository interface {
	CreatePlan(ctx context.Context, plan models.Plan) (*models.Plan, error)
	GetPlan(ctx context.Context, id int) (*models.Plan, error)
	ListPlans(ctx context.Context, activeOnly bool) ([]*models.Plan, error)
	UpdatePlan(ctx context.Context, id int, patch models.PlanPatch) (*models.Plan, error)
	DeletePlan(ctx context.Context, id int) error
}

// Cache описывает методы кэширования планов.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service реализует операции каталога планов.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

func cacheKey(id int) string {
	return fmt.Sprintf("plan:%d", id)
}

// Create создает план. Имя должно быть уникально, длительность положительна,
// цена неотрицательна.
func (s *Service) Create(ctx context.Context, plan models.Plan) (*models.Plan, error) {
	const op = "plan.Create"
	if plan.DurationMonths <= 0 || plan.Price.LessThan(decimal.Zero) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidPlan)
	}
	plan.IsActive = true

	created, err := s.repo.CreatePlan(ctx, plan)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrNameTaken)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created new plan", slog.Int("id", created.ID), slog.String("name", created.Name))
	return created, nil
}

// Get возвращает план по ID, используя кеш или репозиторий.
func (s *Service) Get(ctx context.Context, id int) (*models.Plan, error) {
	var cached models.Plan
	found, err := s.cache.Get(cacheKey(id), &cached)
	if err == nil && found {
		return &cached, nil
	}

	result, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(cacheKey(id), result, time.Hour); err != nil {
		s.log.Warn("failed to cache plan", slog.String("key", cacheKey(id)), sl.Err(err))
	}
	return result, nil
}

// List возвращает планы каталога, при activeOnly — только активные.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]*models.Plan, error) {
	return s.repo.ListPlans(ctx, activeOnly)
}

// Update применяет частичное обновление плана и инвалидирует кеш.
func (s *Service) Update(ctx context.Context, id int, patch models.PlanPatch) (*models.Plan, error) {
	const op = "plan.Update"
	if patch.DurationMonths != nil && *patch.DurationMonths <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidPlan)
	}
	if patch.Price != nil && patch.Price.LessThan(decimal.Zero) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidPlan)
	}

	updated, err := s.repo.UpdatePlan(ctx, id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrNameTaken)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Invalidate(cacheKey(id)); err != nil {
		s.log.Warn("failed to invalidate plan cache", slog.String("key", cacheKey(id)), sl.Err(err))
	}
	return updated, nil
}

// Deactivate мягко отключает план: он исчезает из выдачи для новых подписок,
// существующие подписки продолжают ссылаться на него.
func (s *Service) Deactivate(ctx context.Context, id int) (*models.Plan, error) {
	inactive := false
	return s.Update(ctx, id, models.PlanPatch{IsActive: &inactive})
}

// Delete жестко удаляет план. Если на план ссылаются подписки, хранилище
// вернет storage.ErrReferenced.
func (s *Service) Delete(ctx context.Context, id int) error {
	const op = "plan.Delete"
	if err := s.repo.DeletePlan(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Invalidate(cacheKey(id)); err != nil {
		s.log.Warn("failed to invalidate plan cache", slog.String("key", cacheKey(id)), sl.Err(err))
	}
	s.log.Info("deleted plan", slog.Int("id", id))
	return nil
}
