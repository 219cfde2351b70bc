// Package user содержит бизнес-логику управления учетными записями.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/avdeev-lv/subscription-manager/internal/lib/password"
	"github.com/avdeev-lv/subscription-manager/internal/models"
	"github.com/avdeev-lv/subscription-manager/internal/storage"
)

// ErrEmailTaken возвращается при попытке регистрации с занятым email.
var ErrEmailTaken = errors.New("email already registered")

// ErrHasActiveSubscription возвращается при попытке удалить пользователя
// с действующей подпиской.
var ErrHasActiveSubscription = errors.New("user has an active subscription")

// Repository описывает методы хранилища для работы с пользователями.
type Repository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUser(ctx context.Context, id int) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	UpdateUser(ctx context.Context, id int, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id int) error
	HasActiveSubscription(ctx context.Context, userID int) (bool, error)
}

// Service реализует операции над учетными записями.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Register создает пользователя с хэшированием пароля.
// Пароль никогда не сохраняется и не логируется в открытом виде.
func (s *Service) Register(ctx context.Context, email, name, rawPassword string) (*models.User, error) {
	const op = "user.Register"
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.repo.CreateUser(ctx, models.User{
		Email:        email,
		Name:         name,
		PasswordHash: hashed,
		IsActive:     true,
		IsAdmin:      false,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("registered new user", slog.Int("id", created.ID))
	return created, nil
}

// Get возвращает пользователя по ID.
func (s *Service) Get(ctx context.Context, id int) (*models.User, error) {
	return s.repo.GetUser(ctx, id)
}

// List возвращает пользователей с пагинацией.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	return s.repo.ListUsers(ctx, limit, offset)
}

// Update применяет частичное обновление: непереданные поля не меняются.
func (s *Service) Update(ctx context.Context, id int, patch models.UserPatch) (*models.User, error) {
	const op = "user.Update"
	updated, err := s.repo.UpdateUser(ctx, id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// Delete удаляет пользователя. Удаление отклоняется, пока есть активная
// подписка; неактивные исторические подписки удаляются каскадно схемой.
func (s *Service) Delete(ctx context.Context, id int) error {
	const op = "user.Delete"
	active, err := s.repo.HasActiveSubscription(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if active {
		return fmt.Errorf("%s: %w", op, ErrHasActiveSubscription)
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("deleted user", slog.Int("id", id))
	return nil
}
