// Package auth содержит бизнес-логику аутентификации: вход по email и паролю
// и разрешение предъявленного токена в пользователя.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/avdeev-lv/subscription-manager/internal/lib/jwt"
	"github.com/avdeev-lv/subscription-manager/internal/lib/password"
	"github.com/avdeev-lv/subscription-manager/internal/models"
)

// ErrInvalidCredentials возвращается при любой неудаче входа: неизвестный email
// или неверный пароль. Единое сообщение не позволяет перебирать учетные записи.
var ErrInvalidCredentials = errors.New("incorrect username or password")

// UserRepository описывает доступ к пользователям, нужный аутентификации.
type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Service отвечает за вход и проверку токенов.
type Service struct {
	users    UserRepository
	jwtMaker jwt.Maker
}

// New создает новый экземпляр Service.
func New(users UserRepository, jwtMaker jwt.Maker) *Service {
	return &Service{
		users:    users,
		jwtMaker: jwtMaker,
	}
}

// Login проверяет пароль пользователя и возвращает токен доступа.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (string, error) {
	const op = "auth.Login"
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	token, err := s.jwtMaker.GenerateToken(user.Email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// ResolveToken проверяет токен и возвращает пользователя из subject.
// Любая причина отказа (подпись, срок, неизвестный subject) сводится
// к jwt.ErrInvalidToken.
func (s *Service) ResolveToken(ctx context.Context, token string) (*models.User, error) {
	const op = "auth.ResolveToken"
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, jwt.ErrInvalidToken)
	}
	user, err := s.users.GetUserByEmail(ctx, claims.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, jwt.ErrInvalidToken)
	}
	return user, nil
}
