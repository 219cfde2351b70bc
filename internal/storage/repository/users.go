package repository

import (
	"context"
	"fmt"

	"github.com/avdeev-lv/subscription-manager/internal/models"
	"github.com/avdeev-lv/subscription-manager/internal/storage"
)

// CreateUser сохраняет нового пользователя и возвращает запись целиком.
// Нарушение уникальности email возвращается как storage.ErrAlreadyExists.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (email, name, password_hash, is_active, is_admin)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id, email, name, password_hash, is_active, is_admin, created_at`
	row := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Name, user.PasswordHash, user.IsActive, user.IsAdmin)

	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash,
		&u.IsActive, &u.IsAdmin, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &u, nil
}

// GetUser возвращает пользователя по ID.
func (s *Storage) GetUser(ctx context.Context, id int) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, email, name, password_hash, is_active, is_admin, created_at
			  FROM users
			  WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash,
		&u.IsActive, &u.IsAdmin, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &u, nil
}

// GetUserByEmail возвращает пользователя по email. Используется аутентификацией,
// наружу в API не выставляется.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, email, name, password_hash, is_active, is_admin, created_at
			  FROM users
			  WHERE email = $1`
	row := s.DB.QueryRowContext(ctx, query, email)

	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash,
		&u.IsActive, &u.IsAdmin, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &u, nil
}

// ListUsers возвращает пользователей с пагинацией в порядке создания.
func (s *Storage) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, email, name, password_hash, is_active, is_admin, created_at
			  FROM users
			  ORDER BY id
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash,
			&u.IsActive, &u.IsAdmin, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateUser применяет частичное обновление: nil-поля сохраняют прежние значения.
func (s *Storage) UpdateUser(ctx context.Context, id int, patch models.UserPatch) (*models.User, error) {
	const op = "storage.UpdateUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET name = COALESCE($1, name),
			      email = COALESCE($2, email)
			  WHERE id = $3
			  RETURNING id, email, name, password_hash, is_active, is_admin, created_at`
	row := s.DB.QueryRowContext(ctx, query, patch.Name, patch.Email, id)

	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash,
		&u.IsActive, &u.IsAdmin, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &u, nil
}

// DeleteUser удаляет пользователя. Исторические подписки удаляются каскадно
// на уровне схемы; проверка на активную подписку выполняется сервисом.
func (s *Storage) DeleteUser(ctx context.Context, id int) error {
	const op = "storage.DeleteUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return nil
}
