// Package repository реализует хранилище данных на основе PostgreSQL
// для пользователей, тарифных планов и подписок.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/avdeev-lv/subscription-manager/internal/storage"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.repository.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{DB: db}, nil
}

// mapError приводит ошибки драйвера к ошибкам пакета storage.
// Нарушение частичного индекса uniq_active_subscription_per_user отличается
// от прочих уникальных нарушений по имени ограничения.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			if pgErr.ConstraintName == "uniq_active_subscription_per_user" {
				return storage.ErrActiveSubscriptionExists
			}
			return storage.ErrAlreadyExists
		case pgerrcode.ForeignKeyViolation:
			return storage.ErrReferenced
		}
	}
	return err
}
