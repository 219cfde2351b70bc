// Package storage определяет общие ошибки слоя хранения.
//
// Репозитории приводят ошибки драйвера к этим значениям, сервисы проверяют их
// через errors.Is, а HTTP-обработчики транслируют в статус-коды.
package storage

import "errors"

var (
	// ErrNotFound — запрошенная запись отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email, имя плана).
	ErrAlreadyExists = errors.New("already exists")
	// ErrActiveSubscriptionExists — нарушение частичного уникального индекса:
	// у пользователя уже есть активная подписка.
	ErrActiveSubscriptionExists = errors.New("active subscription already exists")
	// ErrReferenced — запись нельзя удалить, на неё ссылаются другие записи.
	ErrReferenced = errors.New("referenced by existing records")
)
