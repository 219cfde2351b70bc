// Package jwt реализует выпуск и проверку JWT токенов доступа.
//
// Токен подписывается алгоритмом HS256 и несет в subject email пользователя.
// Срок жизни токена фиксирован и задается конфигурацией.
package jwt

import (
	"time"
)

// Maker описывает интерфейс выпуска и проверки токенов.
type Maker interface {
	// GenerateToken выпускает токен с subject = email пользователя.
	GenerateToken(email string) (string, error)
	// ParseToken проверяет подпись и срок действия, возвращает claims.
	ParseToken(tokenStr string) (*Claims, error)
}

// MakerImpl реализует Maker на секретном ключе и TTL.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewMaker создаёт новый экземпляр MakerImpl.
func NewMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
