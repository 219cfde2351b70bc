package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims содержит данные, хранящиеся в токене доступа.
// Email дублируется в Subject стандартных claims.
type Claims struct {
	Email                string `json:"email"`
	jwt.RegisteredClaims        // ExpiresAt, IssuedAt, Subject, ID и пр.
}

// ErrInvalidToken возвращается при любой причине отказа: неверная подпись,
// истекший срок, битый payload, пустой subject. Причина не различается,
// чтобы не раскрывать клиенту детали отказа.
var ErrInvalidToken = errors.New("invalid token")

// GenerateToken выпускает токен с subject = email, подписанный секретным ключом.
func (j *MakerImpl) GenerateToken(email string) (string, error) {
	const op = "jwt.GenerateToken"
	now := time.Now().UTC()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken парсит токен, проверяет подпись и срок действия.
// Любая ошибка проверки сводится к ErrInvalidToken.
func (j *MakerImpl) ParseToken(tokenStr string) (*Claims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	if claims.Email == "" {
		claims.Email = claims.Subject
	}
	return claims, nil
}
