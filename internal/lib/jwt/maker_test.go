package jwt

import (
	"errors"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func TestGenerateAndParseToken(t *testing.T) {
	maker := NewMaker(testSecret, 30*time.Minute)

	token, err := maker.GenerateToken("user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "user@example.com", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestParseToken_Expired(t *testing.T) {
	maker := NewMaker(testSecret, -time.Minute)

	token, err := maker.GenerateToken("user@example.com")
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_WrongSecret(t *testing.T) {
	maker := NewMaker(testSecret, 30*time.Minute)
	other := NewMaker("another-secret", 30*time.Minute)

	token, err := maker.GenerateToken("user@example.com")
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Garbage(t *testing.T) {
	maker := NewMaker(testSecret, 30*time.Minute)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := maker.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestParseToken_WrongSigningMethod(t *testing.T) {
	maker := NewMaker(testSecret, 30*time.Minute)

	// alg=none отклоняется независимо от содержимого claims
	unsigned := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, jwtlib.RegisteredClaims{
		Subject:   "user@example.com",
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
	})
	token, err := unsigned.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_EmptySubject(t *testing.T) {
	maker := NewMaker(testSecret, 30*time.Minute)

	raw := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.RegisteredClaims{
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
	})
	token, err := raw.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_SingleFailureMode(t *testing.T) {
	// Все причины отказа сводятся к одной ошибке.
	maker := NewMaker(testSecret, -time.Minute)
	expired, err := maker.GenerateToken("user@example.com")
	require.NoError(t, err)

	_, errExpired := NewMaker(testSecret, time.Minute).ParseToken(expired)
	_, errGarbage := NewMaker(testSecret, time.Minute).ParseToken("garbage")

	assert.True(t, errors.Is(errExpired, ErrInvalidToken))
	assert.True(t, errors.Is(errGarbage, ErrInvalidToken))
}
