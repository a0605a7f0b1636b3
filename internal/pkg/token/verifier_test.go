package token

import (
	"testing"
	"time"

	"learnera-be/internal/pkg/apperrors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestVerify_ValidToken(t *testing.T) {
	v := NewVerifier(testSecret)

	tokenStr := signToken(t, testSecret, jwt.MapClaims{
		"user_id": 42,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	userId, err := v.Verify(tokenStr)
	assert.NoError(t, err)
	assert.Equal(t, uint(42), userId)
}

func TestVerify_ExpiredToken(t *testing.T) {
	v := NewVerifier(testSecret)

	tokenStr := signToken(t, testSecret, jwt.MapClaims{
		"user_id": 42,
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	_, err := v.Verify(tokenStr)
	assert.Error(t, err)
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))
}

func TestVerify_WrongSecret(t *testing.T) {
	v := NewVerifier(testSecret)

	tokenStr := signToken(t, "another-secret", jwt.MapClaims{
		"user_id": 42,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	_, err := v.Verify(tokenStr)
	assert.Error(t, err)
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))
}

func TestVerify_Garbage(t *testing.T) {
	v := NewVerifier(testSecret)

	for _, tokenStr := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := v.Verify(tokenStr)
		assert.Error(t, err, "token %q should be rejected", tokenStr)
		assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))
	}
}

func TestVerify_MissingUserIdClaim(t *testing.T) {
	v := NewVerifier(testSecret)

	tokenStr := signToken(t, testSecret, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := v.Verify(tokenStr)
	assert.Error(t, err)
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))
}
