package token

import (
	"fmt"

	"learnera-be/internal/pkg/apperrors"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates HMAC-signed access tokens and extracts the numeric
// user_id claim. Expiry is enforced by the jwt library during Parse.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify returns the user id carried by the token. Malformed, expired and
// badly-signed tokens all collapse into a single auth error; the gateway
// closes with the same code for each.
func (v *Verifier) Verify(tokenStr string) (uint, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, apperrors.Wrap(apperrors.KindAuth, "invalid or expired token", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, apperrors.New(apperrors.KindAuth, "invalid token claims")
	}

	// JSON numbers decode as float64
	rawID, ok := claims["user_id"].(float64)
	if !ok || rawID <= 0 {
		return 0, apperrors.New(apperrors.KindAuth, "token missing user_id")
	}

	return uint(rawID), nil
}
