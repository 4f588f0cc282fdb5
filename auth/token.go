package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"whisperwall/domain"
	"whisperwall/errors"
)

const issuer = "whisperwall"

// Claims only carry the code of the session, as the subject.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenManager signs and verifies session tokens with HS256.
type TokenManager struct {
	secret   []byte
	duration time.Duration
}

func NewTokenManager(secret []byte, duration time.Duration) TokenManager {
	return TokenManager{secret: secret, duration: duration}
}

// Generate creates a signed token for the code.
func (m TokenManager) Generate(code domain.Code) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   code.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrTokenGeneration, err)
	}
	return signed, nil
}

// Validate parses the token, checks its signature and expiration and
// returns the code it was issued for.
func (m TokenManager) Validate(tokenString string) (domain.Code, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", errors.ErrInvalidToken
	}
	code, err := domain.ParseCode(claims.Subject)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}
	return code, nil
}
