package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService issues and verifies HMAC-signed JWTs whose subject is the
// admin identity.
type TokenService struct {
	secret   []byte
	method   *jwt.SigningMethodHMAC
	lifetime time.Duration
	now      func() time.Time
}

func NewTokenService(secret, algorithm string, lifetime time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is empty")
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if lifetime <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive")
	}
	return &TokenService{
		secret:   []byte(secret),
		method:   method,
		lifetime: lifetime,
		now:      time.Now,
	}, nil
}

func (t *TokenService) Lifetime() time.Duration {
	return t.lifetime
}

// Issue signs a token for identity that expires after the configured
// lifetime.
func (t *TokenService) Issue(identity string) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   identity,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.lifetime)),
	}
	signed, err := jwt.NewWithClaims(t.method, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the identity embedded in a valid token. Any failure
// (malformed, wrong algorithm, bad signature, expired, no subject) yields
// ok == false.
func (t *TokenService) Verify(tokenString string) (identity string, ok bool) {
	if tokenString == "" {
		return "", false
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{t.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", false
	}
	return claims.Subject, true
}
