package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var _ TokenIssuer = (*JWTTokenIssuer)(nil) // ensure JWTTokenIssuer implements TokenIssuer.

// JWTTokenIssuer mints HS256 signed JWTs carrying the user identifier
// as subject. Tokens are stateless and never stored server-side.
type JWTTokenIssuer struct {
	secret []byte
	ttl    time.Duration
	clock  Clocker
}

// NewJWTTokenIssuer provides an issuer signing with the given secret.
func NewJWTTokenIssuer(secret string, ttl time.Duration, clock Clocker) (*JWTTokenIssuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("tokens: empty signing secret")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("tokens: invalid token lifetime %s", ttl)
	}
	return &JWTTokenIssuer{secret: []byte(secret), ttl: ttl, clock: clock}, nil
}

// Issue creates a signed access token for uid.
func (j *JWTTokenIssuer) Issue(uid string) (AccessToken, error) {
	now := j.clock.Now()
	expiresAt := now.Add(j.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   uid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return AccessToken{}, fmt.Errorf("tokens: sign: %w", err)
	}
	return AccessToken{Value: signed, UID: uid, ExpiresAt: expiresAt}, nil
}

// Verify checks the token signature and expiry then returns its subject.
// Every failure wraps ErrInvalidAuthToken.
func (j *JWTTokenIssuer) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return j.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAuthToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidAuthToken)
	}
	return claims.Subject, nil
}
