package main

import (
	"fmt"
	"net/http"
	"strings"
)

// Supported access token carriers.
const (
	CookieCarrier = "cookie"
	HeaderCarrier = "header"
)

// NewTokenCarrier builds the carrier named in the auth configuration.
func NewTokenCarrier(config *AuthConfig) (TokenCarrier, error) {
	switch config.Carrier {
	case CookieCarrier, "":
		return &cookieCarrier{name: config.CookieName, secure: config.CookieSecure}, nil
	case HeaderCarrier:
		return &headerCarrier{}, nil
	}
	return nil, fmt.Errorf("unknown token carrier %q", config.Carrier)
}

// cookieCarrier delivers the token in an http-only cookie.
type cookieCarrier struct {
	name   string
	secure bool
}

func (c *cookieCarrier) Attach(w http.ResponseWriter, token AccessToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    token.Value,
		Path:     "/",
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *cookieCarrier) Extract(r *http.Request) (string, error) {
	cookie, err := r.Cookie(c.name)
	if err != nil || cookie.Value == "" {
		return "", ErrNoAuthToken
	}
	return cookie.Value, nil
}

// headerCarrier expects the token as `Authorization: Bearer <token>`.
// Clients keep the token from the login response body.
type headerCarrier struct{}

func (h *headerCarrier) Attach(http.ResponseWriter, AccessToken) {}

func (h *headerCarrier) Extract(r *http.Request) (string, error) {
	value := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(value, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrNoAuthToken
	}
	return strings.TrimSpace(token), nil
}
