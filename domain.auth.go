package main

import (
	"context"
	"net/http"
	"time"
)

// LoginInput is the credentials payload of a login request. Empty values
// are compared like any other so they end as an authentication failure.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AccessToken is a signed token bound to a user identifier.
type AccessToken struct {
	Value     string    `json:"access_token"`
	UID       string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// CredentialStore resolves a credentials pair to a user identifier.
// It returns ErrInvalidCredentials when the pair does not match.
type CredentialStore interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
}

// TokenIssuer mints and verifies access tokens.
type TokenIssuer interface {
	Issue(uid string) (AccessToken, error)
	Verify(token string) (string, error)
}

// TokenCarrier binds access tokens to the transport. It attaches
// a freshly minted token to a response and extracts it from requests.
type TokenCarrier interface {
	Attach(w http.ResponseWriter, token AccessToken)
	Extract(r *http.Request) (string, error)
}
