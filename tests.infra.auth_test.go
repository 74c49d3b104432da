package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTTokenIssuer(t *testing.T) {
	clock := NewMockClocker()
	issuer, err := NewJWTTokenIssuer(testSecret, 15*time.Minute, clock)
	require.NoError(t, err)

	token, err := issuer.Issue("12345")
	require.NoError(t, err)
	assert.Equal(t, "12345", token.UID)
	assert.Equal(t, clock.Now().Add(15*time.Minute), token.ExpiresAt)

	t.Run("valid token", func(t *testing.T) {
		uid, err := issuer.Verify(token.Value)
		assert.NoError(t, err)
		assert.Equal(t, "12345", uid)
	})

	t.Run("expired token", func(t *testing.T) {
		clock.MockNow = clock.MockNow.Add(16 * time.Minute)
		defer func() { clock.MockNow = clock.MockNow.Add(-16 * time.Minute) }()
		_, err := issuer.Verify(token.Value)
		assert.ErrorIs(t, err, ErrInvalidAuthToken)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("tampered token", func(t *testing.T) {
		_, err := issuer.Verify(token.Value + "x")
		assert.ErrorIs(t, err, ErrInvalidAuthToken)
	})
}

func TestNewJWTTokenIssuer_InvalidSettings(t *testing.T) {
	_, err := NewJWTTokenIssuer("", time.Minute, NewMockClocker())
	assert.Error(t, err)
	_, err = NewJWTTokenIssuer(testSecret, 0, NewMockClocker())
	assert.Error(t, err)
}

func TestStaticCredentialStore(t *testing.T) {
	store := NewStaticCredentialStore([]UserConfig{
		{Username: "test", Password: "test", UID: "12345"},
		{Username: "admin", Password: "s3cret", UID: "1"},
	})

	uid, err := store.Authenticate(context.Background(), "admin", "s3cret")
	assert.NoError(t, err)
	assert.Equal(t, "1", uid)

	_, err = store.Authenticate(context.Background(), "admin", "test")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = store.Authenticate(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestTokenCarriers(t *testing.T) {
	token := AccessToken{Value: "abc.def.ghi", UID: "12345", ExpiresAt: NewMockClocker().Now()}

	t.Run("cookie carrier", func(t *testing.T) {
		carrier, err := NewTokenCarrier(&AuthConfig{Carrier: CookieCarrier, CookieName: "my_access_token"})
		require.NoError(t, err)
		w := httptest.NewRecorder()
		carrier.Attach(w, token)
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		for _, c := range w.Result().Cookies() {
			req.AddCookie(c)
		}
		value, err := carrier.Extract(req)
		assert.NoError(t, err)
		assert.Equal(t, token.Value, value)

		_, err = carrier.Extract(httptest.NewRequest(http.MethodGet, "/protected", nil))
		assert.ErrorIs(t, err, ErrNoAuthToken)
	})

	t.Run("header carrier", func(t *testing.T) {
		carrier, err := NewTokenCarrier(&AuthConfig{Carrier: HeaderCarrier})
		require.NoError(t, err)
		w := httptest.NewRecorder()
		carrier.Attach(w, token)
		assert.Empty(t, w.Result().Cookies())

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token.Value)
		value, err := carrier.Extract(req)
		assert.NoError(t, err)
		assert.Equal(t, token.Value, value)

		req.Header.Set("Authorization", "Basic dGVzdDp0ZXN0")
		_, err = carrier.Extract(req)
		assert.ErrorIs(t, err, ErrNoAuthToken)
	})

	t.Run("unknown carrier", func(t *testing.T) {
		_, err := NewTokenCarrier(&AuthConfig{Carrier: "query"})
		assert.Error(t, err)
	})
}
