package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// login calls the login handler and returns the recorded response.
func login(t *testing.T, api *APIHandler, payload string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(payload))
	w := httptest.NewRecorder()
	api.Login(w, req, httprouter.Params{})
	return w
}

func TestLoginHandler(t *testing.T) {
	api := newTestAPIHandler(t, nil)

	t.Run("should pass: default credentials", func(t *testing.T) {
		w := login(t, api, `{"username":"test","password":"test"}`)
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
		require.NotEmpty(t, body["access_token"])
		assert.Len(t, body, 1)

		cookies := res.Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "my_access_token", cookies[0].Name)
		assert.Equal(t, body["access_token"], cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("should pass: unknown fields are ignored", func(t *testing.T) {
		w := login(t, api, `{"username":"test","password":"test","role":"admin"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, w.Result().Cookies(), 1)
	})

	testCases := []struct {
		name    string
		payload string
		status  int
		message string
	}{
		{"should fail: wrong credentials", `{"username":"x","password":"y"}`, http.StatusUnauthorized, "incorrect login or password"},
		{"should fail: wrong password", `{"username":"test","password":"nope"}`, http.StatusUnauthorized, "incorrect login or password"},
		{"should fail: empty password", `{"username":"test","password":""}`, http.StatusUnauthorized, "incorrect login or password"},
		{"should fail: empty username", `{"username":"","password":"test"}`, http.StatusUnauthorized, "incorrect login or password"},
		{"should fail: missing password", `{"username":"test"}`, http.StatusUnprocessableEntity, "failed to log in"},
		{"should fail: case folded keys", `{"USERNAME":"test","Password":"test"}`, http.StatusUnprocessableEntity, "failed to log in"},
		{"should fail: malformed body", `username=test`, http.StatusUnprocessableEntity, "failed to log in"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := login(t, api, tc.payload)
			assert.Equal(t, tc.status, w.Code)
			assert.Empty(t, w.Result().Cookies())
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tc.message, body["message"])
		})
	}
}

func TestProtectedRoute(t *testing.T) {
	api := newTestAPIHandler(t, nil)
	router := api.SetupRoutes(httprouter.New(), &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain})

	w := login(t, api, `{"username":"test","password":"test"}`)
	require.Equal(t, http.StatusOK, w.Code)
	cookie := w.Result().Cookies()[0]

	expiredIssuer, err := NewJWTTokenIssuer(testSecret, time.Minute, &MockClocker{NewMockClocker().Now().Add(-time.Hour)})
	require.NoError(t, err)
	expired, err := expiredIssuer.Issue("12345")
	require.NoError(t, err)

	otherIssuer, err := NewJWTTokenIssuer("another-secret", time.Minute, NewMockClocker())
	require.NoError(t, err)
	forged, err := otherIssuer.Issue("12345")
	require.NoError(t, err)

	testCases := []struct {
		name   string
		cookie *http.Cookie
		status int
	}{
		{"should pass: valid token", cookie, http.StatusOK},
		{"should fail: no cookie", nil, http.StatusUnauthorized},
		{"should fail: malformed token", &http.Cookie{Name: "my_access_token", Value: "not-a-jwt"}, http.StatusUnauthorized},
		{"should fail: expired token", &http.Cookie{Name: "my_access_token", Value: expired.Value}, http.StatusUnauthorized},
		{"should fail: foreign signature", &http.Cookie{Name: "my_access_token", Value: forged.Value}, http.StatusUnauthorized},
		{"should fail: other cookie name", &http.Cookie{Name: "token", Value: cookie.Value}, http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				var resp ProtectedResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, "12345", resp.UID)
				assert.Equal(t, "TOP SECRET KEY", resp.Data)
			}
		})
	}
}
