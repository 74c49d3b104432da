package main

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// ProtectedResponse is the payload served to authenticated users.
type ProtectedResponse struct {
	Data string `json:"data"`
	UID  string `json:"uid"`
}

// Login exchanges valid credentials against an access token. The token is
// returned in the body and attached to the response by the configured carrier.
//
//	@Summary	Log in
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		credentials	body		LoginInput	true	"user credentials"
//	@Success	200			{object}	AccessToken
//	@Failure	401			{object}	APIError
//	@Failure	422			{object}	APIError
//	@Router		/login [post]
func (api *APIHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input LoginInput
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	if err := DecodeLoginInput(r, &input); err != nil {
		api.logger.Error("failed to decode login request", zap.String("request.id", requestID), zap.Error(err))
		api.writeError(w, r, err, "failed to log in")
		return
	}

	token, err := api.authService.Login(r.Context(), input)
	if err != nil {
		api.logger.Warn("failed to log in", zap.String("request.id", requestID), zap.Error(err))
		message := "failed to log in"
		if errors.Is(err, ErrUnauthenticated) {
			message = "incorrect login or password"
		}
		api.writeError(w, r, err, message)
		return
	}

	api.carrier.Attach(w, token)
	if err = WriteJSON(r.Context(), w, http.StatusOK, token); err != nil {
		api.logger.Error("failed to send login response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// Protected is only reachable with a valid access token.
//
//	@Summary	Check user access
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	ProtectedResponse
//	@Failure	401	{object}	APIError
//	@Router		/protected [get]
func (api *APIHandler) Protected(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	resp := ProtectedResponse{
		Data: "TOP SECRET KEY",
		UID:  GetValueFromContext(r.Context(), UIDContextKey),
	}
	if err := WriteJSON(r.Context(), w, http.StatusOK, resp); err != nil {
		api.logger.Error("failed to send protected response", zap.String("request.id", requestID), zap.Error(err))
	}
}
