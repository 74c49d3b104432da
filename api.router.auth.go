package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupAuthRoutes injects login and token protected endpoints.
func (api *APIHandler) SetupAuthRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.POST("/login", m.public(api.Login))
	router.GET("/protected", m.public(api.RequireTokenMiddleware(api.Protected)))
	return router
}
