package main

import (
	"net/http"

	_ "github.com/jeamon/books-catalog/docs"
	"github.com/julienschmidt/httprouter"
	httpswagger "github.com/swaggo/http-swagger/v2"
)

// SetupRoutes injects book, auth and ops related endpoints if required.
func (api *APIHandler) SetupRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.NotFound = http.HandlerFunc(api.NotFound)
	api.SetupBookRoutes(router, m)
	api.SetupAuthRoutes(router, m)
	if api.config.Ops.Enable {
		api.SetupOpsRoutes(router, m)
	}
	router.GET("/swagger/*any", m.public(api.OpsHandlerWrapper(httpswagger.WrapHandler)))
	return router
}
