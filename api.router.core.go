package main

import (
	"github.com/julienschmidt/httprouter"
)

// MiddlewareMap contains the middlewares chains to
// use for public-facing and ops requests.
type MiddlewareMap struct {
	public func(httprouter.Handle) httprouter.Handle
	ops    func(httprouter.Handle) httprouter.Handle
}
