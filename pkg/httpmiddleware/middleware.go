// Package httpmiddleware provides net/http middleware for the outer server:
// panic recovery, CORS, rate limiting, request IDs, logging, and metrics.
package httpmiddleware

import "net/http"

// Middleware wraps an http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Wrap applies middlewares to h. The first middleware listed is the
// outermost, i.e. it runs first on the way in.
func Wrap(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
