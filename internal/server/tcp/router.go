package tcp

import (
	"context"
	"fmt"

	"auboutique/internal/httpwire"
	"auboutique/internal/logging"
)

// HandlerFunc processes one decoded request and produces a response.
type HandlerFunc func(ctx context.Context, req *httpwire.Request) *httpwire.Response

// Router maps exact (method, path) pairs to handlers. Routing is static
// and case-sensitive; all routes are verb-shaped, so there are no path
// parameters.
type Router struct {
	routes map[string]HandlerFunc
	logger logging.Logger
}

func NewRouter(logger logging.Logger) *Router {
	return &Router{
		routes: make(map[string]HandlerFunc),
		logger: logger.With("module", "router"),
	}
}

// Register binds a handler to a method and path. Registration happens at
// startup only; the map is read-only afterwards.
func (r *Router) Register(method, path string, h HandlerFunc) {
	r.routes[method+" "+path] = h
}

// Dispatch finds the handler for the request and invokes it. An unknown
// route yields 404; a panicking handler yields 500 and the panic is
// logged, not propagated.
func (r *Router) Dispatch(ctx context.Context, req *httpwire.Request) (resp *httpwire.Response) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error(ctx, "handler panic", "method", req.Method, "path", req.Path, "panic", fmt.Sprint(rec))
			resp = httpwire.JSON(500, messageBody{Message: "internal error"})
		}
	}()

	h, ok := r.routes[req.Method+" "+req.Path]
	if !ok {
		return httpwire.JSON(404, messageBody{Message: "Not found"})
	}
	return h(ctx, req)
}
