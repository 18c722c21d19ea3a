package dispatcher

import (
	"context"
	"fmt"
)

// Handler produces exactly one Response per Request.
type Handler interface {
	Serve(ctx context.Context, req *Request) Response
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req *Request) Response

func (f HandlerFunc) Serve(ctx context.Context, req *Request) Response { return f(ctx, req) }

// Resource has one operation per verb.
type Resource interface {
	Post(ctx context.Context, req *Request) Response
	Get(ctx context.Context, req *Request) Response
	Put(ctx context.Context, req *Request) Response
	Delete(ctx context.Context, req *Request) Response
}

// Verbs turns a Resource into a Handler that dispatches on the request
// method and answers 405 for any other verb.
func Verbs(res Resource) Handler {
	return HandlerFunc(func(ctx context.Context, req *Request) Response {
		switch req.Method {
		case MethodPost:
			return res.Post(ctx, req)
		case MethodGet:
			return res.Get(ctx, req)
		case MethodPut:
			return res.Put(ctx, req)
		case MethodDelete:
			return res.Delete(ctx, req)
		default:
			return methodNotAllowed
		}
	})
}

// Registry maps normalized paths to handlers. It is built once at startup
// and read-only afterwards.
type Registry struct {
	routes map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{routes: make(map[string]Handler)}
}

// Handle registers h for path. Registering the same path twice panics.
func (r *Registry) Handle(path string, h Handler) {
	p := NormalizePath(path)
	if _, dup := r.routes[p]; dup {
		panic(fmt.Sprintf("dispatcher: duplicate route %q", p))
	}
	r.routes[p] = h
}

// Lookup returns the handler registered for path, if any.
func (r *Registry) Lookup(path string) (Handler, bool) {
	h, ok := r.routes[NormalizePath(path)]
	return h, ok
}
