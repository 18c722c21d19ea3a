// Package dispatcher turns HTTP requests into Requests, routes them through
// a Registry and writes each handler's Response exactly once.
package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"

	"github.com/go-api-flatfile/internal/logging"
)

// DefaultMaxBodyBytes caps buffered request bodies when no limit is given.
const DefaultMaxBodyBytes = 2 << 20

type Dispatcher struct {
	registry *Registry
	maxBody  int64
	log      logging.Logger
}

func New(registry *Registry, maxBody int64, log logging.Logger) *Dispatcher {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Dispatcher{registry: registry, maxBody: maxBody, log: log.With("component", "dispatcher")}
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, d.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			d.write(ctx, w, Error(http.StatusBadRequest, fmt.Sprintf("request body exceeds %d bytes", d.maxBody)))
			return
		}
		d.write(ctx, w, Error(http.StatusBadRequest, "could not read request body"))
		return
	}

	req := &Request{
		Path:    NormalizePath(r.URL.Path),
		Method:  ParseMethod(r.Method),
		Query:   r.URL.Query(),
		Headers: r.Header,
		Body:    body,
	}
	d.write(ctx, w, d.Dispatch(ctx, req))
}

// Dispatch routes req and returns the handler's Response. Unknown paths get
// 404. A panicking handler gets 500 for this request only.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) (resp Response) {
	h, ok := d.registry.Lookup(req.Path)
	if !ok {
		return notFound
	}
	defer func() {
		if rec := recover(); rec != nil {
			d.log.Error(ctx, "handler panicked", "path", req.Path, "method", req.Method.String(),
				"panic", rec, "stack", string(debug.Stack()))
			resp = internalError
		}
	}()
	return h.Serve(ctx, req)
}

func (d *Dispatcher) write(ctx context.Context, w http.ResponseWriter, resp Response) {
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}

	var body []byte
	switch resp.Kind {
	case ContentHTML:
		switch p := resp.Payload.(type) {
		case nil:
		case string:
			body = []byte(p)
		case []byte:
			body = p
		default:
			body = []byte(fmt.Sprint(p))
		}
	default:
		resp.Kind = ContentJSON
		payload := resp.Payload
		if payload == nil {
			payload = struct{}{}
		}
		b, err := json.Marshal(payload)
		if err != nil {
			d.log.Error(ctx, "could not encode response", "err", err)
			status = http.StatusInternalServerError
			b, _ = json.Marshal(internalError.Payload)
		}
		body = b
	}

	w.Header().Set("Content-Type", resp.Kind.contentType())
	w.WriteHeader(status)
	_, _ = w.Write(body)

	d.log.Debug(ctx, "returning response", "status", status, "bytes", len(body))
}
