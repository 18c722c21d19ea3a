package dispatcher

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// Request is the transport-independent view of an inbound request. Body
// holds the fully buffered request body.
type Request struct {
	Path    string
	Method  Method
	Query   url.Values
	Headers http.Header
	Body    []byte
}

// Decode unmarshals the request body into a T. A missing or malformed body
// yields the zero T, so handlers see absent fields rather than a parse error.
func Decode[T any](r *Request) T {
	var v T
	if len(r.Body) == 0 {
		return v
	}
	if err := json.Unmarshal(r.Body, &v); err != nil {
		var zero T
		return zero
	}
	return v
}

// NormalizePath strips leading and trailing slashes, so "/api/users/" and
// "api/users" name the same route.
func NormalizePath(p string) string {
	return strings.Trim(p, "/")
}
