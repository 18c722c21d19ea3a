package dispatcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoBody struct {
	Name string `json:"name"`
}

// recorder is a Resource that answers with the verb it was called for.
type recorder struct{}

func (recorder) Post(_ context.Context, r *Request) Response {
	return JSON(http.StatusCreated, map[string]string{"verb": "post", "name": Decode[echoBody](r).Name})
}
func (recorder) Get(_ context.Context, r *Request) Response {
	return JSON(0, map[string]string{"verb": "get", "q": r.Query.Get("q"), "token": r.Headers.Get("token")})
}
func (recorder) Put(context.Context, *Request) Response    { return Response{} }
func (recorder) Delete(context.Context, *Request) Response { return HTML(http.StatusOK, "<p>gone</p>") }

func newDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	reg := NewRegistry()
	reg.Handle("/api/things/", Verbs(recorder{}))
	reg.Handle("boom", HandlerFunc(func(context.Context, *Request) Response { panic("kaboom") }))
	return New(reg, 64, nil)
}

func serve(d *Dispatcher, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("token", "abc")
	w := httptest.NewRecorder()
	d.ServeHTTP(w, req)
	return w
}

func TestParseMethod(t *testing.T) {
	assert.Equal(t, MethodPost, ParseMethod("POST"))
	assert.Equal(t, MethodGet, ParseMethod("get"))
	assert.Equal(t, MethodPut, ParseMethod("Put"))
	assert.Equal(t, MethodDelete, ParseMethod("DELETE"))
	assert.Equal(t, MethodUnknown, ParseMethod("PATCH"))
	assert.Equal(t, MethodUnknown, ParseMethod(""))
	assert.Equal(t, "unknown", MethodUnknown.String())
}

func TestNormalizePath(t *testing.T) {
	for _, p := range []string{"api/users", "/api/users", "/api/users/", "//api/users//"} {
		assert.Equal(t, "api/users", NormalizePath(p))
	}
	assert.Equal(t, "", NormalizePath("/"))
}

func TestServeHTTP_RoutesByVerb(t *testing.T) {
	d := newDispatcher(t)

	w := serve(d, http.MethodPost, "/api/things", `{"name":"widget"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"verb":"post","name":"widget"}`, w.Body.String())

	w = serve(d, http.MethodGet, "/api/things/?q=x", "")
	assert.Equal(t, http.StatusOK, w.Code, "zero status defaults to 200")
	assert.JSONEq(t, `{"verb":"get","q":"x","token":"abc"}`, w.Body.String())
}

func TestServeHTTP_Defaults(t *testing.T) {
	d := newDispatcher(t)
	w := serve(d, http.MethodPut, "/api/things", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{}`, w.Body.String())
}

func TestServeHTTP_HTML(t *testing.T) {
	d := newDispatcher(t)
	w := serve(d, http.MethodDelete, "/api/things", "")
	assert.Equal(t, "text/html", w.Header().Get("Content-Type"))
	assert.Equal(t, "<p>gone</p>", w.Body.String())
}

func TestServeHTTP_NotFoundAndMethodNotAllowed(t *testing.T) {
	d := newDispatcher(t)

	w := serve(d, http.MethodGet, "/api/nothing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())

	w = serve(d, http.MethodPatch, "/api/things", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServeHTTP_MalformedBodyIsEmpty(t *testing.T) {
	d := newDispatcher(t)
	w := serve(d, http.MethodPost, "/api/things", `{"name": nope`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"verb":"post","name":""}`, w.Body.String())
}

func TestServeHTTP_BodyTooLarge(t *testing.T) {
	d := newDispatcher(t)
	w := serve(d, http.MethodPost, "/api/things", `{"name":"`+strings.Repeat("x", 100)+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "exceeds")
}

func TestServeHTTP_PanicIsContained(t *testing.T) {
	d := newDispatcher(t)

	w := serve(d, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())

	w = serve(d, http.MethodGet, "/api/things", "")
	assert.Equal(t, http.StatusOK, w.Code, "dispatcher keeps serving after a panic")
}

func TestServeHTTP_UnencodablePayload(t *testing.T) {
	reg := NewRegistry()
	reg.Handle("bad", HandlerFunc(func(context.Context, *Request) Response {
		return JSON(http.StatusOK, map[string]any{"f": func() {}})
	}))
	w := serve(New(reg, 0, nil), http.MethodGet, "/bad", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	reg := NewRegistry()
	reg.Handle("ping", HandlerFunc(func(context.Context, *Request) Response { return Response{} }))
	assert.Panics(t, func() {
		reg.Handle("/ping/", HandlerFunc(func(context.Context, *Request) Response { return Response{} }))
	})

	_, ok := reg.Lookup("/ping")
	require.True(t, ok)
	_, ok = reg.Lookup("pong")
	assert.False(t, ok)
}

func TestDecode(t *testing.T) {
	assert.Equal(t, echoBody{Name: "a"}, Decode[echoBody](&Request{Body: []byte(`{"name":"a"}`)}))
	assert.Equal(t, echoBody{}, Decode[echoBody](&Request{}))
	assert.Equal(t, echoBody{}, Decode[echoBody](&Request{Body: []byte(`{"name":42}`)}))
	assert.Equal(t, echoBody{}, Decode[echoBody](&Request{Body: []byte(`[1,2]`)}))
}
