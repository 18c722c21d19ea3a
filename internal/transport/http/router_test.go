package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-api-flatfile/internal/config"
	"github.com/go-api-flatfile/internal/domain"
	"github.com/go-api-flatfile/internal/infrastructure/filestore"
	"github.com/go-api-flatfile/internal/infrastructure/repo"
	"github.com/go-api-flatfile/internal/logging"
	"github.com/go-api-flatfile/internal/pkg/clock"
	"github.com/go-api-flatfile/internal/pkg/keylock"
	"github.com/go-api-flatfile/internal/pkg/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const phone = "15551234567"

type testServer struct {
	t     *testing.T
	h     http.Handler
	clock *clock.FakeClock
	store *filestore.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Default("")
	cfg.RateLimitRPS = 1000
	cfg.RateLimitBurst = 1000

	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)
	hasher, err := password.NewHasher(cfg.HashingSecret, bcrypt.MinCost)
	require.NoError(t, err)
	fc := clock.Fake(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	locks := keylock.New()

	h := NewRouter(cfg, &Deps{
		UserRepo:  repo.NewUserRepo(store, locks),
		TokenRepo: repo.NewTokenRepo(store, locks),
		CheckRepo: repo.NewCheckRepo(store, locks),
		Hasher:    hasher,
		Clock:     fc,
		Logger:    logging.Discard(),
	})
	return &testServer{t: t, h: h, clock: fc, store: store}
}

func (s *testServer) do(method, target, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if token != "" {
		req.Header.Set("token", token)
	}
	w := httptest.NewRecorder()
	s.h.ServeHTTP(w, req)

	var out map[string]any
	if w.Header().Get("Content-Type") == "application/json" && w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func (s *testServer) register() {
	s.t.Helper()
	w, _ := s.do(http.MethodPost, "/api/users", "", map[string]any{
		"firstName": "A", "lastName": "B", "phone": phone, "password": "hunter2", "tosAgreement": true,
	})
	require.Equal(s.t, http.StatusOK, w.Code)
}

func (s *testServer) login() string {
	s.t.Helper()
	w, out := s.do(http.MethodPost, "/api/tokens", "", map[string]any{"phone": phone, "password": "hunter2"})
	require.Equal(s.t, http.StatusOK, w.Code)
	id, _ := out["id"].(string)
	require.Len(s.t, id, 20)
	return id
}

func TestPing(t *testing.T) {
	s := newTestServer(t)
	for _, m := range []string{http.MethodGet, http.MethodPost} {
		w, _ := s.do(m, "/ping", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	}
}

func TestRouting_NotFoundAndMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(http.MethodGet, "/api/nothing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodPatch, "/api/users", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w, _ = s.do(http.MethodGet, "/api/users/?phone=123", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "trailing slash routes to the same resource")
}

func TestUsers_CreateThenGetWithoutHash(t *testing.T) {
	s := newTestServer(t)
	s.register()
	tok := s.login()

	w, out := s.do(http.MethodGet, "/api/users?phone="+phone, tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "A", out["firstName"])
	assert.Equal(t, "B", out["lastName"])
	assert.Equal(t, phone, out["phone"])
	assert.NotContains(t, out, "hashedPassword")
	assert.NotContains(t, w.Body.String(), "hunter2")

	var stored domain.User
	require.NoError(t, s.store.Read(context.Background(), domain.CollectionUsers, phone, &stored))
	assert.NotEmpty(t, stored.HashedPassword)
	assert.NotEqual(t, "hunter2", stored.HashedPassword)
}

func TestUsers_DuplicateIsBadRequest(t *testing.T) {
	s := newTestServer(t)
	s.register()
	w, _ := s.do(http.MethodPost, "/api/users", "", map[string]any{
		"firstName": "X", "lastName": "Y", "phone": phone, "password": "other", "tosAgreement": true,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUsers_MalformedBodyIsBadRequest(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	s.h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUsers_MissingOrExpiredTokenIsForbidden(t *testing.T) {
	s := newTestServer(t)
	s.register()

	w, _ := s.do(http.MethodGet, "/api/users?phone="+phone, "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	tok := s.login()
	s.clock.Advance(time.Hour)
	w, _ = s.do(http.MethodGet, "/api/users?phone="+phone, tok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUsers_TokenForAnotherPhoneIsForbidden(t *testing.T) {
	s := newTestServer(t)
	s.register()
	tok := s.login()

	w, _ := s.do(http.MethodPost, "/api/users", "", map[string]any{
		"firstName": "C", "lastName": "D", "phone": "15550000000", "password": "pw", "tosAgreement": true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, "/api/users?phone=15550000000", tok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUsers_UpdateAndDelete(t *testing.T) {
	s := newTestServer(t)
	s.register()
	tok := s.login()

	w, out := s.do(http.MethodPut, "/api/users", tok, map[string]any{"phone": phone, "firstName": "Z"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Z", out["firstName"])
	assert.Equal(t, "B", out["lastName"])

	w, _ = s.do(http.MethodPut, "/api/users", tok, map[string]any{"phone": phone})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodDelete, "/api/users?phone="+phone, tok, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The token outlives its user.
	w, _ = s.do(http.MethodGet, "/api/tokens?id="+tok, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, "/api/users?phone="+phone, tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTokens_WrongPasswordOrUnknownUserIsBadRequest(t *testing.T) {
	s := newTestServer(t)
	s.register()

	w, _ := s.do(http.MethodPost, "/api/tokens", "", map[string]any{"phone": phone, "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/api/tokens", "", map[string]any{"phone": "15559999999", "password": "hunter2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTokens_Lifecycle(t *testing.T) {
	s := newTestServer(t)
	s.register()
	tok := s.login()

	w, out := s.do(http.MethodGet, "/api/tokens?id="+tok, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, phone, out["phone"])
	firstExpiry := out["expires"].(float64)

	s.clock.Advance(30 * time.Minute)
	w, out = s.do(http.MethodPut, "/api/tokens", "", map[string]any{"id": tok, "extend": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, firstExpiry+float64(30*time.Minute/time.Millisecond), out["expires"].(float64))

	s.clock.Advance(2 * time.Hour)
	w, _ = s.do(http.MethodPut, "/api/tokens", "", map[string]any{"id": tok, "extend": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodDelete, "/api/tokens?id="+tok, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodDelete, "/api/tokens?id="+tok, "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(http.MethodGet, "/api/tokens?id="+tok, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChecks_Lifecycle(t *testing.T) {
	s := newTestServer(t)
	s.register()
	tok := s.login()

	w, out := s.do(http.MethodPost, "/api/checks", tok, map[string]any{
		"protocol": "https", "url": "example.com", "method": "get", "successCodes": []int{200}, "timeoutSeconds": 3,
	})
	require.Equal(t, http.StatusOK, w.Code)
	id := out["id"].(string)

	w, out = s.do(http.MethodGet, "/api/users?phone="+phone, tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{id}, out["checks"])

	w, out = s.do(http.MethodPut, "/api/checks", tok, map[string]any{"id": id, "timeoutSeconds": 5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(5), out["timeoutSeconds"])

	w, _ = s.do(http.MethodGet, "/api/checks?id="+id, "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodDelete, "/api/checks?id="+id, tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodGet, "/api/checks?id="+id, tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChecks_UserDeleteCascades(t *testing.T) {
	s := newTestServer(t)
	s.register()
	tok := s.login()

	w, out := s.do(http.MethodPost, "/api/checks", tok, map[string]any{
		"protocol": "http", "url": "example.com", "method": "post", "successCodes": []int{201}, "timeoutSeconds": 1,
	})
	require.Equal(t, http.StatusOK, w.Code)
	id := out["id"].(string)

	w, _ = s.do(http.MethodDelete, "/api/users?phone="+phone, tok, nil)
	require.Equal(t, http.StatusOK, w.Code)

	keys, err := s.store.List(context.Background(), domain.CollectionChecks)
	require.NoError(t, err)
	assert.NotContains(t, keys, id)
}

func TestRateLimit_AppliesToLoginOnly(t *testing.T) {
	cfg := config.Default("")
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)
	hasher, err := password.NewHasher(cfg.HashingSecret, bcrypt.MinCost)
	require.NoError(t, err)
	h := NewRouter(cfg, &Deps{
		UserRepo:  repo.NewUserRepo(store, nil),
		TokenRepo: repo.NewTokenRepo(store, nil),
		CheckRepo: repo.NewCheckRepo(store, nil),
		Hasher:    hasher,
	})

	post := func(target string) int {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(`{}`)))
		return w.Code
	}
	assert.Equal(t, http.StatusBadRequest, post("/api/tokens"))
	assert.Equal(t, http.StatusTooManyRequests, post("/api/tokens"))
	assert.Equal(t, http.StatusOK, post("/ping"))
	assert.Equal(t, http.StatusOK, post("/ping"))
}
