package worker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-api-flatfile/internal/domain"
	"github.com/go-api-flatfile/internal/infrastructure/filestore"
	"github.com/go-api-flatfile/internal/infrastructure/repo"
	"github.com/go-api-flatfile/internal/pkg/clock"
	"github.com/go-api-flatfile/internal/pkg/keylock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSMS struct{ mock.Mock }

func (m *mockSMS) SendSMS(ctx context.Context, to, message string) error {
	return m.Called(ctx, to, message).Error(0)
}

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newChecks(t *testing.T) *repo.CheckRepo {
	t.Helper()
	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)
	return repo.NewCheckRepo(store, keylock.New())
}

func hostOf(srv *httptest.Server) string {
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestRunOnce_MarksUpAndDown(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	ctx := context.Background()
	checks := newChecks(t)
	c := &domain.Check{ID: "c1", UserPhone: "15551234567", Protocol: "http", URL: hostOf(srv) + "/health",
		Method: "get", SuccessCodes: []int{200}, TimeoutSeconds: 2, State: domain.CheckStateDown}
	require.NoError(t, checks.Create(ctx, c))

	sms := &mockSMS{}
	fc := clock.Fake(epoch)
	w := New(Deps{CheckRepo: checks, SMS: sms, Clock: fc, HTTPClient: srv.Client()})

	// First probe never alerts, even though the state moves from down to up.
	require.NoError(t, w.RunOnce(ctx))
	got, err := checks.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckStateUp, got.State)
	assert.Equal(t, epoch.UnixMilli(), got.LastChecked)
	sms.AssertNotCalled(t, "SendSMS", mock.Anything, mock.Anything, mock.Anything)

	status.Store(http.StatusInternalServerError)
	fc.Advance(time.Minute)
	sms.On("SendSMS", mock.Anything, "15551234567", mock.MatchedBy(func(msg string) bool {
		return strings.Contains(msg, "GET http://") && strings.HasSuffix(msg, "is currently down")
	})).Return(nil).Once()

	require.NoError(t, w.RunOnce(ctx))
	got, err = checks.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckStateDown, got.State)
	assert.Equal(t, epoch.Add(time.Minute).UnixMilli(), got.LastChecked)
	sms.AssertExpectations(t)

	// Unchanged state: no further alert.
	require.NoError(t, w.RunOnce(ctx))
	sms.AssertNumberOfCalls(t, "SendSMS", 1)
}

func TestRunOnce_TimeoutIsDown(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx := context.Background()
	checks := newChecks(t)
	require.NoError(t, checks.Create(ctx, &domain.Check{ID: "slow", UserPhone: "15551234567", Protocol: "http",
		URL: hostOf(srv), Method: "get", SuccessCodes: []int{200}, TimeoutSeconds: 1, State: domain.CheckStateUp}))

	w := New(Deps{CheckRepo: checks, SMS: &mockSMS{}, Clock: clock.Fake(epoch), HTTPClient: srv.Client()})
	require.NoError(t, w.RunOnce(ctx))

	got, err := checks.Get(ctx, "slow")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckStateDown, got.State)
}

func TestRunOnce_SkipsMalformedChecks(t *testing.T) {
	ctx := context.Background()
	checks := newChecks(t)
	require.NoError(t, checks.Create(ctx, &domain.Check{ID: "bad", Protocol: "gopher", URL: "x", Method: "get",
		UserPhone: "15551234567", SuccessCodes: []int{200}, TimeoutSeconds: 1}))

	w := New(Deps{CheckRepo: checks, SMS: &mockSMS{}, Clock: clock.Fake(epoch)})
	require.NoError(t, w.RunOnce(ctx))

	got, err := checks.Get(ctx, "bad")
	require.NoError(t, err)
	assert.Zero(t, got.LastChecked)
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := New(Deps{CheckRepo: newChecks(t), SMS: &mockSMS{}, Interval: 10 * time.Millisecond})

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
