// Package worker periodically probes every stored check and alerts the owner
// by SMS when a check changes state.
package worker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/go-api-flatfile/internal/domain"
	"github.com/go-api-flatfile/internal/logging"
	"github.com/go-api-flatfile/internal/pkg/clock"
)

const defaultConcurrency = 4

type checkStore interface {
	List(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id string) (*domain.Check, error)
	Update(ctx context.Context, c *domain.Check) error
	Lock(id string) func()
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type Worker struct {
	checks      checkStore
	sms         smsSender
	client      *http.Client
	clock       clock.Clock
	log         logging.Logger
	interval    time.Duration
	concurrency int
}

type Deps struct {
	CheckRepo   checkStore
	SMS         smsSender
	HTTPClient  *http.Client
	Clock       clock.Clock
	Logger      logging.Logger
	Interval    time.Duration
	Concurrency int
}

func New(deps Deps) *Worker {
	w := &Worker{
		checks:      deps.CheckRepo,
		sms:         deps.SMS,
		client:      deps.HTTPClient,
		clock:       deps.Clock,
		log:         deps.Logger,
		interval:    deps.Interval,
		concurrency: deps.Concurrency,
	}
	if w.client == nil {
		w.client = &http.Client{}
	}
	if w.clock == nil {
		w.clock = clock.Real()
	}
	if w.log == nil {
		w.log = logging.Discard()
	}
	if w.concurrency < 1 {
		w.concurrency = defaultConcurrency
	}
	w.log = w.log.With("component", "worker")
	return w
}

// Run checks everything once, then again every interval until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info(ctx, "worker started", "interval", w.interval)
	w.runLogged(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.runLogged(ctx)
		case <-ctx.Done():
			w.log.Info(ctx, "worker stopped")
			return
		}
	}
}

func (w *Worker) runLogged(ctx context.Context) {
	if err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
		w.log.Error(ctx, "check round failed", "err", err)
	}
}

// RunOnce probes every stored check. Per-check failures are logged and do
// not abort the round; only a failure to list checks is returned.
func (w *Worker) RunOnce(ctx context.Context) error {
	ids, err := w.checks.List(ctx)
	if err != nil {
		return fmt.Errorf("list checks: %w", err)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, checkID := range ids {
		checkID := checkID
		g.Go(func() error {
			w.process(gctx, checkID)
			return nil
		})
	}
	return g.Wait()
}

func (w *Worker) process(ctx context.Context, checkID string) {
	unlock := w.checks.Lock(checkID)
	defer unlock()

	c, err := w.checks.Get(ctx, checkID)
	if err != nil {
		w.log.Warn(ctx, "could not read check", "check_id", checkID, "err", err)
		return
	}
	if err := sane(c); err != nil {
		w.log.Warn(ctx, "skipping malformed check", "check_id", checkID, "err", err)
		return
	}

	state := w.probe(ctx, c)
	alert := c.LastChecked > 0 && c.State != state

	c.State = state
	c.LastChecked = w.clock.Now().UnixMilli()
	if err := w.checks.Update(ctx, c); err != nil {
		w.log.Warn(ctx, "could not save check outcome", "check_id", checkID, "err", err)
		return
	}
	if !alert {
		return
	}
	msg := fmt.Sprintf("Alert: Your check for %s %s://%s is currently %s",
		strings.ToUpper(c.Method), c.Protocol, c.URL, c.State)
	if err := w.sms.SendSMS(ctx, c.UserPhone, msg); err != nil {
		w.log.Warn(ctx, "could not send state change alert", "check_id", checkID, "err", err)
		return
	}
	w.log.Info(ctx, "alerted user to state change", "check_id", checkID, "state", c.State)
}

// probe reports up when the request completes within the check's timeout and
// answers with one of its success codes.
func (w *Worker) probe(ctx context.Context, c *domain.Check) string {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.TimeoutSeconds)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(c.Method), c.Protocol+"://"+c.URL, nil)
	if err != nil {
		return domain.CheckStateDown
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return domain.CheckStateDown
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if c.Accepts(resp.StatusCode) {
		return domain.CheckStateUp
	}
	return domain.CheckStateDown
}

func sane(c *domain.Check) error {
	switch {
	case c.Protocol != "http" && c.Protocol != "https":
		return fmt.Errorf("protocol %q", c.Protocol)
	case c.URL == "":
		return fmt.Errorf("empty url")
	case c.UserPhone == "":
		return fmt.Errorf("no owner")
	case len(c.SuccessCodes) == 0:
		return fmt.Errorf("no success codes")
	case c.TimeoutSeconds < 1 || c.TimeoutSeconds > 5:
		return fmt.Errorf("timeout %d", c.TimeoutSeconds)
	}
	switch c.Method {
	case "get", "post", "put", "delete":
		return nil
	}
	return fmt.Errorf("method %q", c.Method)
}
