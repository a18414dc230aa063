// Package health provides Kubernetes-style liveness and readiness probe
// endpoints. Each registered check runs periodically in the background;
// a check must fail a few times in a row before it flips unhealthy, so a
// single slow poll does not flap the probe.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one component. Return nil when healthy.
type CheckFunc func(ctx context.Context) error

const (
	failureThreshold = 3
	successThreshold = 1
)

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	// consecutive counters; touched only by the single poll goroutine.
	fails, oks int
}

func (c *check) poll(ctx context.Context) {
	pollCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(pollCtx)
	c.lastErr.Store(&err)

	if err != nil {
		c.oks = 0
		if c.fails++; c.fails >= failureThreshold {
			c.healthy.Store(false)
		}
		return
	}
	c.fails = 0
	if c.oks++; c.oks >= successThreshold {
		c.healthy.Store(true)
	}
}

func (c *check) failure() (string, bool) {
	if c.healthy.Load() {
		return "", false
	}
	if p := c.lastErr.Load(); p != nil && *p != nil {
		return (*p).Error(), true
	}
	return "unhealthy", true
}

// Health runs checks and serves the probe endpoints.
type Health struct {
	mu        sync.Mutex
	liveness  []*check
	readiness []*check
	ready     atomic.Bool
	cancel    context.CancelFunc
}

// New returns a Health with no checks registered.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a check for the /livez endpoint. New checks
// start healthy.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := &check{name: name, timeout: timeout, fn: fn}
	c.healthy.Store(true)
	h.liveness = append(h.liveness, c)
}

// AddReadinessCheck registers a check for the /readyz endpoint. New
// checks start healthy.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := &check{name: name, timeout: timeout, fn: fn}
	c.healthy.Store(true)
	h.readiness = append(h.readiness, c)
}

// Start launches one poll goroutine per registered check.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, h.cancel = context.WithCancel(ctx)

	h.mu.Lock()
	all := append(append([]*check{}, h.liveness...), h.readiness...)
	h.mu.Unlock()

	for _, c := range all {
		go func() {
			c.poll(ctx)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					c.poll(ctx)
				}
			}
		}()
	}
}

// Stop cancels the poll goroutines.
func (h *Health) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
}

// SetReady flips the manual readiness gate; used to drain before shutdown.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports the manual readiness gate.
func (h *Health) IsReady() bool {
	return h.ready.Load()
}

// LiveEndpoint serves the liveness probe.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	checks := append([]*check{}, h.liveness...)
	h.mu.Unlock()
	writeProbe(w, collectFailures(checks))
}

// ReadyEndpoint serves the readiness probe. It fails while the manual
// gate is down or any readiness check is unhealthy.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	checks := append([]*check{}, h.readiness...)
	h.mu.Unlock()

	failures := collectFailures(checks)
	if !h.ready.Load() {
		failures["ready"] = "not ready"
	}
	writeProbe(w, failures)
}

func collectFailures(checks []*check) map[string]string {
	failures := make(map[string]string)
	for _, c := range checks {
		if msg, failed := c.failure(); failed {
			failures[c.name] = msg
		}
	}
	return failures
}

func writeProbe(w http.ResponseWriter, failures map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	body := map[string]any{"status": "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		body = map[string]any{"status": "unavailable", "checks": failures}
		code = http.StatusServiceUnavailable
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
