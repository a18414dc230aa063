package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, endpoint http.HandlerFunc) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	endpoint(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestReadyEndpoint_GateDown(t *testing.T) {
	h := New()

	code, body := probe(t, h.ReadyEndpoint)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", body["status"])
}

func TestReadyEndpoint_GateUp(t *testing.T) {
	h := New()
	h.SetReady(true)

	code, body := probe(t, h.ReadyEndpoint)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestLiveEndpoint_ChecksStartHealthy(t *testing.T) {
	h := New()
	h.AddLivenessCheck("always-fails", time.Second, func(context.Context) error {
		return errors.New("down")
	})

	code, _ := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
}

func TestCheck_FlipsAfterConsecutiveFailures(t *testing.T) {
	c := &check{name: "db", timeout: time.Second, fn: func(context.Context) error {
		return errors.New("connection refused")
	}}
	c.healthy.Store(true)

	ctx := context.Background()
	for i := 0; i < failureThreshold; i++ {
		c.poll(ctx)
	}

	msg, failed := c.failure()
	assert.True(t, failed)
	assert.Equal(t, "connection refused", msg)
}

func TestCheck_RecoversAfterSuccess(t *testing.T) {
	healthy := false
	c := &check{name: "db", timeout: time.Second, fn: func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("down")
	}}

	ctx := context.Background()
	for i := 0; i < failureThreshold; i++ {
		c.poll(ctx)
	}
	_, failed := c.failure()
	require.True(t, failed)

	healthy = true
	c.poll(ctx)

	_, failed = c.failure()
	assert.False(t, failed)
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}
