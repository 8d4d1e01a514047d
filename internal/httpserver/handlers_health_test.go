package httpserver

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHealthy(t *testing.T) {
	s := newTestServer(t, &stubDispatcher{},
		WithHealthChecks(HealthCheck{Name: "journal", Check: func(context.Context) error { return nil }}))

	rec := serve(s, http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "indigo-webhook-handler", body["service"])
	assert.Equal(t, "2026-05-01T09:30:15.123Z", body["timestamp"])
	assert.Contains(t, body, "uptime")
	assert.NotEmpty(t, body["version"])
}

func TestHealthFailingCheck(t *testing.T) {
	s := newTestServer(t, &stubDispatcher{},
		WithHealthChecks(HealthCheck{Name: "journal", Check: func(context.Context) error { return errors.New("database is locked") }}))

	rec := serve(s, http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "journal", body["failed_check"])
}

func TestVersionEndpoint(t *testing.T) {
	s := newTestServer(t, &stubDispatcher{})

	rec := serve(s, http.MethodGet, "/version", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, runtime.Version(), decode(t, rec)["go_version"])
}
