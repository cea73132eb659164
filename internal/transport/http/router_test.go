package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evonft/internal/platform/metrics"
	"evonft/pkg/platform/secrets"
	"evonft/pkg/testutil"
)

type pingModule struct{}

func (pingModule) Register(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func newTestRouter(health map[string]HealthCheck) http.Handler {
	reg := prometheus.NewRegistry()
	return NewRouter(Config{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:  metrics.NewWithRegistry(reg),
		Gatherer: reg,
		Health:   health,
	}, pingModule{})
}

func TestRouter_MountsModulesAndEchoesRequestID(t *testing.T) {
	router := newTestRouter(nil)
	req := testutil.NewRequest(t, http.MethodGet, "/ping")
	req.Header.Set("X-Request-ID", "req-123")

	rr := testutil.DoRequest(router, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "req-123", rr.Header().Get("X-Request-ID"))
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	router := newTestRouter(nil)
	testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/ping"))

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(t, rr)
	assert.Contains(t, rr.Body.String(), `evonft_http_requests_total{method="GET",route="/ping",status="204"} 1`)
}

func TestRouter_Health(t *testing.T) {
	t.Run("all checks pass", func(t *testing.T) {
		router := newTestRouter(map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
		})
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONField(t, rr, "postgres", "ok")
	})

	t.Run("failing check degrades", func(t *testing.T) {
		router := newTestRouter(map[string]HealthCheck{
			"redis": func(context.Context) error { return errors.New("connection refused") },
		})
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
		testutil.AssertJSONField(t, rr, "status", "degraded")
	})
}

func TestRouter_MetricsTokenGuard(t *testing.T) {
	token, err := secrets.Generate()
	require.NoError(t, err)
	hash, err := secrets.Hash(token)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	router := NewRouter(Config{Gatherer: reg, MetricsTokenHash: hash})

	t.Run("missing token", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
		testutil.AssertLedgerError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("wrong token", func(t *testing.T) {
		req := testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/metrics"), token+"x")
		rr := testutil.DoRequest(router, req)
		testutil.AssertLedgerError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("matching token scrapes", func(t *testing.T) {
		req := testutil.WithBearer(testutil.NewRequest(t, http.MethodGet, "/metrics"), token)
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusOK(t, rr)
	})

	t.Run("health stays open", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatusOK(t, rr)
	})
}

func TestRouter_AccessLogNamesClient(t *testing.T) {
	var buf bytes.Buffer
	router := NewRouter(Config{
		Logger:   slog.New(slog.NewJSONHandler(&buf, nil)),
		Gatherer: prometheus.NewRegistry(),
	}, pingModule{})

	req := testutil.NewRequest(t, http.MethodGet, "/ping")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	testutil.DoRequest(router, req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Chrome on Windows", line["client"])
	assert.Equal(t, "/ping", line["path"])
}
