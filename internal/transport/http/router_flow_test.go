package httptransport

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evonft/internal/evolution/engine"
	"evonft/internal/evolution/handler"
	evometrics "evonft/internal/evolution/metrics"
	jwttoken "evonft/internal/jwt_token"
	"evonft/internal/platform/metrics"
	id "evonft/pkg/domain"
	"evonft/pkg/testutil"
)

func TestRouter_EvolutionFlow(t *testing.T) {
	var (
		router http.Handler
		jwt    *jwttoken.JWTService
		scrape *httptest.ResponseRecorder
	)
	post := func(t *testing.T, owner, path string, body any) int {
		token, err := jwt.GenerateCallerToken(id.OwnerID(owner), time.Minute)
		require.NoError(t, err)
		req := testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPost, path, body), token)
		return testutil.DoRequest(router, req).Code
	}

	testutil.NewFlow(t).
		Given("the full router over an in-memory ledger", func(t *testing.T) {
			reg := prometheus.NewRegistry()
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			ledger, err := engine.NewInMemory(engine.WithMetrics(evometrics.NewWithRegistry(reg)))
			require.NoError(t, err)
			jwt = jwttoken.NewJWTService("flow-key", "evonft", "evonft-api")
			router = NewRouter(Config{
				Logger:   logger,
				Metrics:  metrics.NewWithRegistry(reg),
				Gatherer: reg,
			}, handler.New(ledger, jwt, logger))
		}).
		When("alice issues, buys two rare units and evolves twice", func(t *testing.T) {
			require.Equal(t, http.StatusCreated, post(t, "alice", "/assets", nil))
			require.Equal(t, http.StatusOK, post(t, "alice", "/rare/acquire", map[string]uint64{"amount": 2}))
			require.Equal(t, http.StatusOK, post(t, "alice", "/assets/evolve", nil))
			require.Equal(t, http.StatusOK, post(t, "alice", "/assets/evolve", nil))
		}).
		Then("the asset is final and the balance spent", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/assets/1"))
			testutil.AssertStatusOK(t, rr)
			testutil.AssertJSONField(t, rr, "stage", float64(3))

			rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/owners/alice/rare"))
			testutil.AssertJSONField(t, rr, "balance", float64(0))
		}).
		And("a further evolution is refused", func(t *testing.T) {
			assert.Equal(t, http.StatusConflict, post(t, "alice", "/assets/evolve", nil))
		}).
		When("scraping metrics", func(t *testing.T) {
			scrape = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
		}).
		Then("ledger and HTTP series share one registry", func(t *testing.T) {
			testutil.AssertStatusOK(t, scrape)
			body := scrape.Body.String()
			assert.Contains(t, body, "evonft_assets_issued_total 1")
			assert.Contains(t, body, `evonft_http_requests_total{method="POST",route="/assets/evolve",status="409"} 1`)
		})
}
