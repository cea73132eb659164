package e2e

import (
	"os"
	"testing"

	"github.com/cucumber/godog"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// TestFeatures runs against EVONFT_E2E_BASE_URL and is skipped without it.
func TestFeatures(t *testing.T) {
	baseURL := os.Getenv("EVONFT_E2E_BASE_URL")
	if baseURL == "" {
		t.Skip("EVONFT_E2E_BASE_URL not set")
	}
	tc := NewTestContext(baseURL,
		envOr("EVONFT_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		envOr("EVONFT_JWT_ISSUER", "evonft"),
		envOr("EVONFT_JWT_AUDIENCE", "evonft-api"),
	)

	suite := godog.TestSuite{
		Name: "evonft",
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			RegisterSteps(ctx, tc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("feature suite failed")
	}
}
