// Package e2e drives a running evonft server through its HTTP API with
// godog feature files.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/golang-jwt/jwt/v5"
)

// TestContext holds per-scenario state. Owner names in feature files are
// suffixed with a scenario nonce so scenarios never collide on a shared server.
type TestContext struct {
	BaseURL    string
	SigningKey string
	Issuer     string
	Audience   string

	client   *http.Client
	nonce    string
	status   int
	body     map[string]any
	tokens   map[string]string
	lastBody []byte
}

func NewTestContext(baseURL, signingKey, issuer, audience string) *TestContext {
	return &TestContext{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		SigningKey: signingKey,
		Issuer:     issuer,
		Audience:   audience,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (tc *TestContext) reset() {
	tc.nonce = fmt.Sprintf("%d", time.Now().UnixNano())
	tc.status = 0
	tc.body = nil
	tc.lastBody = nil
	tc.tokens = map[string]string{}
}

func (tc *TestContext) owner(name string) string {
	return name + "-" + tc.nonce
}

// RegisterSteps registers all step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^the evonft API is reachable$`, tc.apiIsReachable)
	ctx.Step(`^"([^"]*)" holds a caller token$`, tc.holdsCallerToken)
	ctx.Step(`^"([^"]*)" issues an asset$`, tc.issuesAsset)
	ctx.Step(`^"([^"]*)" records activity$`, tc.recordsActivity)
	ctx.Step(`^"([^"]*)" records activity (\d+) times$`, tc.recordsActivityTimes)
	ctx.Step(`^"([^"]*)" acquires (\d+) rare units?$`, tc.acquiresRare)
	ctx.Step(`^"([^"]*)" evolves with a rare unit$`, tc.evolvesWithRare)
	ctx.Step(`^an anonymous caller issues an asset$`, tc.anonymousIssue)
	ctx.Step(`^the response status should be (\d+)$`, tc.responseStatusShouldBe)
	ctx.Step(`^the error code should be "([^"]*)"$`, tc.errorCodeShouldBe)
	ctx.Step(`^"([^"]*)" should own an asset at stage (\d+)$`, tc.shouldOwnAssetAtStage)
	ctx.Step(`^"([^"]*)" should hold (\d+) rare units?$`, tc.shouldHoldRare)
}

func (tc *TestContext) apiIsReachable() error {
	if err := tc.do(http.MethodGet, "/healthz", "", nil); err != nil {
		return err
	}
	if tc.status != http.StatusOK {
		return fmt.Errorf("healthz returned %d: %s", tc.status, tc.lastBody)
	}
	return nil
}

func (tc *TestContext) holdsCallerToken(name string) error {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   tc.owner(name),
		Issuer:    tc.Issuer,
		Audience:  jwt.ClaimStrings{tc.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
	})
	signed, err := token.SignedString([]byte(tc.SigningKey))
	if err != nil {
		return err
	}
	tc.tokens[name] = signed
	return nil
}

func (tc *TestContext) token(name string) (string, error) {
	t, ok := tc.tokens[name]
	if !ok {
		return "", fmt.Errorf("%q has no caller token", name)
	}
	return t, nil
}

func (tc *TestContext) post(name, path string, payload any) error {
	token, err := tc.token(name)
	if err != nil {
		return err
	}
	return tc.do(http.MethodPost, path, token, payload)
}

func (tc *TestContext) issuesAsset(name string) error {
	return tc.post(name, "/assets", nil)
}

func (tc *TestContext) recordsActivity(name string) error {
	return tc.post(name, "/assets/activity", nil)
}

func (tc *TestContext) recordsActivityTimes(name string, n int) error {
	for i := 0; i < n; i++ {
		if err := tc.recordsActivity(name); err != nil {
			return err
		}
		if tc.status != http.StatusOK {
			return fmt.Errorf("activity %d returned %d: %s", i+1, tc.status, tc.lastBody)
		}
	}
	return nil
}

func (tc *TestContext) acquiresRare(name string, amount int) error {
	return tc.post(name, "/rare/acquire", map[string]int{"amount": amount})
}

func (tc *TestContext) evolvesWithRare(name string) error {
	return tc.post(name, "/assets/evolve", nil)
}

func (tc *TestContext) anonymousIssue() error {
	return tc.do(http.MethodPost, "/assets", "", nil)
}

func (tc *TestContext) responseStatusShouldBe(want int) error {
	if tc.status != want {
		return fmt.Errorf("expected status %d, got %d: %s", want, tc.status, tc.lastBody)
	}
	return nil
}

func (tc *TestContext) errorCodeShouldBe(want string) error {
	if got, _ := tc.body["error"].(string); got != want {
		return fmt.Errorf("expected error %q, got %q", want, got)
	}
	return nil
}

func (tc *TestContext) shouldOwnAssetAtStage(name string, want int) error {
	if err := tc.do(http.MethodGet, "/owners/"+tc.owner(name)+"/asset", "", nil); err != nil {
		return err
	}
	if tc.status != http.StatusOK {
		return fmt.Errorf("owner lookup returned %d: %s", tc.status, tc.lastBody)
	}
	assetID, ok := tc.body["asset_id"].(float64)
	if !ok {
		return fmt.Errorf("owner lookup has no asset_id: %s", tc.lastBody)
	}
	if err := tc.do(http.MethodGet, fmt.Sprintf("/assets/%d/stage", uint64(assetID)), "", nil); err != nil {
		return err
	}
	if got, _ := tc.body["stage"].(float64); int(got) != want {
		return fmt.Errorf("expected stage %d, got %v", want, tc.body["stage"])
	}
	return nil
}

func (tc *TestContext) shouldHoldRare(name string, want int) error {
	if err := tc.do(http.MethodGet, "/owners/"+tc.owner(name)+"/rare", "", nil); err != nil {
		return err
	}
	if got, _ := tc.body["balance"].(float64); int(got) != want {
		return fmt.Errorf("expected balance %d, got %v", want, tc.body["balance"])
	}
	return nil
}

func (tc *TestContext) do(method, path, token string, payload any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, tc.BaseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.status = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.body = map[string]any{}
	if len(tc.lastBody) > 0 {
		_ = json.Unmarshal(tc.lastBody, &tc.body)
	}
	return nil
}
