package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evonft/internal/evolution/metadata"
	"evonft/internal/evolution/models"
	dErrors "evonft/pkg/domain-errors"
	"evonft/pkg/platform/secrets"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestReplay_ScenarioMatchesExpectations(t *testing.T) {
	out, err := execute(t, "replay", "-f", "testdata/scenario.yaml")
	require.NoError(t, err)

	assert.NotContains(t, out, "UNEXPECTED")
	assert.Contains(t, out, "error=already_owns")
	assert.Contains(t, out, "error=max_stage_reached")
	assert.Contains(t, out, "digest: ")
	// 13 steps, 5 of them rejected, so 8 journal entries.
	assert.Contains(t, out, "seq=8")
	assert.NotContains(t, out, "seq=9")
}

func TestReplay_UnexpectedOutcomeFails(t *testing.T) {
	out, err := execute(t, "replay", "-f", "testdata/unexpected.yaml")
	require.ErrorIs(t, err, errUnexpectedOutcome)
	assert.Contains(t, out, "error=insufficient_balance")
	assert.Contains(t, out, "[UNEXPECTED]")
}

func TestReplay_RequiresFile(t *testing.T) {
	_, err := execute(t, "replay")
	require.Error(t, err)
}

func TestLoadScenario_RejectsUnknownOp(t *testing.T) {
	path := t.TempDir() + "/bad.yaml"
	require.NoError(t, writeFile(path, "steps:\n  - op: mint\n    caller: alice\n"))

	_, err := loadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown op "mint"`)
	assert.Contains(t, err.Error(), "acquire_rare")
}

func TestLoadScenario_DecodesSteps(t *testing.T) {
	sc, err := loadScenario("testdata/scenario.yaml")
	require.NoError(t, err)
	require.Len(t, sc.Steps, 13)

	acquire := sc.Steps[3]
	assert.Equal(t, models.CommandAcquireRare, acquire.Kind)
	assert.Equal(t, "alice", string(acquire.Caller))
	assert.Equal(t, uint64(3), acquire.Amount)
	assert.Empty(t, acquire.ExpectError)
	assert.Equal(t, "already_owns", string(sc.Steps[1].ExpectError))
}

func TestRender(t *testing.T) {
	out, err := execute(t, "render", "--stage", "2")
	require.NoError(t, err)

	want, err := metadata.RenderURI(models.StageIntermediate)
	require.NoError(t, err)
	assert.Equal(t, want, strings.TrimSpace(out))
}

func TestRender_RejectsUnknownStage(t *testing.T) {
	for _, stage := range []string{"0", "4", "256", "two"} {
		_, err := execute(t, "render", "--stage", stage)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "stage %s", stage)
	}
}

func TestDigest_RunsAgree(t *testing.T) {
	out, err := execute(t, "digest", "-f", "testdata/scenario.yaml", "--runs", "6")
	require.NoError(t, err)
	assert.Contains(t, out, "(6 runs agree)")

	replayOut, err := execute(t, "replay", "-f", "testdata/scenario.yaml")
	require.NoError(t, err)
	digest := strings.Fields(out)[0]
	assert.Contains(t, replayOut, "digest: "+digest)
}

func TestDigest_RejectsZeroRuns(t *testing.T) {
	_, err := execute(t, "digest", "-f", "testdata/scenario.yaml", "--runs", "0")
	require.Error(t, err)
}

func TestSecret_HashVerifiesToken(t *testing.T) {
	out, err := execute(t, "secret")
	require.NoError(t, err)

	fields := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		key, value, ok := strings.Cut(line, ":")
		require.True(t, ok, line)
		fields[key] = strings.TrimSpace(value)
	}
	require.NotEmpty(t, fields["token"])
	assert.NoError(t, secrets.Verify(fields["token"], fields["hash"]))
}

func TestSecret_HashesGivenToken(t *testing.T) {
	out, err := execute(t, "secret", "--token", "scrape-me")
	require.NoError(t, err)
	assert.Contains(t, out, "token: scrape-me\n")

	hash := strings.TrimSpace(strings.SplitN(out, "hash:", 2)[1])
	assert.NoError(t, secrets.Verify("scrape-me", hash))
	assert.True(t, dErrors.HasCode(secrets.Verify("other", hash), dErrors.CodeUnauthorized))
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
