package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runTestCommand runs `test` with a fresh RootOptions and returns stdout.
func runTestCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// catalogScenario is the harness package's catalog scenario.
var catalogScenario = filepath.Join("..", "harness", "testdata", "scenarios", "catalog.yaml")

// copyScenario copies the scenario at src into dir.
func copyScenario(t *testing.T, dir, src string) {
	t.Helper()
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, filepath.Base(src)), data, 0644))
}

// scenarioDir returns a temp dir holding the catalog scenario and the
// failing testdata/scenarios/broken.yml.
func scenarioDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	copyScenario(t, dir, catalogScenario)
	copyScenario(t, dir, filepath.Join("testdata", "scenarios", "broken.yml"))
	return dir
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCommand(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := runTestCommand(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := runTestCommand(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := runTestCommand(t, "json", t.TempDir())
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Empty(t, resp.Data.Scenarios)
}

func TestTestCommandFilterPasses(t *testing.T) {
	out, err := runTestCommand(t, "text", scenarioDir(t), "--filter", "cat*")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ catalog")
	assert.NotContains(t, out, "broken")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandReportsFailures(t *testing.T) {
	out, err := runTestCommand(t, "text", scenarioDir(t))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✗ broken")
	assert.Contains(t, out, "Assertion failed: all/keys")
	assert.Contains(t, out, "✓ catalog")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandJSONOutput(t *testing.T) {
	out, err := runTestCommand(t, "json", scenarioDir(t))
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)

	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	require.Len(t, resp.Data.Scenarios, 2)
	assert.Equal(t, "broken", resp.Data.Scenarios[0].Name)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
	assert.Equal(t, "catalog", resp.Data.Scenarios[1].Name)
	assert.True(t, resp.Data.Scenarios[1].Pass)
}

func TestTestCommandInvalidScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "typo.yaml"), []byte("name: typo\nquerys: []\n"), 0644))

	out, err := runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ typo.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandUpdateGolden(t *testing.T) {
	dir := t.TempDir()
	copyScenario(t, dir, catalogScenario)
	goldenPath := filepath.Join(dir, "golden", "catalog.golden")

	out, err := runTestCommand(t, "text", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "(golden updated)")

	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario": "catalog"`)
	assert.Contains(t, string(golden), `"product(0u)"`)

	// The golden directory holds no scenarios of its own.
	out, err = runTestCommand(t, "text", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	require.NoError(t, os.WriteFile(goldenPath, []byte("{}\n"), 0644))
	out, err = runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "do not match golden file")
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "catalog.golden"),
		goldenFilePath(filepath.Join("scenarios", "catalog.yaml")))
}
