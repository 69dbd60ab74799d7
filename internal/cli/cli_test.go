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

// execute runs the root command with args and returns stdout, stderr, and
// the exit code the binary would use.
func execute(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), GetExitCode(err)
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestRoot_InvalidFormat(t *testing.T) {
	_, _, code := execute(t, "validate", "testdata/switch.yaml", "--format", "xml")
	assert.Equal(t, ExitCommandError, code)
}

func TestRoot_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("limits: [\n"), 0o644))

	out, _, code := execute(t, "validate", "testdata/switch.yaml", "--config", path)
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, out, "Error [E_CONFIG]")
}

func TestRoot_RegistersCommands(t *testing.T) {
	cmd := NewRootCommand()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"validate", "check", "explore", "analyze", "history", "test", "serve"} {
		assert.Contains(t, names, want)
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid model", func(t *testing.T) {
		out, _, code := execute(t, "validate", "testdata/switch.yaml")
		assert.Equal(t, ExitSuccess, code)
		assert.Contains(t, out, "Diagnostics: none")
		assert.Contains(t, out, "✓ switch is valid")
	})

	t.Run("error diagnostics", func(t *testing.T) {
		out, _, code := execute(t, "validate", "testdata/unbounded.yaml")
		assert.Equal(t, ExitFailure, code)
		assert.Contains(t, out, "E102")
		assert.Contains(t, out, "✗ unbounded has errors")
	})

	t.Run("json", func(t *testing.T) {
		out, _, code := execute(t, "validate", "testdata/switch.yaml", "--format", "json")
		assert.Equal(t, ExitSuccess, code)
		resp := decodeResponse(t, out)
		assert.Equal(t, "ok", resp.Status)
		assert.Nil(t, resp.Error)
	})

	t.Run("missing file", func(t *testing.T) {
		out, _, code := execute(t, "validate", "testdata/absent.yaml")
		assert.Equal(t, ExitCommandError, code)
		assert.Contains(t, out, "Error [E_NOT_FOUND]")
	})

	t.Run("document error", func(t *testing.T) {
		out, _, code := execute(t, "validate", "testdata/broken.yaml", "--format", "json")
		assert.Equal(t, ExitCommandError, code)
		resp := decodeResponse(t, out)
		assert.Equal(t, "error", resp.Status)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "E006", resp.Error.Code)
	})
}

func TestCheck(t *testing.T) {
	out, _, code := execute(t, "check", "testdata/switch.yaml")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Structure: PASS")

	out, _, code = execute(t, "check", "testdata/dead-end.yaml")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, out, "Structure: FAIL")
	assert.Contains(t, out, "E302")
}

func TestExplore(t *testing.T) {
	t.Run("deadlock", func(t *testing.T) {
		out, _, code := execute(t, "explore", "testdata/ping-pong.yaml")
		assert.Equal(t, ExitFailure, code)
		assert.Contains(t, out, "Exploration: exhaustive")
		assert.Contains(t, out, "DEADLOCK at S0")
		assert.Contains(t, out, "trace: t1 → t2 → t1 → t2")
	})

	t.Run("depth limit hides the deadlock", func(t *testing.T) {
		out, _, code := execute(t, "explore", "testdata/ping-pong.yaml", "--max-depth", "2")
		assert.Equal(t, ExitSuccess, code)
		assert.Contains(t, out, "Exploration: depth_limited")
		assert.Contains(t, out, "no deadlock found before the search stopped")
	})

	t.Run("deadlock free", func(t *testing.T) {
		out, _, code := execute(t, "explore", "testdata/switch.yaml")
		assert.Equal(t, ExitSuccess, code)
		assert.Contains(t, out, "verified deadlock-free")
	})
}

func TestAnalyze(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		out, _, code := execute(t, "analyze", "testdata/switch.yaml")
		assert.Equal(t, ExitSuccess, code)
		assert.Contains(t, out, "Model:  switch")
		assert.Contains(t, out, "Result: PASS")
	})

	t.Run("findings", func(t *testing.T) {
		out, _, code := execute(t, "analyze", "testdata/ping-pong.yaml")
		assert.Equal(t, ExitFailure, code)
		assert.Contains(t, out, "Result: FAIL")
	})

	t.Run("markdown", func(t *testing.T) {
		out, _, code := execute(t, "analyze", "testdata/switch.yaml", "--format", "markdown")
		assert.Equal(t, ExitSuccess, code)
		assert.Contains(t, out, "# switch: PASS")
		assert.Contains(t, out, "## Diagnostics")
	})

	t.Run("pretty markdown", func(t *testing.T) {
		out, _, code := execute(t, "analyze", "testdata/switch.yaml", "--format", "markdown", "--pretty", "--width", "60")
		assert.Equal(t, ExitSuccess, code)
		assert.Contains(t, out, "switch")
		assert.Contains(t, out, "Diagnostics")
	})
}

func TestHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	_, _, code := execute(t, "analyze", "testdata/switch.yaml", "--db", db)
	require.Equal(t, ExitSuccess, code)
	_, _, code = execute(t, "analyze", "testdata/ping-pong.yaml", "--db", db)
	require.Equal(t, ExitFailure, code)
	_, _, code = execute(t, "analyze", "testdata/switch.yaml", "--db", db)
	require.Equal(t, ExitSuccess, code)

	t.Run("list", func(t *testing.T) {
		out, _, code := execute(t, "history", "--db", db)
		assert.Equal(t, ExitSuccess, code)
		assert.Contains(t, out, "RUN")
		assert.Contains(t, out, "ping-pong")
		assert.Contains(t, out, "FAIL")
	})

	t.Run("filter by model", func(t *testing.T) {
		out, _, code := execute(t, "history", "--db", db, "--model", "switch", "--format", "json")
		assert.Equal(t, ExitSuccess, code)
		var resp struct {
			Data []struct {
				ID    string `json:"id"`
				Model string `json:"model"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
		require.Len(t, resp.Data, 2)
		for _, r := range resp.Data {
			assert.Equal(t, "switch", r.Model)
		}

		show, _, code := execute(t, "history", "show", resp.Data[0].ID, "--db", db)
		assert.Equal(t, ExitSuccess, code)
		assert.Contains(t, show, "Model:  switch")
		assert.Contains(t, show, resp.Data[0].ID)
	})

	t.Run("failed only", func(t *testing.T) {
		out, _, code := execute(t, "history", "--db", db, "--failed")
		assert.Equal(t, ExitSuccess, code)
		assert.Contains(t, out, "ping-pong")
		assert.NotContains(t, out, "switch")
	})

	t.Run("codes", func(t *testing.T) {
		out, _, code := execute(t, "history", "codes", "--model", "ping-pong", "--db", db)
		assert.Equal(t, ExitSuccess, code)
		assert.Contains(t, out, "CODE")
		assert.Contains(t, out, "W301")
	})

	t.Run("show unknown run", func(t *testing.T) {
		out, _, code := execute(t, "history", "show", "run-missing", "--db", db)
		assert.Equal(t, ExitCommandError, code)
		assert.Contains(t, out, "Error [E_NOT_FOUND]")
	})

	t.Run("prune", func(t *testing.T) {
		out, _, code := execute(t, "history", "prune", "--keep", "1", "--db", db)
		assert.Equal(t, ExitSuccess, code)
		assert.Contains(t, out, "Deleted 1 run(s)")

		out, _, code = execute(t, "history", "--db", db, "--model", "switch")
		assert.Equal(t, ExitSuccess, code)
		assert.Contains(t, out, "switch")
	})

	t.Run("negative keep", func(t *testing.T) {
		out, _, code := execute(t, "history", "prune", "--keep", "-1", "--db", db)
		assert.Equal(t, ExitCommandError, code)
		assert.Contains(t, out, "Error [E_USAGE]")
	})
}

func TestHistory_NoDatabase(t *testing.T) {
	out, _, code := execute(t, "history")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, out, "Error [E_USAGE]")

	out, _, code = execute(t, "history", "--db", filepath.Join(t.TempDir(), "absent.db"))
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, out, "Error [E_NOT_FOUND]")
}

const passingScenario = `name: reaches_final
description: One step to the final state
definition:
  states:
    - id: S0
      initial: true
    - id: S1
      final: true
  transitions:
    - id: t1
      from: S0
      to: S1
assertions:
  - type: no_deadlock
  - type: reachable
    states: [S0, S1]
`

const failingScenario = `name: expects_deadlock
description: Asserts a deadlock the model does not have
definition:
  states:
    - id: S0
      initial: true
    - id: S1
      final: true
  transitions:
    - id: t1
      from: S0
      to: S1
assertions:
  - type: deadlock
    state: S0
`

func TestTest_GoldenLifecycle(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reaches_final.yaml"), []byte(passingScenario), 0o644))

	out, _, code := execute(t, "test", dir)
	assert.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "✓ reaches_final")
	assert.NoFileExists(t, filepath.Join(dir, "golden", "reaches_final.golden"))

	out, _, code = execute(t, "test", dir, "--update")
	assert.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "golden updated")
	golden := filepath.Join(dir, "golden", "reaches_final.golden")
	require.FileExists(t, golden)

	out, _, code = execute(t, "test", dir)
	assert.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	require.NoError(t, os.WriteFile(golden, []byte(`{"scenario":"stale"}`), 0o644))
	out, _, code = execute(t, "test", dir)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, out, "does not match golden file")
}

func TestTest_FailuresAndFilter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reaches_final.yaml"), []byte(passingScenario), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "expects_deadlock.yaml"), []byte(failingScenario), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	out, _, code := execute(t, "test", dir, "--format", "json")
	assert.Equal(t, ExitFailure, code)
	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)

	out, _, code = execute(t, "test", dir, "--filter", "reaches_*")
	assert.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTest_MissingDirectory(t *testing.T) {
	out, _, code := execute(t, "test", filepath.Join(t.TempDir(), "nope"))
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, out, "Error [E_NOT_FOUND]")
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yml", "c.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "d.yaml"), nil, 0o644))

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yml")}, files)

	_, err = findScenarioFiles(dir, "[")
	assert.Error(t, err)
}
