package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runValidateCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateValidScenario(t *testing.T) {
	path := writeFile(t, t.TempDir(), "passing.yaml", passingScenario)

	out, err := runValidateCmd(t, "text", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Scenario passing valid")
}

func TestValidateValidScenarioJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "trips.cue", "trips: {\n\tid: string\n\t...\n}\n")
	path := writeFile(t, dir, "s.yaml", `
name: with_schema
description: schema compiles
schema: trips.cue
steps:
  - from: trips
`)

	out, err := runValidateCmd(t, "json", path)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, []string{"trips"}, resp.Data.Tables)
}

func TestValidateNonExistentFile(t *testing.T) {
	out, err := runValidateCmd(t, "text", "/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E201]")
}

func TestValidateBadSchema(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.cue", "trips: {")
	path := writeFile(t, dir, "s.yaml", `
name: bad_schema
description: schema does not compile
schema: bad.cue
steps:
  - from: trips
`)

	out, err := runValidateCmd(t, "text", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E202]")
}

func TestValidateWarnings(t *testing.T) {
	path := writeFile(t, t.TempDir(), "s.yaml", `
name: risky
description: unfiltered delete and range with limit
steps:
  - from: trips
    op: delete
  - from: trips
    range: [0, 4]
    limit: 2
`)

	out, err := runValidateCmd(t, "text", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "2 warning(s)")
	assert.Contains(t, out, "✗ Scenario risky has warnings")
	assert.Contains(t, out, "step 0: DELETE trips")
	assert.Contains(t, out, `delete without filters affects every row in "trips"`)
	assert.Contains(t, out, "step 1: GET trips?offset=0&limit=5")
	assert.Contains(t, out, "range and limit both set; limit 2 is ignored")
}

func TestValidateWarningsJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "s.yaml", `
name: risky
description: or filters are not evaluated
steps:
  - from: trips
    filters:
      - { op: or, expr: "status.eq.open,status.eq.pending" }
`)

	out, err := runValidateCmd(t, "json", path)
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Warnings, 1)
	assert.Equal(t, ErrCodeQueryWarning, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "not evaluated")
}
