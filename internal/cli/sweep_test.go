package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepCommandText(t *testing.T) {
	path := writeParamsFile(t, smallParamsYAML)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewSweepCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, "--seeds", "3"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "12,000 cells per run")
	assert.Contains(t, output, "Seed")
	assert.Contains(t, output, "mean true ATE:")
	assert.Contains(t, output, "overstatement rate:")
}

func TestSweepCommandJSON(t *testing.T) {
	path := writeParamsFile(t, smallParamsYAML)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewSweepCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, "--seeds", "3", "--base-seed", "10"})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	runs, ok := data["runs"].([]any)
	require.True(t, ok)
	require.Len(t, runs, 3)

	first := runs[0].(map[string]any)
	assert.Equal(t, float64(10), first["seed"])
}

func TestSweepCommandRejectsZeroSeeds(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewSweepCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--seeds", "0"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
