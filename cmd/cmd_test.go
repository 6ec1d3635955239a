// File: cmd/cmd_test.go
package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/wraith/internal/observability"
)

// execute runs the root command with the given args, capturing output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	observability.ResetForTest()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"worker", "launch", "approve", "reject", "kill", "message", "status"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestLaunchRequiresGoalAndOwner(t *testing.T) {
	_, err := execute(t, "launch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "goal")
}

func TestMessageRejectsEmptyText(t *testing.T) {
	_, err := execute(t, "message", "wraith-task-123", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message text must not be empty")
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}
