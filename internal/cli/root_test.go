package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	root := GetRootCmd()

	assert.Equal(t, "redtrace", root.Use)
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("log-level"))
}

func TestSubcommandsRegistered(t *testing.T) {
	root := GetRootCmd()

	names := map[string]bool{}
	for _, cmd := range root.Commands() {
		names[cmd.Name()] = true
	}

	for _, want := range []string{"view", "flush-store", "publish", "await"} {
		assert.True(t, names[want], "missing command %q", want)
	}
}

func TestViewCommand_RejectsMultipleFilters(t *testing.T) {
	viewSpan = "a"
	viewService = "b"
	t.Cleanup(func() { viewSpan, viewService = "", "" })

	err := runView(viewCmd, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most one")
}

func TestAwaitCommand_Args(t *testing.T) {
	assert.Error(t, awaitCmd.Args(awaitCmd, []string{}))
	assert.NoError(t, awaitCmd.Args(awaitCmd, []string{"channel"}))

	assert.Error(t, publishCmd.Args(publishCmd, []string{"only-channel"}))
	assert.NoError(t, publishCmd.Args(publishCmd, []string{"channel", "payload"}))
}
