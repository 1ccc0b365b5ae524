package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Flags(t *testing.T) {
	cmd := rootCmd()

	flag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "assistant.yaml", flag.DefValue)
	assert.Equal(t, "c", flag.Shorthand)

	version, _, err := cmd.Find([]string{"version"})
	require.NoError(t, err)
	assert.Equal(t, "version", version.Name())
}

func TestRootCmd_RejectsArguments(t *testing.T) {
	cmd := rootCmd()
	cmd.SetArgs([]string{"--config", "unused.yaml", "extra"})
	assert.Error(t, cmd.Execute())
}
