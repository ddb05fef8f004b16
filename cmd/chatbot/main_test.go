package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/chatbot/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	force, verbose = false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestInitThenCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "bot.yaml")

	out, err := execute(t, "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	_, err = execute(t, "init", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "init", "--config", path, "--force")
	require.NoError(t, err)

	out, err = execute(t, "check", "--config", path, "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "configured")
	assert.Contains(t, out, "default/echo (echo)")
	assert.Contains(t, out, "2 mappings, 2 groups")
	assert.Contains(t, out, "(0 failed)")
}

func TestCheckMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")
	_, err := execute(t, "check", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chatbot init")
}

func TestBuildAdapters(t *testing.T) {
	as, err := buildAdapters(nil, nil)
	require.NoError(t, err)
	require.Len(t, as, 1)
	assert.Equal(t, "console", as[0].Name())

	_, err = buildAdapters([]config.Adapter{{Type: "irc"}}, nil)
	assert.ErrorContains(t, err, `unknown type "irc"`)
}
