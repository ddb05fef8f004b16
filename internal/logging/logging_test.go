package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/EgorLis/chatbot/internal/config"
)

func TestNewLevels(t *testing.T) {
	log, err := New(config.Logging{}, false)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))

	log, err = New(config.Logging{Level: "warn"}, false)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))

	log, err = New(config.Logging{Level: "warn"}, true)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNewBadLevel(t *testing.T) {
	_, err := New(config.Logging{Level: "loud"}, false)
	require.Error(t, err)
}

func TestNewJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	log, err := New(config.Logging{Format: "json", Output: []string{path}}, false)
	require.NoError(t, err)

	log.Info("hello")
	_ = log.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"hello"`)
}
