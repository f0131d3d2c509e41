package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)

	lvl, err = ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := newLogger(Options{Level: "warn"}, &buf)
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown", zap.String("session_id", "s1"))
	require.NoError(t, log.Sync())

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "s1")
}

func TestFileCoreWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "service.log")
	var buf bytes.Buffer
	log, err := newLogger(Options{Level: "info", File: path}, &buf)
	require.NoError(t, err)

	log.Named("quiz").Info("attempt started", zap.String("grade", "중1"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"attempt started"`)
	assert.Contains(t, string(data), `"logger":"quiz"`)
}
