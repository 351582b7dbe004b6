package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"":        zapcore.InfoLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	require.Error(t, err)
}

func TestNew_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info"}, &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("tool invoked", zap.String("tool", "play"))
	require.NoError(t, logger.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "tool invoked", entry["msg"])
	assert.Equal(t, "play", entry["tool"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_FileCore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "music-agent.log")
	var buf bytes.Buffer
	logger, err := New(Config{Level: "debug", File: path}, &buf)
	require.NoError(t, err)

	logger.Warn("amplifier unreachable")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "amplifier unreachable")
	assert.Contains(t, buf.String(), "amplifier unreachable")
}

func TestGlobalLogger(t *testing.T) {
	Set(nil)
	assert.NotNil(t, L())

	var buf bytes.Buffer
	logger, err := New(Config{Level: "debug"}, &buf)
	require.NoError(t, err)
	Set(logger)
	t.Cleanup(func() { Set(nil) })

	Info("global message")
	assert.Contains(t, buf.String(), "global message")
	assert.Same(t, logger, Or(nil))

	other := zap.NewNop()
	assert.Same(t, other, Or(other))
}
