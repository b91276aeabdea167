package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	require.Equal(t, zapcore.InfoLevel, lvl)

	lvl, err = ParseLevel("debug")
	require.NoError(t, err)
	require.Equal(t, zapcore.DebugLevel, lvl)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detector.log")

	log, cleanup, err := New(Config{Name: "detector", Level: "info", File: path})
	require.NoError(t, err)

	log.Debugw("hidden")
	log.Infow("session running", "threshold", 0.25)
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "INFO")
	require.Contains(t, string(data), "detector")
	require.Contains(t, string(data), "session running")
	require.Contains(t, string(data), `"threshold": 0.25`)
	require.NotContains(t, string(data), "hidden")
}

func TestNew_BadLevel(t *testing.T) {
	_, _, err := New(Config{Level: "verbose"})
	require.Error(t, err)
}
