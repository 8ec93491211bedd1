package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRotatingLog_RotatesPastLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "flagbot.log")
	l, err := openRotatingLog(path, 10)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	_, err = l.Write([]byte("12345678"))
	require.NoError(t, err)
	_, err = l.Write([]byte("abcdef"))
	require.NoError(t, err)

	rotated, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	require.Equal(t, "12345678", string(rotated))

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "abcdef", string(current))
}

func TestParseLogLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	require.Equal(t, slog.LevelWarn, parseLogLevel("WARN"))
	require.Equal(t, slog.LevelError, parseLogLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLogLevel("verbose"))
}
