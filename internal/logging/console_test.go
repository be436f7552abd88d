package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConsoleHandler_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewConsoleHandler(&buf, slog.LevelInfo, false))

	logger.Info("wrote page", "path", "out/index.html", "size", "1.2 KiB")

	line := buf.String()
	require.Contains(t, line, "INFO  wrote page")
	require.Contains(t, line, "path=out/index.html")
	require.Contains(t, line, `size="1.2 KiB"`)
	require.NotContains(t, line, "\x1b[")
}

func TestConsoleHandler_LevelVarIsLive(t *testing.T) {
	var buf bytes.Buffer
	lv := NewLevel(false)
	logger := slog.New(NewConsoleHandler(&buf, lv, false))

	logger.Debug("hidden")
	require.Empty(t, buf.String())

	lv.Set(slog.LevelDebug)
	logger.Debug("shown")
	require.Contains(t, buf.String(), "shown")
}

func TestConsoleHandler_WithAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewConsoleHandler(&buf, slog.LevelInfo, false)).
		With("build_id", "b1").
		WithGroup("req")

	logger.Info("served", "status", 200)

	require.Contains(t, buf.String(), "build_id=b1")
	require.Contains(t, buf.String(), "req.status=200")
}

func TestNew_NonTerminalWriterIsUncolored(t *testing.T) {
	var buf bytes.Buffer
	require.False(t, IsTerminal(&buf))

	New(&buf, Options{}).Warn("careful")
	require.Contains(t, buf.String(), "WARN  careful")
}
