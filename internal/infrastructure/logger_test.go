package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesprep/internal/config"
)

func lastJSONLine(t *testing.T, content []byte) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestInitializeLogger_File(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "logs", "salesprep.log")
	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	})
	require.NoError(t, err)
	require.NotNil(t, logger)

	logger.Info("rows loaded", slog.Int("rows", 42))
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	entry := lastJSONLine(t, content)
	assert.Equal(t, "rows loaded", entry["msg"])
	assert.Equal(t, float64(42), entry["rows"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestInitializeLogger_BothWritesConsoleAndFile(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	var console bytes.Buffer
	consoleWriter = &console
	logFile := filepath.Join(t.TempDir(), "both.log")

	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Format:   "text",
		Output:   "both",
		FilePath: logFile,
	})
	require.NoError(t, err)

	logger.Info("hello")
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "msg=hello")
	assert.Contains(t, console.String(), "msg=hello")
}

func TestInitializeLogger_OnlyOnce(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	var console bytes.Buffer
	consoleWriter = &console

	first, err := InitializeLogger(config.LoggingConfig{Level: "info", Format: "json", Output: "console"})
	require.NoError(t, err)
	second, err := InitializeLogger(config.LoggingConfig{Level: "debug", Format: "text", Output: "console"})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Same(t, first, GetLogger())
}

func TestRunIDInjection(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	var console bytes.Buffer
	consoleWriter = &console

	_, err := InitializeLogger(config.LoggingConfig{Level: "debug", Format: "json", Output: "console"})
	require.NoError(t, err)

	ctx := WithRunID(context.Background(), "run-123")
	GetLogger().InfoContext(ctx, "stage done")

	entry := lastJSONLine(t, console.Bytes())
	assert.Equal(t, "run-123", entry["run_id"])

	console.Reset()
	LoggerFromContext(ctx).InfoContext(ctx, "no duplicate")
	assert.Equal(t, 1, strings.Count(console.String(), `"run_id"`))
}

func TestSetLevel(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	var console bytes.Buffer
	consoleWriter = &console

	logger, err := InitializeLogger(config.LoggingConfig{Level: "info", Format: "json", Output: "console"})
	require.NoError(t, err)

	logger.Debug("hidden")
	assert.Empty(t, console.String())

	SetLevel("debug")
	logger.Debug("visible")
	assert.Contains(t, console.String(), "visible")

	SetLevel("error")
	logger.Warn("suppressed")
	assert.NotContains(t, console.String(), "suppressed")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestRunIDHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RunIDFromContext(ctx))

	ctx = EnsureRunID(ctx)
	id := RunIDFromContext(ctx)
	assert.Len(t, id, 36)
	assert.Equal(t, id[:8], ShortRunID(id))

	assert.Equal(t, id, RunIDFromContext(EnsureRunID(ctx)), "existing id is kept")
	assert.Equal(t, "abc", ShortRunID("abc"))
}
