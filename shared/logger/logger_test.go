package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()

	output := &bytes.Buffer{}
	logger, err := New(&Config{
		Level:      level,
		Format:     "json",
		TimeFormat: time.RFC3339,
		writer:     output,
	})
	require.NoError(t, err)
	return logger, output
}

func lastEntry(t *testing.T, output *bytes.Buffer) map[string]interface{} {
	t.Helper()

	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestNew_JSONFormat(t *testing.T) {
	logger, output := newJSONLogger(t, "debug")

	logger.Debug("debug message", slog.String("key", "value"))

	entry := lastEntry(t, output)
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "debug message", entry["msg"])
	assert.Equal(t, "value", entry["key"])
	assert.Contains(t, entry, "time")
}

func TestNew_LevelFiltering(t *testing.T) {
	tests := []struct {
		level     string
		logged    func(l *Logger)
		filtered  func(l *Logger)
		wantLevel string
	}{
		{
			level:     "info",
			logged:    func(l *Logger) { l.Info("kept") },
			filtered:  func(l *Logger) { l.Debug("dropped") },
			wantLevel: "INFO",
		},
		{
			level:     "warn",
			logged:    func(l *Logger) { l.Warn("kept") },
			filtered:  func(l *Logger) { l.Info("dropped") },
			wantLevel: "WARN",
		},
		{
			level:     "error",
			logged:    func(l *Logger) { l.Error("kept") },
			filtered:  func(l *Logger) { l.Warn("dropped") },
			wantLevel: "ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, output := newJSONLogger(t, tt.level)

			tt.filtered(logger)
			tt.logged(logger)

			lines := strings.Split(strings.TrimSpace(output.String()), "\n")
			require.Len(t, lines, 1)

			entry := lastEntry(t, output)
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, "kept", entry["msg"])
		})
	}
}

func TestNew_ConsoleFormat(t *testing.T) {
	output := &bytes.Buffer{}
	logger, err := New(&Config{
		Level:  "info",
		Format: "console",
		writer: output,
	})
	require.NoError(t, err)

	logger.Info("console test")

	// tint renders the level as a short tag
	assert.Contains(t, output.String(), "INF")
	assert.Contains(t, output.String(), "console test")
}

func TestNew_SourceLocation(t *testing.T) {
	output := &bytes.Buffer{}
	logger, err := New(&Config{
		Level:        "info",
		Format:       "json",
		EnableSource: true,
		writer:       output,
	})
	require.NoError(t, err)

	logger.Info("message with source")

	entry := lastEntry(t, output)
	require.Contains(t, entry, "source")
	source := entry["source"].(map[string]interface{})
	assert.Contains(t, source, "file")
	assert.Contains(t, source, "line")
}

func TestNewDefault(t *testing.T) {
	logger := NewDefault()
	require.NotNil(t, logger)
	assert.NotNil(t, logger.Logger)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseLevel(tt.level), "level %q", tt.level)
	}
}

func TestLogger_With(t *testing.T) {
	logger, output := newJSONLogger(t, "info")

	logger.With(slog.String("service", "dispatch-api")).Info("operation complete")

	entry := lastEntry(t, output)
	assert.Equal(t, "dispatch-api", entry["service"])
	assert.Equal(t, "operation complete", entry["msg"])
}

func TestLogger_WithGroup(t *testing.T) {
	logger, output := newJSONLogger(t, "info")

	logger.WithGroup("job").Info("created", slog.Int64("id", 42))

	entry := lastEntry(t, output)
	require.Contains(t, entry, "job")
	group := entry["job"].(map[string]interface{})
	assert.Equal(t, float64(42), group["id"])
}

func TestLogger_WithAttrs(t *testing.T) {
	logger, output := newJSONLogger(t, "info")

	logger.WithAttrs(
		slog.String("job_token", "tok-1"),
		slog.String("actor", "supplier:sup-1"),
	).Info("transition applied")

	entry := lastEntry(t, output)
	assert.Equal(t, "tok-1", entry["job_token"])
	assert.Equal(t, "supplier:sup-1", entry["actor"])
}
