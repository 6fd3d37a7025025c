package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{" Error ", slog.LevelError},
		{"chatty", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestNormaliseAttr(t *testing.T) {
	styled := normaliseAttr(nil, slog.String("msg", "\x1b[36m/google\x1b[0m"))
	assert.Equal(t, "/google", styled.Value.String())

	errAttr := normaliseAttr(nil, slog.Any("error", errors.New("dial tcp: refused")))
	assert.Equal(t, "dial tcp: refused", errAttr.Value.String())

	plain := normaliseAttr(nil, slog.Int("status", 502))
	assert.Equal(t, int64(502), plain.Value.Int64())
}

func TestNew_WithFileOutput(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	dir := t.TempDir()

	log, cleanup, err := New(&Config{
		Level:      "debug",
		LogDir:     dir,
		FileOutput: true,
		MaxSize:    1,
		MaxBackups: 1,
		MaxAge:     1,
	})
	require.NoError(t, err)

	log.Info("Proxying", "target", "http://github.lokal")
	cleanup()

	contents, err := os.ReadFile(filepath.Join(dir, DefaultLogOutputName))
	require.NoError(t, err)
	assert.Contains(t, string(contents), `"target":"http://github.lokal"`)
	assert.Contains(t, string(contents), `"timestamp"`)
}

func TestTeeHandler_DetailedIsFileOnly(t *testing.T) {
	var terminal, file bytes.Buffer
	log := slog.New(&teeHandler{sinks: []sink{
		{handler: slog.NewJSONHandler(&terminal, nil)},
		{handler: slog.NewJSONHandler(&file, nil), acceptsDetail: true},
	}})

	log.InfoContext(WithDetailed(context.Background()), "access log")
	log.With("route", "/github").Info("shown everywhere")

	assert.NotContains(t, terminal.String(), "access log")
	assert.Contains(t, terminal.String(), "shown everywhere")
	assert.Contains(t, terminal.String(), `"route":"/github"`)
	assert.Contains(t, file.String(), "access log")
	assert.Equal(t, 2, strings.Count(file.String(), "\n"))
}

func TestTeeHandler_RespectsSinkLevels(t *testing.T) {
	var terminal, file bytes.Buffer
	log := slog.New(&teeHandler{sinks: []sink{
		{handler: slog.NewJSONHandler(&terminal, &slog.HandlerOptions{Level: slog.LevelWarn})},
		{handler: slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}), acceptsDetail: true},
	}})

	log.Debug("upstream responded")

	assert.Empty(t, terminal.String())
	assert.Contains(t, file.String(), "upstream responded")
	assert.False(t, IsDetailed(context.Background()))
}

func TestPlainStyledLogger(t *testing.T) {
	var buf bytes.Buffer
	styled := NewPlainStyledLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	styled.InfoWithSignal("Shutting down...", "SIGTERM")
	styled.WithRequestID("swift_baton_0001").InfoWithUpstream("Proxying", "http://stripe.lokal")

	out := buf.String()
	assert.Contains(t, out, "[SIGTERM] Shutting down...")
	assert.Contains(t, out, "Proxying http://stripe.lokal")
	assert.Contains(t, out, "request_id=swift_baton_0001")
}
