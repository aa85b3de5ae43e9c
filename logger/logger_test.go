package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, data []byte) []logMessage {
	t.Helper()

	var messages []logMessage
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var msg logMessage
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &msg))
		messages = append(messages, msg)
	}
	return messages
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(slog.LevelWarn)
	t.Cleanup(func() { SetLevel(slog.LevelInfo) })

	Debug("hidden")
	Info("hidden")
	Warn("shown", map[string]any{"factory": "UserFactory"})
	Error("shown too")

	messages := decodeLines(t, buf.Bytes())
	require.Len(t, messages, 2)
	assert.Equal(t, "WARN", messages[0].Level)
	assert.Equal(t, "UserFactory", messages[0].Data["factory"])
	assert.Equal(t, "ERROR", messages[1].Level)
	assert.Nil(t, messages[1].Data)
}

func TestSetDirectoryWritesRotatedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SetDirectory(dir))
	t.Cleanup(func() { SetOutput(os.Stderr) })

	Info("foundry booted", map[string]any{"persist": true})

	matches, err := filepath.Glob(filepath.Join(dir, "app.*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	content, err := os.ReadFile(matches[0])
	require.NoError(t, err)

	messages := decodeLines(t, content)
	require.Len(t, messages, 1)
	assert.Equal(t, "foundry booted", messages[0].Message)
	assert.Equal(t, true, messages[0].Data["persist"])
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"Error": slog.LevelError,
	}
	for input, expected := range tests {
		level, err := ParseLogLevel(input)
		require.NoError(t, err)
		assert.Equal(t, expected, level)
	}

	level, err := ParseLogLevel("verbose")
	assert.Error(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}
