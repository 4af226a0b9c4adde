package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
	assert.False(t, ValidLevel("verbose"))
	assert.True(t, ValidLevel(" info "))
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Options{Level: "info", Format: "json"}, &buf)

	logger.Debug("[Scan] hidden")
	logger.Info("[Scan] Run completed", "items_scanned", 7)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "[Scan] Run completed", record["msg"])
	assert.EqualValues(t, 7, record["items_scanned"])
}

func TestNewWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(Options{Level: "debug", Format: "text"}, &buf)

	logger.Debug("[Cache] Miss", "key", "daily-analytics:0")
	assert.Contains(t, buf.String(), `msg="[Cache] Miss"`)
	assert.Contains(t, buf.String(), "key=daily-analytics:0")
}
