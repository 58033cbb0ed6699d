package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARN ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "production", "info")

	logger.Debug().Msg("hidden")
	logger.Info().Str("test", "hemoglobin").Msg("matched")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "matched", entry["message"])
	assert.Equal(t, "hemoglobin", entry["test"])
	assert.Contains(t, entry, "time")
}

func TestNewDevelopmentUsesConsole(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "development", "info")

	logger.Info().Msg("ready")

	assert.Contains(t, buf.String(), "ready")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestTiming(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	done := Timing(logger, "screen")
	done()

	out := buf.String()
	assert.Contains(t, out, `"operation":"screen"`)
	assert.Contains(t, out, `"message":"starting"`)
	assert.Contains(t, out, `"message":"completed"`)
	assert.Contains(t, out, `"took"`)
}
