package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_AddsServiceAndContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{
		Level:       "debug",
		Format:      "json",
		Output:      &buf,
		ServiceName: "conversation-service",
		Environment: "test",
	})

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithActor(ctx, "vendor", "3f1c")
	logger.InfoContext(ctx, "message inserted", "channel", "vendor")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "conversation-service", entry["service"])
	assert.Equal(t, "test", entry["environment"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "vendor", entry["actor_kind"])
	assert.Equal(t, "3f1c", entry["actor_id"])
	assert.Equal(t, "vendor", entry["channel"])
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Level: "warn", Format: "text", Output: &buf})

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(Config{Format: "json", Output: &buf})

	ctx := WithActor(context.Background(), "admin", "a1")
	LoggerFromContext(ctx, base).Info("hello")

	assert.Contains(t, buf.String(), `"actor_id":"a1"`)
	assert.Equal(t, "", GetRequestID(ctx))
}
