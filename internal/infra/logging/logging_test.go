package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subsavvy/internal/config"
)

func TestWith_AddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(&buf, config.LogConfig{Level: "debug", Format: "json"}, false)

	ctx := WithUserID(WithTraceID(context.Background(), "trace-1"), "user-1")
	With(ctx, Component(base, "test")).Info().Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "trace-1", line["trace_id"])
	assert.Equal(t, "user-1", line["user_id"])
	assert.Equal(t, "test", line["component"])
	assert.Equal(t, "hello", line["message"])
}

func TestNewWithWriter_Level(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, config.LogConfig{Level: "warn", Format: "json"}, false)
	l.Info().Msg("dropped")
	assert.Zero(t, buf.Len())
	l.Warn().Msg("kept")
	assert.NotZero(t, buf.Len())
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "a***@example.com", Redact("alice@example.com", false))
	assert.Equal(t, "***", Redact("short", false))
	assert.Equal(t, "abcd...yz", Redact("abcdefghijklmnopqrstuvwxyz", false))
	assert.Equal(t, "alice@example.com", Redact("alice@example.com", true))
}

func TestContextAccessors(t *testing.T) {
	ctx := WithTraceID(context.Background(), "t")
	assert.Equal(t, "t", TraceID(ctx))
	assert.Empty(t, UserID(ctx))
}
