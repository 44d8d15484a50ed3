package events_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/sealshare/internal/events"
)

func TestContextIDs(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, events.RequestID(ctx))
	assert.Empty(t, events.SnippetID(ctx))

	ctx = events.WithRequestID(ctx, "req-123")
	ctx = events.WithSnippetID(ctx, "abc123")

	assert.Equal(t, "req-123", events.RequestID(ctx))
	assert.Equal(t, "abc123", events.SnippetID(ctx))
}

func TestLoggerFor(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.InfoLevel, "json", &buf).WithField("component", "test")

	ctx := events.WithSnippetID(events.WithRequestID(context.Background(), "req-1"), "snip-1")
	logger.For(ctx).Info("fetched")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "snip-1", entry["snippet_id"])
	assert.Equal(t, "test", entry["component"])
}

func TestLoggerForWithoutIDs(t *testing.T) {
	logger := events.NewNopLogger()
	assert.Same(t, logger, logger.For(context.Background()))
}
