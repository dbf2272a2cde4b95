package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf, Format: "json"})

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithUserID(ctx, 42)
	ctx = log.WithOrderID(ctx, 7)

	log.Error(ctx, "boom", errors.New("boom"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-123", entry["request_id"])
	assert.EqualValues(t, 42, entry["user_id"])
	assert.EqualValues(t, 7, entry["order_id"])
	assert.Equal(t, "boom", entry["error"])
	assert.Contains(t, entry, "stack")
	assert.Equal(t, "test", entry["service"])
}

func TestLoggerWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf, WarnStack: true, Format: "json"})
	log.Warn(context.Background(), "warny")
	assert.Contains(t, buf.String(), "\"stack\"")

	buf.Reset()
	quiet := New(Options{ServiceName: "test", Output: buf, Format: "json"})
	quiet.Warn(context.Background(), "warny")
	assert.NotContains(t, buf.String(), "\"stack\"")
}

func TestLoggerLevelFilters(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("warn"), Output: buf, Format: "json"})
	log.Info(context.Background(), "hidden")
	log.Debug(context.Background(), "hidden")
	assert.Empty(t, buf.String())
}

func TestParseLevelDefaults(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("invalid"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel(" DEBUG "))
}

func TestLoggerRedactsSensitiveFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{
		ServiceName: "test",
		Output:      buf,
		Format:      "json",
		Fields:      map[string]any{"instance": "api-1", "secret": "sk_live_123"},
	})

	ctx := log.WithFields(context.Background(), map[string]any{"Password": "hunter22", "email": "crew@jet.gr"})
	ctx = log.WithField(ctx, "authorization", "Bearer abc")
	log.Info(ctx, "login attempt")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "api-1", entry["instance"])
	assert.Equal(t, redacted, entry["secret"])
	assert.Equal(t, redacted, entry["Password"])
	assert.Equal(t, redacted, entry["authorization"])
	assert.Equal(t, "crew@jet.gr", entry["email"])
	assert.NotContains(t, buf.String(), "hunter22")
}

func TestLoggerContextFieldsDoNotLeakAcrossBranches(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Output: buf, Format: "json"})

	root := log.WithRequestID(context.Background(), "req-1")
	_ = log.WithOrderID(root, 99)
	log.Info(root, "root only")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.NotContains(t, entry, "order_id")
}
