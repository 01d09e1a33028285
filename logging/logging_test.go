package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	scratch "github.com/goliatone/go-scratch"
	"github.com/goliatone/go-scratch/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ scratch.Logger = &logging.Adapter{}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, logging.ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, logging.ParseLevel("warning"))
	assert.Equal(t, zerolog.ErrorLevel, logging.ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, logging.ParseLevel("nope"))
}

func TestAdapterWritesKeyValues(t *testing.T) {
	var buf bytes.Buffer
	adapter := logging.NewAdapter(logging.New("debug", "json", &buf), "shell")

	adapter.Error("session check failed", "error", errors.New("boom"), "path", "/")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "session check failed", entry["message"])
	assert.Equal(t, "shell", entry["component"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "/", entry["path"])
}

func TestAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	adapter := logging.NewAdapter(logging.New("info", "json", &buf), "")

	adapter.Debug("hidden")
	assert.Zero(t, buf.Len())

	adapter.Info("shown", "dangling")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "(MISSING)", entry["dangling"])
}
