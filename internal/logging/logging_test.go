package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, log.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, log.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, log.InfoLevel, ParseLevel("verbose"))
	assert.Equal(t, log.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, log.WarnLevel, ParseLevel(" Warn "))

	_, ok := LookupLevel("verbose")
	assert.False(t, ok)
	_, ok = LookupLevel("Error")
	assert.True(t, ok)
}

func TestParseFormatter(t *testing.T) {
	assert.Equal(t, log.JSONFormatter, ParseFormatter("json"))
	assert.Equal(t, log.LogfmtFormatter, ParseFormatter("logfmt"))
	assert.Equal(t, log.TextFormatter, ParseFormatter(""))
	assert.Equal(t, log.JSONFormatter, ParseFormatter("JSON"))

	_, ok := LookupFormatter("yaml")
	assert.False(t, ok)
	_, ok = LookupFormatter("text")
	assert.True(t, ok)
}

func TestNewWritesToFallback(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "info", Format: "logfmt", Fallback: &buf, Prefix: "todo"})
	require.NoError(t, err)
	defer closer.Close()

	logger.Debug("hidden")
	logger.Info("todo added", "id", 7)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "todo added")
	assert.Contains(t, out, "id=7")
	assert.Contains(t, out, "prefix=todo")
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "todo.log")
	logger, closer, err := New(Options{Level: "debug", Path: path})
	require.NoError(t, err)

	logger.Debug("snapshot loaded", "total", 3)
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "snapshot loaded")
}

func TestNewWithoutSinkDiscards(t *testing.T) {
	logger, closer, err := New(Options{})
	require.NoError(t, err)
	defer closer.Close()
	logger.Error("nobody listens")
}
