package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWrap_RecordsModuleAndDetails(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := Wrap(zap.New(core))

	l.Error("api", "request failed", map[string]interface{}{"error": errors.New("boom"), "path": "/chat"})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "request failed", entries[0].Message)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "api", ctx["module"])
	assert.Contains(t, ctx, "error_ref")
}

func TestNewFileLogger_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "codex.log")
	l, err := NewFileLogger(path, "debug")
	require.NoError(t, err)

	l.Info("auth", "probe finished", map[string]interface{}{"authenticated": true})
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.Contains(t, line, `"message":"probe finished"`)
	assert.Contains(t, line, `"module":"auth"`)
	assert.Contains(t, line, `"level":"INFO"`)
}

func TestNewFileLogger_EmptyPathIsNop(t *testing.T) {
	l, err := NewFileLogger("", "")
	require.NoError(t, err)
	l.Info("x", "y", nil)
}

func TestNewFileLogger_BadLevel(t *testing.T) {
	_, err := NewFileLogger(filepath.Join(t.TempDir(), "a.log"), "loud")
	assert.Error(t, err)
}
