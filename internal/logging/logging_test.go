package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "mentor.log")

	l, closeFn, err := New(Options{Level: "debug", FilePath: path, Console: &console})
	require.NoError(t, err)
	l.Debug("mentor turn", zap.String("flow", "schedule"))
	require.NoError(t, closeFn())

	assert.Contains(t, console.String(), "mentor turn")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(b))), &entry))
	assert.Equal(t, "mentor turn", entry["msg"])
	assert.Equal(t, "schedule", entry["flow"])
	assert.Equal(t, "DEBUG", entry["level"])
}

func TestNewLevelFilters(t *testing.T) {
	var console bytes.Buffer
	l, closeFn, err := New(Options{Level: "warn", Console: &console})
	require.NoError(t, err)
	l.Info("quiet")
	l.Warn("loud")
	require.NoError(t, closeFn())

	assert.NotContains(t, console.String(), "quiet")
	assert.Contains(t, console.String(), "loud")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, _, err := New(Options{Level: "chatty"})
	assert.Error(t, err)
}
