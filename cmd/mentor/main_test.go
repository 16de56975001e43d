package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentorbot/internal/config"
	"mentorbot/internal/planner"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T) (string, config.Config) {
	t.Helper()
	dir := t.TempDir()
	c := config.Default()
	c.DBPath = filepath.Join(dir, "mentor.db")
	c.DebugLogPath = ""
	c.LogLevel = "error"
	c.APIKey = "secret"
	path := filepath.Join(dir, "config.json")
	require.NoError(t, c.SaveToFile(path))
	return path, c
}

func TestSeedCommand(t *testing.T) {
	path, c := writeConfig(t)

	out, err := run(t, "seed", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 2 learners")

	store, err := planner.Open(context.Background(), c.DBPath)
	require.NoError(t, err)
	defer store.Close()
	learners, err := store.Learners(context.Background())
	require.NoError(t, err)
	assert.Len(t, learners, 2)
}

func TestConfigCommands(t *testing.T) {
	path, _ := writeConfig(t)

	_, err := run(t, "config", "init", "--config", path)
	assert.ErrorContains(t, err, "already exists")

	out, err := run(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "provider: ollama")
	assert.Contains(t, out, "***")
	assert.NotContains(t, out, "secret")

	fresh := filepath.Join(t.TempDir(), "new.toml")
	out, err = run(t, "config", "init", "--config", fresh)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+fresh)
	ok, err := config.Exists(fresh)
	require.NoError(t, err)
	assert.True(t, ok)
}
