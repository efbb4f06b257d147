package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Discover(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Path)
	assert.Equal(t, DefaultDatabase, cfg.DatabasePath())
	assert.Equal(t, 16, cfg.CapacityPerCategory())
	assert.True(t, cfg.RefreshOnRename())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, `
database: data/vars.db
project: demo
workspace: /abs/ws.yaml
capacity_per_category: 0
refresh_on_rename: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, filepath.Join(dir, "data/vars.db"), cfg.DatabasePath())
	assert.Equal(t, "/abs/ws.yaml", cfg.Workspace)
	assert.Equal(t, "demo", cfg.Project)
	assert.Equal(t, 0, cfg.CapacityPerCategory(), "explicit zero means unlimited")
	assert.False(t, cfg.RefreshOnRename())
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(write(t, t.TempDir(), ""))
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.CapacityPerCategory())
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	_, err := Load(write(t, t.TempDir(), "databse: x.db\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "databse")
}

func TestLoadRejectsNegativeCapacity(t *testing.T) {
	_, err := Load(write(t, t.TempDir(), "capacity_per_category: -1\n"))
	assert.ErrorContains(t, err, "capacity_per_category")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	capacity := 8
	refresh := false
	path := filepath.Join(dir, FileName)

	require.NoError(t, Save(path, &Config{Project: "p1", Capacity: &capacity, Refresh: &refresh}))

	cfg, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, "p1", cfg.Project)
	assert.Equal(t, 8, cfg.CapacityPerCategory())
	assert.False(t, cfg.RefreshOnRename())
}
