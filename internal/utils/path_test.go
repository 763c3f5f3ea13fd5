package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTableDir(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, IsTableDir(dir))
	assert.False(t, IsTableDir(filepath.Join(dir, "missing")))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "freeshiamy.cin"), []byte("a 對\n"), 0644))
	assert.True(t, IsTableDir(dir))
}

func TestGetDataDirAbsolute(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.cin"), []byte("a 對\n"), 0644))

	pr := &PathResolver{executableDir: t.TempDir(), configDir: t.TempDir()}
	assert.Equal(t, dir, pr.GetDataDir(dir))
}

func TestGetDataDirFallsBackToExecutableRelative(t *testing.T) {
	execDir := t.TempDir()
	pr := &PathResolver{executableDir: execDir, configDir: t.TempDir()}
	assert.Equal(t, filepath.Join(execDir, "nowhere"), pr.GetDataDir("nowhere"))
}

func TestGetDataDirConfigData(t *testing.T) {
	configDir := t.TempDir()
	data := filepath.Join(configDir, "data")
	require.NoError(t, os.MkdirAll(data, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(data, "x.cin"), []byte("a 對\n"), 0644))

	pr := &PathResolver{executableDir: t.TempDir(), configDir: configDir}
	assert.Equal(t, data, pr.GetDataDir("nowhere"))
}

func TestGetConfigPath(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "nested", AppDir)
	pr := &PathResolver{executableDir: t.TempDir(), homeDir: t.TempDir(), configDir: configDir}

	assert.Equal(t, filepath.Join(configDir, "freeshiamy.toml"), pr.GetConfigPath("freeshiamy.toml"))
	assert.DirExists(t, configDir)
}

func TestConfigPathFollowsXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME is only read on linux")
	}
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	pr, err := NewPathResolver()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(configHome, AppDir, "freeshiamy.toml"), pr.GetConfigPath("freeshiamy.toml"))
}

func TestSaveAndLoadTOML(t *testing.T) {
	type section struct {
		Limit int  `toml:"limit"`
		On    bool `toml:"on"`
	}
	type doc struct {
		Section section `toml:"section"`
	}

	path := filepath.Join(t.TempDir(), "c.toml")
	require.NoError(t, SaveTOMLFile(doc{Section: section{Limit: 7, On: true}}, path))

	var got doc
	require.NoError(t, LoadTOMLFile(path, &got))
	assert.Equal(t, 7, got.Section.Limit)
	assert.True(t, got.Section.On)

	raw, err := ParseTOMLWithRecovery(path)
	require.NoError(t, err)
	sec, ok := ExtractSection(raw, "section")
	require.True(t, ok)
	limit, ok := ExtractInt64(sec, "limit")
	assert.True(t, ok)
	assert.Equal(t, 7, limit)
	_, ok = ExtractString(sec, "limit")
	assert.False(t, ok)
}
