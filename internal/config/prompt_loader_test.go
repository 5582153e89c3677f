package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPromptContentAbsolute(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evaluate.txt")
	require.NoError(t, os.WriteFile(path, []byte("score this resume"), 0o600))

	got, err := LoadPromptContent(path, "ignored.txt")
	require.NoError(t, err)
	assert.Equal(t, "score this resume", got)
}

func TestLoadPromptContentFromUserConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	cfgDir, err := os.UserConfigDir()
	require.NoError(t, err)
	dir := filepath.Join(cfgDir, promptDirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "evaluate.txt"), []byte("from config dir"), 0o600))

	got, err := LoadPromptContent("", "evaluate.txt")
	require.NoError(t, err)
	assert.Equal(t, "from config dir", got)
}

func TestLoadPromptContentMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	_, err := LoadPromptContent("does-not-exist-prompt.txt", "evaluate.txt")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadPromptContentEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

	_, err := LoadPromptContent(path, "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, fs.ErrNotExist)
}

func TestPromptSearchPaths(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "p.txt")
	assert.Equal(t, []string{abs}, PromptSearchPaths(abs, "evaluate.txt"))

	cfgDir, err := os.UserConfigDir()
	require.NoError(t, err)
	assert.Equal(t, []string{"evaluate.txt", filepath.Join(cfgDir, promptDirName, "evaluate.txt")},
		PromptSearchPaths(" ", "evaluate.txt"))
}
