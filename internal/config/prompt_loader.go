package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// promptDirName is the prompt directory below the user config directory.
const promptDirName = "aicruit/prompts"

// PromptSearchPaths lists where a prompt named configured is looked up, in
// order. An absolute path is the only candidate. A relative one is tried
// against the working directory and then the user prompt directory
// (~/.config/aicruit/prompts on Linux). Empty configured uses defaultFilename.
func PromptSearchPaths(configured, defaultFilename string) []string {
	name := strings.TrimSpace(configured)
	if name == "" {
		name = defaultFilename
	}
	if filepath.IsAbs(name) {
		return []string{name}
	}
	paths := []string{filepath.Clean(name)}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, promptDirName, name))
	}
	return paths
}

// LoadPromptContent reads the first existing prompt from PromptSearchPaths.
// When none exists the returned error wraps fs.ErrNotExist so callers can
// fall back to a built-in prompt.
func LoadPromptContent(configured, defaultFilename string) (string, error) {
	paths := PromptSearchPaths(configured, defaultFilename)
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to read prompt file '%s': %w", p, err)
		}
		if strings.TrimSpace(string(b)) == "" {
			return "", fmt.Errorf("prompt file '%s' is empty", p)
		}
		return string(b), nil
	}
	return "", fmt.Errorf("no prompt file found in %s: %w", strings.Join(paths, ", "), fs.ErrNotExist)
}
