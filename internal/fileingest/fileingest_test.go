package fileingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscoverResumes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.PDF"), "%PDF-1.4")
	writeFile(t, filepath.Join(dir, "a.docx"), "PK")
	writeFile(t, filepath.Join(dir, "nested", "c.txt"), "resume")
	writeFile(t, filepath.Join(dir, "notes.md"), "# not a resume")
	writeFile(t, filepath.Join(dir, "empty.pdf"), "")
	writeFile(t, filepath.Join(dir, ".hidden", "d.pdf"), "%PDF-1.4")
	writeFile(t, filepath.Join(dir, ".e.pdf"), "%PDF-1.4")

	files, err := DiscoverResumes(context.Background(), dir)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		assert.True(t, filepath.IsAbs(f.Path))
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"a.docx", "b.PDF", "c.txt"}, names)
}

func TestDiscoverResumesMissingDir(t *testing.T) {
	_, err := DiscoverResumes(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestDiscoverResumesCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.pdf"), "%PDF-1.4")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DiscoverResumes(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsResumeFile(t *testing.T) {
	assert.True(t, IsResumeFile("cv.pdf"))
	assert.True(t, IsResumeFile("CV.HTM"))
	assert.False(t, IsResumeFile("cv.md"))
	assert.False(t, IsResumeFile("pdf"))
}
