// Package fileingest finds resume documents on the local filesystem for bulk
// submission.
package fileingest

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileMeta holds metadata about a resume file found on disk.
type FileMeta struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// ResumeExtensions are the document types the resume text extractor reads.
var ResumeExtensions = []string{".pdf", ".docx", ".txt", ".html", ".htm"}

// IsResumeFile reports whether name carries one of ResumeExtensions, ignoring case.
func IsResumeFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ResumeExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

/*
DiscoverResumes recursively finds resume documents under rootDir.

Hidden files and directories are skipped, as are empty files. Paths are
returned absolute and sorted so repeated runs submit in the same order.
*/
func DiscoverResumes(ctx context.Context, rootDir string) ([]FileMeta, error) {
	root, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, err
	}
	var files []FileMeta
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsResumeFile(d.Name()) {
			return nil
		}
		meta, metaErr := ExtractFileMeta(path)
		if metaErr != nil || meta.Size == 0 {
			// unreadable or empty, skip it
			return nil
		}
		files = append(files, meta)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// ExtractFileMeta returns FileMeta for the file at path.
func ExtractFileMeta(path string) (FileMeta, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileMeta{}, err
	}
	return FileMeta{
		Path:    path,
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}
