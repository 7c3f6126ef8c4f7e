package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/codex-k8s/meshgen/internal/fsutil"
)

// File is a file prepared in memory, relative to a generator's target directory.
type File struct {
	// Path is the directory relative to the target directory ("" for the root).
	Path string
	// Name is the file name.
	Name string
	// Contents holds the file bytes.
	Contents []byte
	// Mode is the file permission; zero means 0o644.
	Mode os.FileMode
}

// RelPath returns the file path relative to the target directory.
func (f File) RelPath() string {
	return filepath.Join(f.Path, f.Name)
}

// FileSet is an ordered set of prepared files keyed by relative path.
type FileSet struct {
	files []File
}

// Add stores f, replacing an earlier file with the same relative path in place.
func (s *FileSet) Add(f File) {
	rel := f.RelPath()
	for i := range s.files {
		if s.files[i].RelPath() == rel {
			s.files[i] = f
			return
		}
	}
	s.files = append(s.files, f)
}

// Get returns the file stored at the relative path built from dir and name.
func (s *FileSet) Get(dir, name string) (File, bool) {
	rel := filepath.Join(dir, name)
	for _, f := range s.files {
		if f.RelPath() == rel {
			return f, true
		}
	}
	return File{}, false
}

// Files returns the prepared files in insertion order.
func (s *FileSet) Files() []File {
	return append([]File(nil), s.files...)
}

// Len returns the number of prepared files.
func (s *FileSet) Len() int {
	return len(s.files)
}

// Reset drops every prepared file.
func (s *FileSet) Reset() {
	s.files = nil
}

// Write writes every file under root in insertion order.
func (s *FileSet) Write(ctx context.Context, root string) error {
	if root == "" {
		return fmt.Errorf("target directory is empty")
	}
	for _, f := range s.files {
		if err := ctx.Err(); err != nil {
			return err
		}
		mode := f.Mode
		if mode == 0 {
			mode = 0o644
		}
		path := filepath.Join(root, f.RelPath())
		if err := fsutil.WriteFileAtomic(path, f.Contents, mode); err != nil {
			return fmt.Errorf("write file %q: %w", path, err)
		}
	}
	return nil
}
