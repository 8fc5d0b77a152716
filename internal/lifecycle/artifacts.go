package lifecycle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gosimple/slug"
	"github.com/spf13/afero"
)

// Artifact kinds, used as file name suffixes.
const (
	KindScreenshot = "screenshot"
	KindPluginLogs = "plugin"
	KindServerLog  = "server"
	KindVideo      = "video"
)

// ArtifactName turns a test name such as "TestShare/last_owner" into a file
// name safe stem.
func ArtifactName(test string) string {
	name := slug.Make(test)
	if name == "" {
		return "unnamed"
	}
	return name
}

// Store writes test artifacts below their configured directories.
type Store struct {
	fs afero.Fs
}

// NewStore returns a store over fs.
func NewStore(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// Fs returns the underlying filesystem.
func (s *Store) Fs() afero.Fs { return s.fs }

// Write stores data as dir/file, creating dir. It returns the written path.
func (s *Store) Write(dir, file string, data []byte) (string, error) {
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating artifact directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, file)
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing artifact %s: %w", path, err)
	}
	return path, nil
}

// Remove deletes path. A missing file is not an error.
func (s *Store) Remove(path string) error {
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing artifact %s: %w", path, err)
	}
	return nil
}
