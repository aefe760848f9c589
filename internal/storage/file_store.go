package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/spf13/afero"
)

// FileStore writes files into a directory of an afero filesystem.
type FileStore struct {
	fs      afero.Fs
	urlBase string
}

// NewFileStore roots the store at dir on fs, creating it if needed.
// Saved files are reachable at urlBase/<name>.
func NewFileStore(fs afero.Fs, dir, urlBase string) (*FileStore, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return &FileStore{
		fs:      afero.NewBasePathFs(fs, dir),
		urlBase: urlBase,
	}, nil
}

func (s *FileStore) Save(_ context.Context, name string, data []byte, _ string) error {
	if name == "" || name != path.Base(name) {
		return fmt.Errorf("invalid file name %q", name)
	}
	if err := afero.WriteFile(s.fs, name, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, name string) error {
	if name == "" || name != path.Base(name) {
		return fmt.Errorf("invalid file name %q", name)
	}
	if err := s.fs.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) URL(name string) string {
	return path.Join(s.urlBase, name)
}
