package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage persists uploaded videos on the local filesystem under a
// single root directory.
type LocalStorage struct {
	root string
}

// NewLocalStorage creates the root directory if it does not exist and returns
// a store rooted there. MkdirAll makes directory creation idempotent and safe
// under concurrent construction.
func NewLocalStorage(root string) (*LocalStorage, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("local storage: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory %s: %w", root, err)
	}
	return &LocalStorage{root: root}, nil
}

// AssignName produces a collision-free destination name for an accepted
// upload. Only the extension of the client-supplied name is trusted.
func AssignName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return uuid.NewString() + ext
}

// Save writes the content to the assigned name under the storage root and
// returns the absolute path of the written file. Nothing is left behind on a
// failed write.
func (s *LocalStorage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("local storage: empty name")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("ensure upload directory: %w", err)
	}

	dest := filepath.Join(s.root, filepath.Base(name))
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("write %s: %w", dest, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("close %s: %w", dest, err)
	}

	return dest, nil
}

// Open returns the stored file for reading. The caller owns the handle and
// must close it.
func (s *LocalStorage) Open(name string) (*os.File, error) {
	return os.Open(filepath.Join(s.root, filepath.Base(name)))
}

// Path returns the absolute location of a stored file without opening it.
func (s *LocalStorage) Path(name string) string {
	return filepath.Join(s.root, filepath.Base(name))
}

// Remove deletes a stored file. Missing files are not an error.
func (s *LocalStorage) Remove(name string) error {
	err := os.Remove(filepath.Join(s.root, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
