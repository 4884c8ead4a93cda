package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore is the thin interface the workflow uses for document persistence.
// Writes happen before the owning DB transaction commits; an orphaned file
// after a rollback is acceptable, a committed row pointing at a missing file
// is not.
type FileStore interface {
	Store(data []byte, path string) (string, error)
	Exists(path string) bool
	Download(path string) ([]byte, error)
	Delete(path string) error
}

// LocalFileStore keeps documents under a base directory on disk.
type LocalFileStore struct {
	BaseDir string
}

// NewLocalFileStore creates a local file store rooted at baseDir, defaulting
// to the DOCUMENT_DIR env variable or "documents".
func NewLocalFileStore(baseDir string) *LocalFileStore {
	if baseDir == "" {
		baseDir = os.Getenv("DOCUMENT_DIR")
	}
	if baseDir == "" {
		baseDir = "documents"
	}
	return &LocalFileStore{BaseDir: baseDir}
}

func (fs *LocalFileStore) resolve(path string) (string, error) {
	clean := filepath.Clean("/" + path)
	if strings.Contains(clean, "..") {
		return "", fmt.Errorf("invalid path: %s", path)
	}
	return filepath.Join(fs.BaseDir, clean), nil
}

// Store writes data to path, creating parent directories as needed.
func (fs *LocalFileStore) Store(data []byte, path string) (string, error) {
	full, err := fs.resolve(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), os.ModePerm); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// Exists reports whether path is present in storage.
func (fs *LocalFileStore) Exists(path string) bool {
	full, err := fs.resolve(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

// Download reads the file at path.
func (fs *LocalFileStore) Download(path string) ([]byte, error) {
	full, err := fs.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

// Delete removes the file at path.
func (fs *LocalFileStore) Delete(path string) error {
	full, err := fs.resolve(path)
	if err != nil {
		return err
	}
	return os.Remove(full)
}
