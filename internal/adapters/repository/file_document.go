package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/stockmanager/core/internal/domain/entities"
	"github.com/stockmanager/core/internal/ports"
)

// emptyDocument is the encoding of an empty collection
var emptyDocument = []byte("[]")

// FileDocumentStore keeps the item document on a filesystem
type FileDocumentStore struct {
	fs      afero.Fs
	baseDir string
}

// NewFileDocumentStore creates a document store rooted at baseDir. Relative
// keys are resolved against baseDir; an empty baseDir means the working directory.
func NewFileDocumentStore(fsys afero.Fs, baseDir string) ports.DocumentStore {
	return &FileDocumentStore{fs: fsys, baseDir: baseDir}
}

func (s *FileDocumentStore) path(key string) string {
	if filepath.IsAbs(key) || s.baseDir == "" {
		return key
	}
	return filepath.Join(s.baseDir, key)
}

func (s *FileDocumentStore) EnsureExists(ctx context.Context, key string) error {
	path := s.path(key)

	exists, err := afero.Exists(s.fs, path)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", entities.ErrStorage, path, err)
	}
	if exists {
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create directory %s: %v", entities.ErrStorage, dir, err)
		}
	}

	if err := afero.WriteFile(s.fs, path, emptyDocument, 0o644); err != nil {
		return fmt.Errorf("%w: create %s: %v", entities.ErrStorage, path, err)
	}
	return nil
}

func (s *FileDocumentStore) Read(ctx context.Context, key string) ([]byte, error) {
	path := s.path(key)

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", entities.ErrStorage, path, err)
	}
	return data, nil
}

// Write replaces the document through a temporary file and a rename, so a
// reader never observes a half-written document.
func (s *FileDocumentStore) Write(ctx context.Context, key string, data []byte) error {
	path := s.path(key)
	temp := path + ".tmp"

	if err := afero.WriteFile(s.fs, temp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", entities.ErrStorage, temp, err)
	}
	if err := s.fs.Rename(temp, path); err != nil {
		_ = s.fs.Remove(temp)
		return fmt.Errorf("%w: replace %s: %v", entities.ErrStorage, path, err)
	}
	return nil
}

// HealthCheck verifies the base directory is reachable
func (s *FileDocumentStore) HealthCheck(ctx context.Context) error {
	dir := s.baseDir
	if dir == "" {
		dir = "."
	}
	info, err := s.fs.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: document directory: %v", entities.ErrStorage, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", entities.ErrStorage, dir)
	}
	return nil
}

// NewOSFileDocumentStore is the production constructor backed by the real filesystem
func NewOSFileDocumentStore(baseDir string) ports.DocumentStore {
	return NewFileDocumentStore(afero.NewOsFs(), baseDir)
}
