// Package blob is the local-disk keyed store for memory image attachments:
// path format <workspace>/<memory_id>/<filename>.
package blob

import (
	"io"
	"os"
	"path/filepath"

	"memento/internal/apperr"
)

// MaxImageSize is the per-image cap (10 MiB).
const MaxImageSize = 10 << 20

// MaxImagesPerMemory is the inline-attachment cap.
const MaxImagesPerMemory = 5

// AllowedMimeTypes is the closed set of accepted image content types.
var AllowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Store is a local-disk blob store rooted at dir.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// Put writes content under <workspace>/<memoryID>/<filename>, creating
// intermediate directories as needed.
func (s *Store) Put(workspaceID, memoryID, filename string, content []byte) error {
	path, err := s.path(workspaceID, memoryID, filename)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperr.NewInternal("blob: create directory", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return apperr.NewInternal("blob: write file", err)
	}
	return nil
}

// Get reads a previously stored blob.
func (s *Store) Get(workspaceID, memoryID, filename string) ([]byte, error) {
	path, err := s.path(workspaceID, memoryID, filename)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NewNotFound("image")
		}
		return nil, apperr.NewInternal("blob: open file", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, apperr.NewInternal("blob: read file", err)
	}
	return data, nil
}

// DeleteMemory removes every blob stored for memoryID, as part of a
// memory's delete cascade.
func (s *Store) DeleteMemory(workspaceID, memoryID string) error {
	dir := filepath.Join(s.dir, workspaceID, memoryID)
	if err := os.RemoveAll(dir); err != nil {
		return apperr.NewInternal("blob: delete memory images", err)
	}
	return nil
}

func (s *Store) path(workspaceID, memoryID, filename string) (string, error) {
	clean := filepath.Base(filename)
	if clean == "." || clean == ".." || clean == string(filepath.Separator) {
		return "", apperr.NewValidation("invalid image filename")
	}
	return filepath.Join(s.dir, workspaceID, memoryID, clean), nil
}
