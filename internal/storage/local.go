// Package storage implements the local-disk file store for item photos and
// user avatars.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store writes files under a root directory, organized as items/<itemID>/
// and avatars/<userID>/. Handles returned to callers are paths relative to
// the root, so the root can be relocated without touching the database.
type Store struct {
	root string
}

// NewStore creates a Store rooted at the given directory, creating it if needed.
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("storage root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the storage root directory.
func (s *Store) Root() string {
	return s.root
}

// Abs resolves a stored handle to an absolute path, rejecting traversal.
func (s *Store) Abs(rel string) (string, error) {
	if rel == "" || strings.Contains(rel, "..") || filepath.IsAbs(rel) {
		return "", fmt.Errorf("invalid storage path %q", rel)
	}
	return filepath.Join(s.root, filepath.FromSlash(rel)), nil
}

// SaveItemPhoto writes photo bytes under items/<itemID>/ with a generated
// name preserving the original extension. Returns the relative handle and
// the byte size.
func (s *Store) SaveItemPhoto(itemID uint, filename string, data []byte) (string, int64, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	rel := fmt.Sprintf("items/%d/%s%s", itemID, uuid.New().String(), ext)
	if err := s.write(rel, data); err != nil {
		return "", 0, err
	}
	return rel, int64(len(data)), nil
}

// SaveAvatar writes processed avatar bytes under avatars/<userID>/.
func (s *Store) SaveAvatar(userID uint, data []byte) (string, error) {
	rel := fmt.Sprintf("avatars/%d/%s.webp", userID, uuid.New().String())
	if err := s.write(rel, data); err != nil {
		return "", err
	}
	return rel, nil
}

func (s *Store) write(rel string, data []byte) error {
	abs, err := s.Abs(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("create storage directory: %w", err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Exists reports whether a stored file is present.
func (s *Store) Exists(rel string) bool {
	abs, err := s.Abs(rel)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && !info.IsDir()
}

// ReadFile returns the raw bytes of a stored file.
func (s *Store) ReadFile(rel string) ([]byte, error) {
	abs, err := s.Abs(rel)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(abs)
}

// Delete removes a stored file. A missing file is not an error.
func (s *Store) Delete(rel string) error {
	abs, err := s.Abs(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RemoveItemDir removes an item's whole photo directory, best-effort.
func (s *Store) RemoveItemDir(itemID uint) error {
	return os.RemoveAll(filepath.Join(s.root, "items", fmt.Sprintf("%d", itemID)))
}
