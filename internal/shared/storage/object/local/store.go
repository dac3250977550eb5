package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"coverletter-backend/internal/shared/storage/object"
)

// MaxObjectBytes caps a single stored object. Previews are small PNGs.
const MaxObjectBytes = 8 << 20

var errTooLarge = errors.New("object exceeds size limit")

// Store keeps objects under a directory on the local filesystem. Reads and
// deletes go through os.Root so symlinks cannot escape the base directory.
type Store struct {
	baseDir string
}

// New creates a store rooted at baseDir. The directory is created lazily on
// the first write.
func New(baseDir string) *Store {
	return &Store{baseDir: filepath.Clean(baseDir)}
}

// Open returns the object at storageKey. Missing objects report os.ErrNotExist.
func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, err := relativeKey(storageKey)
	if err != nil {
		return nil, err
	}
	root, err := os.OpenRoot(s.baseDir)
	if err != nil {
		return nil, err
	}
	defer root.Close()
	return root.Open(rel)
}

// SaveWithKey writes r to storageKey through a sibling temp file, so readers
// never observe a partial preview.
func (s *Store) SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	rel, err := relativeKey(storageKey)
	if err != nil {
		return 0, err
	}
	fullPath := filepath.Join(s.baseDir, rel)
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create object dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".object-*")
	if err != nil {
		return 0, fmt.Errorf("create temp object: %w", err)
	}
	written, err := io.Copy(tmp, io.LimitReader(r, MaxObjectBytes+1))
	if err == nil && written > MaxObjectBytes {
		err = errTooLarge
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("write object %s: %w", storageKey, err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("publish object %s: %w", storageKey, err)
	}
	return written, nil
}

// Delete removes the object; a missing object is not an error.
func (s *Store) Delete(ctx context.Context, storageKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := relativeKey(storageKey)
	if err != nil {
		return err
	}
	root, err := os.OpenRoot(s.baseDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer root.Close()
	if err := root.Remove(rel); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete object %s: %w", storageKey, err)
	}
	return nil
}

func relativeKey(storageKey string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(storageKey))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("%w: %q", object.ErrInvalidKey, storageKey)
	}
	return clean, nil
}

var _ object.ObjectStore = (*Store)(nil)
