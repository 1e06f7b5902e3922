package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"docassist-web/internal/shared/storage/object"
)

// Store implements ObjectStore on the local filesystem.
type Store struct {
	baseDir string
}

// New creates a local object store rooted at baseDir.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Put writes r under the owner's directory with a random prefix.
func (s *Store) Put(ctx context.Context, ownerID, fileName, contentType string, r io.Reader) (object.Object, error) {
	key, err := object.NewKey(ownerID, fileName)
	if err != nil {
		return object.Object{}, fmt.Errorf("sanitize file name: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return object.Object{}, err
	}

	body, contentType, err := object.Sniff(r, contentType)
	if err != nil {
		return object.Object{}, fmt.Errorf("read sniff: %w", err)
	}

	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return object.Object{}, fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return object.Object{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, body)
	if err != nil {
		return object.Object{}, fmt.Errorf("write body: %w", err)
	}
	return object.Object{Key: key, Size: written, ContentType: contentType}, nil
}

// Open opens a stored object for reading.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(ctx, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, object.ErrNotFound
	}
	return f, err
}

// Delete removes a stored object.
func (s *Store) Delete(ctx context.Context, key string) error {
	fullPath, err := s.resolve(ctx, key)
	if err != nil {
		return err
	}
	err = os.Remove(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return object.ErrNotFound
	}
	return err
}

func (s *Store) resolve(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !object.ValidKey(key) {
		return "", fmt.Errorf("invalid storage key")
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(filepath.Clean(key))), nil
}

var _ object.ObjectStore = (*Store)(nil)
