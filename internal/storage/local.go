package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore reads uploads from a directory on the storage mount.
type LocalStore struct {
	root     string
	maxBytes int64
}

func NewLocalStore(root string, maxBytes int64) *LocalStore {
	return &LocalStore{root: root, maxBytes: maxBytes}
}

// Root is the mount directory.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return s.read(ctx, cleanKey(path))
}

func (s *LocalStore) ReadInfo(ctx context.Context, path string) (*FileInfo, error) {
	data, err := s.read(ctx, cleanKey(path)+InfoSuffix)
	if err != nil {
		return nil, err
	}
	return ParseInfo(data)
}

func (s *LocalStore) read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !filepath.IsLocal(name) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPath, name)
	}

	root, err := os.OpenRoot(s.root)
	if err != nil {
		return nil, fmt.Errorf("open storage root: %w", err)
	}
	defer root.Close()

	f, err := root.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, name)
	}
	if s.maxBytes > 0 && st.Size() > s.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, name, st.Size())
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}
