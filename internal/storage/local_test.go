package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autotag/internal/storage"
)

func writeUpload(t *testing.T, root, path, content, info string) {
	t.Helper()
	full := filepath.Join(root, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	if info != "" {
		require.NoError(t, os.WriteFile(full+storage.InfoSuffix, []byte(info), 0o644))
	}
}

func TestLocalStore_ReadFileAndInfo(t *testing.T) {
	root := t.TempDir()
	writeUpload(t, root, "abc123", "quarterly sales rose 10%",
		`{"ID":"abc123","Size":24,"MetaData":{"filename":"report.pdf","filetype":"application/pdf"}}`)

	s := storage.NewLocalStore(root, 0)
	ctx := context.Background()

	data, err := s.ReadFile(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "quarterly sales rose 10%", string(data))

	info, err := s.ReadInfo(ctx, "/abc123")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", info.Filename())
	assert.Equal(t, "application/pdf", info.FileType())
	assert.Equal(t, int64(24), info.Size)
	assert.Equal(t, root, s.Root())
}

func TestLocalStore_Errors(t *testing.T) {
	root := t.TempDir()
	writeUpload(t, root, "big", "0123456789", "")
	writeUpload(t, root, "broken", "x", `{not json`)
	writeUpload(t, root, "nameless", "x", `{"MetaData":{"filetype":"text/plain"}}`)
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir"), 0o755))

	s := storage.NewLocalStore(root, 5)
	ctx := context.Background()

	_, err := s.ReadFile(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.ReadFile(ctx, "big")
	assert.ErrorIs(t, err, storage.ErrTooLarge)

	_, err = s.ReadFile(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, storage.ErrInvalidPath)

	_, err = s.ReadFile(ctx, "dir")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.ReadInfo(ctx, "big")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.ReadInfo(ctx, "broken")
	assert.Error(t, err)

	_, err = s.ReadInfo(ctx, "nameless")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "filename")
}

func TestLocalStore_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeUpload(t, root, "a", "x", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := storage.NewLocalStore(root, 0).ReadFile(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseInfo(t *testing.T) {
	info, err := storage.ParseInfo([]byte(`{"ID":"x","MetaData":{"filename":" photo.JPG "}}`))
	require.NoError(t, err)
	assert.Equal(t, "photo.JPG", info.Filename())
}
