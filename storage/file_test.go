package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ruteri/liveness-gated-kms/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileBackend_LoadSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "state.json")

	backend, err := NewFileBackend(path, testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = backend.Load(ctx)
	assert.ErrorIs(t, err, interfaces.ErrStateNotFound)

	require.NoError(t, backend.Save(ctx, []byte(`{"v":1}`)))
	require.NoError(t, backend.Save(ctx, []byte(`{"v":2}`)))

	data, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// No temporary files are left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	assert.True(t, backend.Available(ctx))
	assert.Equal(t, "file-state.json", backend.Name())
	assert.Equal(t, "file://"+path, backend.LocationURI())
}

func TestFileBackend_EmptyPath(t *testing.T) {
	_, err := NewFileBackend("", testLogger())
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}

func TestMemoryBackend(t *testing.T) {
	backend := NewMemoryBackend("test")
	ctx := context.Background()

	_, err := backend.Load(ctx)
	assert.ErrorIs(t, err, interfaces.ErrStateNotFound)

	input := []byte("doc")
	require.NoError(t, backend.Save(ctx, input))
	input[0] = 'X'

	data, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "doc", string(data))
	assert.Equal(t, 1, backend.Saves())
	assert.Equal(t, "mem://test", backend.LocationURI())
}
