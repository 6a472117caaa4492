package storage

import (
	"path/filepath"
	"testing"

	"github.com/ruteri/liveness-gated-kms/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateBackendFor(t *testing.T) {
	dir := t.TempDir()
	factory := NewStateBackendFactory(testLogger())

	tests := []struct {
		name     string
		location string
		wantType interface{}
		wantErr  bool
	}{
		{name: "bare path", location: filepath.Join(dir, "a.json"), wantType: &FileBackend{}},
		{name: "absolute file URI", location: "file://" + filepath.Join(dir, "b.json"), wantType: &FileBackend{}},
		{name: "memory", location: "mem://unit", wantType: &MemoryBackend{}},
		{name: "s3", location: "s3://AK:SK@bucket/kms/state.json?region=eu-west-1", wantType: &S3Backend{}},
		{name: "s3 without key", location: "s3://bucket", wantErr: true},
		{name: "vault", location: "vault://127.0.0.1:8200/secret/kms/state?token=root&tls=false", wantType: &VaultBackend{}},
		{name: "vault without data path", location: "vault://127.0.0.1:8200/secret", wantErr: true},
		{name: "file directory", location: "file:///tmp/", wantErr: true},
		{name: "unsupported scheme", location: "ipfs://localhost:5001", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := factory.StateBackendFor(tt.location)
			if tt.wantErr {
				assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, backend)
		})
	}
}

func TestStateBackendFor_VaultLocation(t *testing.T) {
	factory := NewStateBackendFactory(testLogger())

	backend, err := factory.StateBackendFor("vault://127.0.0.1:8200/secret/kms/state?tls=false")
	require.NoError(t, err)

	vb := backend.(*VaultBackend)
	assert.Equal(t, "secret", vb.mountPath)
	assert.Equal(t, "kms/state", vb.dataPath)
	assert.Equal(t, "secret/data/kms/state", vb.secretPath())
	assert.Equal(t, "http://127.0.0.1:8200", vb.client.Address())
}

func TestCreateMultiBackend(t *testing.T) {
	factory := NewStateBackendFactory(testLogger())

	single, err := factory.CreateMultiBackend([]string{"mem://one"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryBackend{}, single)

	multi, err := factory.CreateMultiBackend([]string{"mem://one", "mem://two"})
	require.NoError(t, err)
	assert.IsType(t, &MultiStorageBackend{}, multi)
	assert.Equal(t, "multi:[mem://one,mem://two]", multi.LocationURI())

	_, err = factory.CreateMultiBackend([]string{"mem://one", "bogus://x"})
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)

	_, err = factory.CreateMultiBackend(nil)
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}
