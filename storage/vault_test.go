package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ruteri/liveness-gated-kms/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVault emulates the KV v2 read/write and health endpoints.
type fakeVault struct {
	mu      sync.Mutex
	content map[string]interface{}
	token   string
}

func (f *fakeVault) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path == "/v1/sys/health" {
		json.NewEncoder(w).Encode(map[string]interface{}{"initialized": true, "sealed": false})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = r.Header.Get("X-Vault-Token")

	if r.URL.Path != "/v1/secret/data/kms/state" {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errors":[]}`))
		return
	}

	switch r.Method {
	case http.MethodGet:
		if f.content == nil {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"errors":[]}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"data": f.content},
		})
	case http.MethodPut, http.MethodPost:
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		f.content = body["data"].(map[string]interface{})
		json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]interface{}{"version": 1}})
	}
}

func TestVaultBackend_LoadSave(t *testing.T) {
	fake := &fakeVault{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	backend, err := NewVaultBackend(srv.URL, "secret/", "/kms/state/", "root-token", testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = backend.Load(ctx)
	assert.ErrorIs(t, err, interfaces.ErrStateNotFound)

	require.NoError(t, backend.Save(ctx, []byte(`{"master_keys":{}}`)))
	assert.Equal(t, "root-token", fake.token)

	data, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"master_keys":{}}`, string(data))

	assert.True(t, backend.Available(ctx))
	assert.Equal(t, "vault-secret-kms/state", backend.Name())
}
