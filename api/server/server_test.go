package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/liveness-gated-kms/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("pong")) })
}

func newTestServer(t *testing.T, pprof bool) *Server {
	t.Helper()
	srv, err := New(&api.HTTPServerConfig{
		ListenAddr:  "127.0.0.1:0",
		EnablePprof: pprof,
		Log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, pingHandler{})
	require.NoError(t, err)
	return srv
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr.Code, rr.Body.String()
}

func TestServer_Routes(t *testing.T) {
	h := newTestServer(t, false).Handler()

	code, body := get(t, h, "/ping")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "pong", body)

	code, body = get(t, h, "/livez")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"alive"}`, body)

	code, _ = get(t, h, "/debug/pprof/")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_DrainUndrain(t *testing.T) {
	h := newTestServer(t, false).Handler()

	code, _ := get(t, h, "/readyz")
	assert.Equal(t, http.StatusOK, code)

	_, body := get(t, h, "/drain")
	assert.JSONEq(t, `{"status":"draining"}`, body)
	_, body = get(t, h, "/drain")
	assert.JSONEq(t, `{"status":"already draining"}`, body)

	code, _ = get(t, h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	_, body = get(t, h, "/undrain")
	assert.JSONEq(t, `{"status":"ready"}`, body)
	_, body = get(t, h, "/undrain")
	assert.JSONEq(t, `{"status":"already ready"}`, body)

	code, _ = get(t, h, "/readyz")
	assert.Equal(t, http.StatusOK, code)
}

func TestServer_Pprof(t *testing.T) {
	h := newTestServer(t, true).Handler()

	code, _ := get(t, h, "/debug/pprof/")
	assert.Equal(t, http.StatusOK, code)
}
