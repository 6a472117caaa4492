package entropy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ruteri/liveness-gated-kms/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPCapturer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/capture" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "2", r.URL.Query().Get("device"))
		assert.Equal(t, "10", r.URL.Query().Get("frames"))
		assert.Equal(t, "100", r.URL.Query().Get("interval_ms"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"frames":10,"data":"aGVsbG8=","score":2.5}`))
	}))
	defer srv.Close()

	capturer, err := NewHTTPCapturer(srv.URL+"/", nil)
	require.NoError(t, err)

	capture, err := capturer.Capture(context.Background(), interfaces.CaptureRequest{
		Device:   "2",
		Frames:   10,
		Interval: 100 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, capture.Frames)
	assert.Equal(t, []byte("hello"), capture.Data)
	assert.Equal(t, 2.5, capture.Score)
}

func TestHTTPCapturer_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "camera busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	capturer, err := NewHTTPCapturer(srv.URL, nil)
	require.NoError(t, err)

	_, err = capturer.Capture(context.Background(), interfaces.CaptureRequest{Frames: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "camera busy")

	_, err = NewHTTPCapturer("not a url", nil)
	assert.Error(t, err)
}

func TestHTTPCapturer_FeedsSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"frames":10,"data":"AAAA","score":1.7}`))
	}))
	defer srv.Close()

	capturer, err := NewHTTPCapturer(srv.URL, srv.Client())
	require.NoError(t, err)

	src := externalSource(t, capturer)
	sample := src.Acquire(context.Background())
	assert.Equal(t, interfaces.EntropyLive, sample.Status)
	assert.Equal(t, 1.7, sample.Score)
	assert.Equal(t, "external", src.Mode())
}
