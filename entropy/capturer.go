package entropy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ruteri/liveness-gated-kms/interfaces"
)

// HTTPCapturer asks a motion capture daemon for a frame burst over HTTP.
//
// GET <endpoint>/capture?device=<ref>&frames=<n>&interval_ms=<ms> is expected
// to answer {"frames": n, "data": "<base64>", "score": 1.5}.
type HTTPCapturer struct {
	endpoint string
	client   *http.Client
}

var _ interfaces.MotionCapturer = (*HTTPCapturer)(nil)

type captureResponse struct {
	Frames int     `json:"frames"`
	Data   []byte  `json:"data"`
	Score  float64 `json:"score"`
}

// NewHTTPCapturer creates a capturer for the given collaborator base URL.
// The context passed to Capture bounds each request.
func NewHTTPCapturer(endpoint string, client *http.Client) (*HTTPCapturer, error) {
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid capture endpoint %q: %w", endpoint, err)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPCapturer{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		client:   client,
	}, nil
}

// Capture implements interfaces.MotionCapturer.
func (c *HTTPCapturer) Capture(ctx context.Context, req interfaces.CaptureRequest) (*interfaces.Capture, error) {
	query := url.Values{}
	query.Set("device", req.Device)
	query.Set("frames", strconv.Itoa(req.Frames))
	query.Set("interval_ms", strconv.FormatInt(req.Interval.Milliseconds(), 10))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/capture?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("capture request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("capture failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed captureResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode capture response: %w", err)
	}

	return &interfaces.Capture{
		Frames: parsed.Frames,
		Data:   parsed.Data,
		Score:  parsed.Score,
	}, nil
}
