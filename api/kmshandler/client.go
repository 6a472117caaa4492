package kmshandler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ruteri/liveness-gated-kms/api"
	"github.com/ruteri/liveness-gated-kms/interfaces"
)

// Client talks to a KMS server. Errors for 401, 403 and decrypt failures
// wrap the matching interfaces sentinel.
type Client struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		APIKey:  apiKey,
		Client:  http.DefaultClient,
	}
}

// Health calls the unauthenticated health probe.
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Unlock opens a new unlock window for owner.
func (c *Client) Unlock(ctx context.Context, owner string) (*api.UnlockResponse, error) {
	var resp api.UnlockResponse
	if err := c.do(ctx, http.MethodPost, "/unlock", api.OwnerRequest{OwnerID: owner}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Encrypt seals plaintext under the owner's key.
func (c *Client) Encrypt(ctx context.Context, owner, plaintext string) (*api.EncryptResponse, error) {
	var resp api.EncryptResponse
	if err := c.do(ctx, http.MethodPost, "/encrypt", api.EncryptRequest{OwnerID: owner, Plaintext: plaintext}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Decrypt opens base64 ciphertext and nonce previously returned by Encrypt.
func (c *Client) Decrypt(ctx context.Context, owner, ciphertext, nonce string) (string, error) {
	var resp api.DecryptResponse
	req := api.DecryptRequest{OwnerID: owner, Ciphertext: ciphertext, Nonce: nonce}
	if err := c.do(ctx, http.MethodPost, "/decrypt", req, &resp); err != nil {
		return "", err
	}
	return resp.Plaintext, nil
}

// Status returns the unlocked and total owner counts.
func (c *Client) Status(ctx context.Context) (*api.StatusResponse, error) {
	var resp api.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("could not encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("could not initialize request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set(api.AuthHeader, c.APIKey)
	}

	httpClient := c.Client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not request kms: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read kms response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("could not parse kms response: %w", err)
	}
	return nil
}

func statusError(code int, body string) error {
	switch {
	case code == http.StatusUnauthorized:
		return fmt.Errorf("%w: kms returned %d", interfaces.ErrUnauthorized, code)
	case code == http.StatusForbidden:
		return fmt.Errorf("%w: kms returned %d", interfaces.ErrVaultLocked, code)
	case code == http.StatusBadRequest && body == interfaces.ErrDecryptionFailed.Error():
		return fmt.Errorf("%w: kms returned %d", interfaces.ErrDecryptionFailed, code)
	default:
		return fmt.Errorf("kms returned %d: %s", code, body)
	}
}
