package kmshandler

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ruteri/liveness-gated-kms/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient(t *testing.T) {
	env := setupTestEnvironment(t, stubSource{status: interfaces.EntropyLive, score: 1.25}, time.Minute)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx := context.Background()
	client := NewClient(srv.URL+"/", testAPIKey)

	health, err := client.Health(ctx)
	require.NoError(t, err)
	assert.True(t, health.OK)
	assert.Equal(t, "LIVE", health.EntropyStatus)
	assert.Equal(t, 1.25, health.MotionScore)

	sealed, err := client.Encrypt(ctx, "dave", "top secret")
	require.NoError(t, err)

	_, err = client.Decrypt(ctx, "dave", sealed.Ciphertext, sealed.Nonce)
	assert.ErrorIs(t, err, interfaces.ErrVaultLocked)

	unlocked, err := client.Unlock(ctx, "dave")
	require.NoError(t, err)
	assert.True(t, unlocked.OK)
	assert.False(t, unlocked.UnlockedUntil.IsZero())

	plaintext, err := client.Decrypt(ctx, "dave", sealed.Ciphertext, sealed.Nonce)
	require.NoError(t, err)
	assert.Equal(t, "top secret", plaintext)

	_, err = client.Decrypt(ctx, "dave", sealed.Ciphertext, "AAAA")
	assert.ErrorIs(t, err, interfaces.ErrDecryptionFailed)

	status, err := client.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.UnlockedCount)
	assert.Equal(t, 1, status.TotalOwners)
}

func TestClient_Unauthorized(t *testing.T) {
	env := setupTestEnvironment(t, stubSource{status: interfaces.EntropyDemo}, time.Minute)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	client := NewClient(srv.URL, "wrong")

	_, err := client.Status(context.Background())
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	_, err = client.Unlock(context.Background(), "dave")
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	_, err = client.Health(context.Background())
	assert.NoError(t, err)
}
