package kms

import (
	"context"
	"encoding/base64"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ruteri/liveness-gated-kms/interfaces"
	"github.com/ruteri/liveness-gated-kms/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticSource returns the same status and score on every call.
type staticSource struct {
	status interfaces.EntropyStatus
	score  float64
	calls  atomic.Int32
}

func (s *staticSource) Acquire(context.Context) interfaces.EntropySample {
	s.calls.Add(1)
	return interfaces.EntropySample{Bytes: make([]byte, interfaces.EntropySampleSize), Status: s.status, Score: s.score}
}

func (s *staticSource) Mode() string { return "external" }

func newTestGate(t *testing.T, window time.Duration, source interfaces.EntropySource) (*Gate, *State, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	state := NewState(context.Background(), storage.NewMemoryBackend(t.Name()), testLogger()).WithClock(clock.Now)
	gate, err := NewGate(state, state, source, window, testLogger())
	require.NoError(t, err)
	return gate, state, clock
}

func TestNewGate_InvalidWindow(t *testing.T) {
	state := NewState(context.Background(), nil, testLogger())
	source := &staticSource{status: interfaces.EntropyDemo}

	_, err := NewGate(state, state, source, 0, testLogger())
	assert.ErrorIs(t, err, interfaces.ErrInvalidWindow)

	_, err = NewGate(state, state, nil, time.Minute, testLogger())
	assert.Error(t, err)
}

func TestGate_Enforcement(t *testing.T) {
	gate, state, _ := newTestGate(t, time.Minute, &staticSource{status: interfaces.EntropyDemo})

	envelope, err := gate.RequestEncrypt("dave", []byte("secret"))
	require.NoError(t, err, "encrypt is permitted while locked")
	assert.Equal(t, 1, state.TotalOwners())

	ct, nonce := envelope.EncodeBase64()
	_, err = gate.RequestDecrypt("dave", ct, nonce)
	assert.ErrorIs(t, err, interfaces.ErrVaultLocked)

	// A locked owner never reaches decoding or key creation.
	_, err = gate.RequestDecrypt("erin", "%%%", "%%%")
	assert.ErrorIs(t, err, interfaces.ErrVaultLocked)
	assert.Equal(t, 1, state.TotalOwners())
}

func TestGate_AliceScenario(t *testing.T) {
	gate, state, clock := newTestGate(t, 5*time.Second, &staticSource{status: interfaces.EntropyLow})

	result, err := gate.RequestUnlock(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(5*time.Second), result.UnlockedUntil)

	envelope, err := gate.RequestEncrypt("alice", []byte("hello"))
	require.NoError(t, err)
	ct, nonce := envelope.EncodeBase64()

	plaintext, err := gate.RequestDecrypt("alice", ct, nonce)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(plaintext))

	clock.Advance(6 * time.Second)
	_, err = gate.RequestDecrypt("alice", ct, nonce)
	assert.ErrorIs(t, err, interfaces.ErrVaultLocked)
	assert.Equal(t, 1, state.TotalOwners(), "key survives the lock")
}

func TestGate_UnlockAlwaysGrants(t *testing.T) {
	for _, status := range []interfaces.EntropyStatus{interfaces.EntropyLive, interfaces.EntropyLow, interfaces.EntropyDemo} {
		t.Run(string(status), func(t *testing.T) {
			source := &staticSource{status: status}
			gate, state, _ := newTestGate(t, time.Minute, source)

			result, err := gate.RequestUnlock(context.Background(), "frank")
			require.NoError(t, err)
			assert.Equal(t, status, result.Sample.Status)
			assert.True(t, state.IsUnlocked("frank"))
			assert.EqualValues(t, 1, source.calls.Load())
		})
	}
}

func TestGate_ReunlockExtendsFromNow(t *testing.T) {
	gate, state, clock := newTestGate(t, 10*time.Second, &staticSource{status: interfaces.EntropyLive, score: 3})

	_, err := gate.RequestUnlock(context.Background(), "grace")
	require.NoError(t, err)

	clock.Advance(9 * time.Second)
	second, err := gate.RequestUnlock(context.Background(), "grace")
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(10*time.Second), second.UnlockedUntil)

	clock.Advance(9 * time.Second)
	assert.True(t, state.IsUnlocked("grace"))
}

func TestGate_DecryptFailures(t *testing.T) {
	gate, _, _ := newTestGate(t, time.Minute, &staticSource{status: interfaces.EntropyDemo})

	_, err := gate.RequestUnlock(context.Background(), "heidi")
	require.NoError(t, err)
	envelope, err := gate.RequestEncrypt("heidi", []byte("payload"))
	require.NoError(t, err)
	ct, nonce := envelope.EncodeBase64()

	t.Run("tampered ciphertext", func(t *testing.T) {
		tampered := append([]byte(nil), envelope.Ciphertext...)
		tampered[0] ^= 0x01
		_, err := gate.RequestDecrypt("heidi", base64.StdEncoding.EncodeToString(tampered), nonce)
		assert.ErrorIs(t, err, interfaces.ErrDecryptionFailed)
		assert.ErrorIs(t, err, interfaces.ErrAuthenticationFailure)
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, err := gate.RequestDecrypt("heidi", "not base64!", nonce)
		assert.ErrorIs(t, err, interfaces.ErrDecryptionFailed)
		assert.ErrorIs(t, err, interfaces.ErrMalformedEncoding)
	})

	t.Run("short nonce", func(t *testing.T) {
		_, err := gate.RequestDecrypt("heidi", ct, base64.StdEncoding.EncodeToString([]byte("short")))
		assert.ErrorIs(t, err, interfaces.ErrDecryptionFailed)
		assert.ErrorIs(t, err, interfaces.ErrMalformedEncoding)
	})

	t.Run("other owner's key", func(t *testing.T) {
		_, err := gate.RequestUnlock(context.Background(), "ivan")
		require.NoError(t, err)
		_, err = gate.RequestDecrypt("ivan", ct, nonce)
		assert.ErrorIs(t, err, interfaces.ErrDecryptionFailed)
	})
}

func TestGate_StatusAndHealth(t *testing.T) {
	source := &staticSource{status: interfaces.EntropyLive, score: 2.5}
	gate, _, clock := newTestGate(t, time.Minute, source)

	assert.Equal(t, StatusReport{}, gate.Status())

	_, err := gate.RequestUnlock(context.Background(), "judy")
	require.NoError(t, err)
	_, err = gate.RequestEncrypt("judy", []byte("x"))
	require.NoError(t, err)
	_, err = gate.RequestEncrypt("mallory", []byte("y"))
	require.NoError(t, err)

	assert.Equal(t, StatusReport{UnlockedCount: 1, TotalOwners: 2}, gate.Status())

	clock.Advance(2 * time.Minute)
	assert.Equal(t, StatusReport{UnlockedCount: 0, TotalOwners: 2}, gate.Status())

	health := gate.Health(context.Background())
	assert.Equal(t, "external", health.Mode)
	assert.Equal(t, interfaces.EntropyLive, health.Sample.Status)
	assert.Equal(t, 2.5, health.Sample.Score)
}
