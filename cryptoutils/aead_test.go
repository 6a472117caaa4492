package cryptoutils

import (
	"bytes"
	"testing"

	"github.com/ruteri/liveness-gated-kms/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen_RoundTrip(t *testing.T) {
	key, err := RandomKey()
	require.NoError(t, err)

	testCases := []struct {
		name string
		data []byte
	}{
		{name: "Simple string", data: []byte("hello")},
		{name: "JSON data", data: []byte(`{"username":"admin","password":"secret123"}`)},
		{name: "Binary data", data: []byte{0x00, 0x01, 0x02, 0x03, 0xFF, 0xFE, 0xFD}},
		{name: "Empty data", data: []byte{}},
		{name: "Long data", data: make([]byte, 64*1024)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			envelope, err := Seal(key, tc.data)
			require.NoError(t, err)
			assert.Len(t, envelope.Nonce, NonceSize)
			assert.Len(t, envelope.Ciphertext, len(tc.data)+TagSize)

			plaintext, err := Open(key, envelope)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(tc.data, plaintext))
		})
	}
}

func TestSealOpen_InvalidKeyLength(t *testing.T) {
	for _, size := range []int{0, 16, 31, 33, 64} {
		_, err := Seal(make([]byte, size), []byte("data"))
		assert.ErrorIs(t, err, interfaces.ErrInvalidKeyLength, "size %d", size)

		_, err = Open(make([]byte, size), interfaces.Envelope{Ciphertext: make([]byte, 32), Nonce: make([]byte, NonceSize)})
		assert.ErrorIs(t, err, interfaces.ErrInvalidKeyLength, "size %d", size)
	}
}

func TestOpen_TamperDetection(t *testing.T) {
	key, err := RandomKey()
	require.NoError(t, err)

	envelope, err := Seal(key, []byte("attack at dawn"))
	require.NoError(t, err)

	for i := 0; i < len(envelope.Ciphertext)*8; i++ {
		tampered := interfaces.Envelope{
			Ciphertext: bytes.Clone(envelope.Ciphertext),
			Nonce:      envelope.Nonce,
		}
		tampered.Ciphertext[i/8] ^= 1 << (i % 8)

		plaintext, err := Open(key, tampered)
		require.ErrorIs(t, err, interfaces.ErrAuthenticationFailure, "ciphertext bit %d", i)
		assert.Nil(t, plaintext)
	}

	for i := 0; i < len(envelope.Nonce)*8; i++ {
		tampered := interfaces.Envelope{
			Ciphertext: envelope.Ciphertext,
			Nonce:      bytes.Clone(envelope.Nonce),
		}
		tampered.Nonce[i/8] ^= 1 << (i % 8)

		plaintext, err := Open(key, tampered)
		require.ErrorIs(t, err, interfaces.ErrAuthenticationFailure, "nonce bit %d", i)
		assert.Nil(t, plaintext)
	}
}

func TestOpen_WrongKey(t *testing.T) {
	k1, err := RandomKey()
	require.NoError(t, err)
	k2, err := RandomKey()
	require.NoError(t, err)

	envelope, err := Seal(k1, []byte("secret"))
	require.NoError(t, err)

	_, err = Open(k2, envelope)
	assert.ErrorIs(t, err, interfaces.ErrAuthenticationFailure)
}

func TestOpen_MalformedLayout(t *testing.T) {
	key, err := RandomKey()
	require.NoError(t, err)

	envelope, err := Seal(key, []byte("secret"))
	require.NoError(t, err)

	_, err = Open(key, interfaces.Envelope{Ciphertext: envelope.Ciphertext, Nonce: envelope.Nonce[:8]})
	assert.ErrorIs(t, err, interfaces.ErrMalformedEncoding)

	_, err = Open(key, interfaces.Envelope{Ciphertext: envelope.Ciphertext[:TagSize-1], Nonce: envelope.Nonce})
	assert.ErrorIs(t, err, interfaces.ErrMalformedEncoding)
}

func TestSeal_NoncesNeverRepeat(t *testing.T) {
	key, err := RandomKey()
	require.NoError(t, err)

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		envelope, err := Seal(key, []byte("same plaintext"))
		require.NoError(t, err)
		_, dup := seen[string(envelope.Nonce)]
		require.False(t, dup, "nonce reused at iteration %d", i)
		seen[string(envelope.Nonce)] = struct{}{}
	}
}
