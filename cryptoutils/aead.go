package cryptoutils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/ruteri/liveness-gated-kms/interfaces"
)

const (
	// NonceSize is the AES-GCM nonce length (96 bits).
	NonceSize = 12

	// TagSize is the AES-GCM authentication tag length.
	TagSize = 16
)

// newGCM builds an AES-256-GCM instance, rejecting anything but 32-byte keys.
func newGCM(key []byte) (cipher.AEAD, error) {
	if err := interfaces.MasterKey(key).Validate(); err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}

// Seal encrypts plaintext with AES-256-GCM under key using a fresh random
// 96-bit nonce. No associated data is used.
func Seal(key []byte, plaintext []byte) (interfaces.Envelope, error) {
	aesGCM, err := newGCM(key)
	if err != nil {
		return interfaces.Envelope{}, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return interfaces.Envelope{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return interfaces.Envelope{
		Ciphertext: aesGCM.Seal(nil, nonce, plaintext, nil),
		Nonce:      nonce,
	}, nil
}

// Open decrypts an envelope produced by Seal.
//
// Errors are distinguishable with errors.Is:
//   - interfaces.ErrInvalidKeyLength: key is not 32 bytes
//   - interfaces.ErrMalformedEncoding: nonce or ciphertext do not fit the GCM layout
//   - interfaces.ErrAuthenticationFailure: tag mismatch (wrong key, nonce or tampered data)
func Open(key []byte, envelope interfaces.Envelope) ([]byte, error) {
	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(envelope.Nonce) != aesGCM.NonceSize() {
		return nil, fmt.Errorf("%w: nonce must be %d bytes, got %d", interfaces.ErrMalformedEncoding, aesGCM.NonceSize(), len(envelope.Nonce))
	}
	if len(envelope.Ciphertext) < aesGCM.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext shorter than tag", interfaces.ErrMalformedEncoding)
	}

	plaintext, err := aesGCM.Open(nil, envelope.Nonce, envelope.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrAuthenticationFailure, err)
	}
	return plaintext, nil
}

// RandomKey returns a fresh 32-byte key from a cryptographically secure source.
func RandomKey() (interfaces.MasterKey, error) {
	key := make([]byte, interfaces.MasterKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}
