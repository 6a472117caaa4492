package interfaces

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// MasterKeySize is the length in bytes of every owner master key.
const MasterKeySize = 32

// EntropySampleSize is the length in bytes of the buffer carried by an EntropySample.
const EntropySampleSize = 32

// OwnerID identifies the owner of a master key and an unlock window.
type OwnerID string

// NewOwnerID validates a caller supplied owner identifier.
func NewOwnerID(raw string) (OwnerID, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: empty owner id", ErrInvalidOwner)
	}
	return OwnerID(raw), nil
}

// String returns the raw identifier.
func (o OwnerID) String() string {
	return string(o)
}

// MasterKey is the AES-256 key material of a single owner.
type MasterKey []byte

// Validate reports ErrInvalidKeyLength for anything but exactly MasterKeySize bytes.
func (k MasterKey) Validate() error {
	if len(k) != MasterKeySize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeyLength, len(k), MasterKeySize)
	}
	return nil
}

// String never prints key material.
func (k MasterKey) String() string {
	return fmt.Sprintf("MasterKey(%d bytes)", len(k))
}

// EntropyStatus classifies an entropy sample.
type EntropyStatus string

const (
	// EntropyLive is reported when the motion score reached the live threshold.
	EntropyLive EntropyStatus = "LIVE"
	// EntropyLow is reported for external captures below the live threshold, including zero motion.
	EntropyLow EntropyStatus = "LOW"
	// EntropyDemo is reported whenever the fallback generator produced the sample.
	EntropyDemo EntropyStatus = "DEMO"
)

// EntropySample is a single liveness attestation. It is never persisted and
// never used as key material.
type EntropySample struct {
	Bytes  []byte
	Status EntropyStatus
	Score  float64
}

// Envelope is the output of one AEAD encryption.
type Envelope struct {
	Ciphertext []byte
	Nonce      []byte
}

// EncodeBase64 returns the standard base64 encodings of ciphertext and nonce.
func (e Envelope) EncodeBase64() (ciphertext string, nonce string) {
	return base64.StdEncoding.EncodeToString(e.Ciphertext), base64.StdEncoding.EncodeToString(e.Nonce)
}

// DecodeEnvelope parses base64 encoded ciphertext and nonce. Decoding errors
// are reported as ErrMalformedEncoding.
func DecodeEnvelope(ciphertextB64, nonceB64 string) (Envelope, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: ciphertext: %v", ErrMalformedEncoding, err)
	}
	nonce, err := base64.StdEncoding.DecodeString(nonceB64)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: nonce: %v", ErrMalformedEncoding, err)
	}
	return Envelope{Ciphertext: ciphertext, Nonce: nonce}, nil
}
