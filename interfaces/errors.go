package interfaces

import "errors"

var (
	// ErrUnauthorized is returned when the shared secret header is missing or wrong.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidOwner is returned for an empty or otherwise unusable owner id.
	ErrInvalidOwner = errors.New("invalid owner id")

	// ErrInvalidKeyLength signals a master key that is not exactly 32 bytes.
	// It is an internal invariant violation and is never coerced.
	ErrInvalidKeyLength = errors.New("invalid key length")

	// ErrMalformedEncoding is returned when ciphertext or nonce cannot be decoded
	// or do not match the cipher's binary layout.
	ErrMalformedEncoding = errors.New("malformed encoding")

	// ErrAuthenticationFailure is returned on an AEAD tag mismatch.
	ErrAuthenticationFailure = errors.New("authentication failure")

	// ErrDecryptionFailed is the only decrypt failure reported to clients.
	// It wraps ErrMalformedEncoding and ErrAuthenticationFailure.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrVaultLocked is returned when decrypt is attempted outside an unlock window.
	ErrVaultLocked = errors.New("vault is locked, please unlock first")

	// ErrInvalidWindow is a configuration error for non-positive unlock windows.
	ErrInvalidWindow = errors.New("unlock window must be positive")

	// ErrEntropyAcquisition is returned by capture collaborators. The entropy
	// source recovers from it locally by falling back.
	ErrEntropyAcquisition = errors.New("entropy acquisition failed")

	// ErrShortCapture is returned when the collaborator delivered fewer frames than requested.
	ErrShortCapture = errors.New("capture returned fewer frames than requested")

	// ErrPersistence wraps state backend read and write failures.
	ErrPersistence = errors.New("state persistence failed")

	// ErrStateNotFound is returned by a StateBackend that holds no document yet.
	ErrStateNotFound = errors.New("state document not found")

	// ErrBackendUnavailable is returned when a state backend is not reachable.
	ErrBackendUnavailable = errors.New("state backend unavailable")

	// ErrInvalidLocationURI is returned when a state location URI is malformed or unsupported.
	ErrInvalidLocationURI = errors.New("invalid state location URI")
)
