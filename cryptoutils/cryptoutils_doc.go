// Package cryptoutils provides the AEAD primitive used for envelope encryption
// of owner data.
//
// # AES-256-GCM
//
// Seal and Open wrap AES-256-GCM with a 96-bit random nonce per call and no
// associated data. Keys must be exactly 32 bytes; anything else is reported as
// interfaces.ErrInvalidKeyLength and never padded or truncated.
//
// Open keeps failure kinds apart for logging:
//
//   - interfaces.ErrMalformedEncoding: nonce is not 12 bytes, or the ciphertext
//     is shorter than the 16-byte tag
//   - interfaces.ErrAuthenticationFailure: the tag did not verify (wrong key,
//     wrong nonce or tampered ciphertext)
//
// Callers facing clients collapse both into interfaces.ErrDecryptionFailed.
//
// # Nonce Reuse
//
// Nonces are drawn from crypto/rand. The birthday bound on 96-bit random
// nonces is accepted at the expected per-key volume.
//
// # Usage Example
//
//	key, err := cryptoutils.RandomKey()
//	if err != nil {
//	    return err
//	}
//	envelope, err := cryptoutils.Seal(key, []byte("hello"))
//	if err != nil {
//	    return err
//	}
//	plaintext, err := cryptoutils.Open(key, envelope)
package cryptoutils
