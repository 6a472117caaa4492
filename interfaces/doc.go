// Package interfaces defines the core types, errors and interfaces of the
// liveness-gated key custody service, separating the contracts between
// components from their implementations.
//
// # Key Custody Interfaces
//
// KeyStore: Owns the per-owner 256-bit master keys. Keys are created lazily on
// first use and never rotated or deleted.
//
// UnlockLedger: Tracks, per owner, the expiry of the current authorization
// window. Expired entries are treated as locked without being purged.
//
// EntropySource: Produces a liveness sample (bytes, status, motion score)
// either from an external motion capture collaborator or from the fallback
// generator.
//
// MotionCapturer: The external collaborator that captures a batch of frames
// and reports a byte digest and a motion score.
//
// # Storage Interfaces
//
// StateBackend: Holds the serialized state document (master keys and unlock
// windows). Save replaces the whole document atomically.
//
// # Types
//
//   - OwnerID: opaque owner identifier, the unit of key and authorization scoping
//   - MasterKey: 32 bytes of key material
//   - EntropySample: transient liveness attestation consumed once per unlock
//   - Envelope: ciphertext and nonce produced by one AEAD invocation
package interfaces
