// Package kmshandler exposes the liveness gated KMS over HTTP.
//
// Routes:
//
//	GET  /health   unauthenticated, samples entropy
//	POST /unlock   {"ownerId"} -> {"ok", "unlockedUntil"}
//	POST /encrypt  {"ownerId", "plaintext"} -> {"ciphertext", "nonce"}
//	POST /decrypt  {"ownerId", "ciphertext", "nonce"} -> {"plaintext"}
//	GET  /status   -> {"unlockedCount", "totalOwners"}
//
// Every route except /health requires the shared secret in the X-FISH-AUTH
// header. The secret is checked before the body is read. Decrypt outside an
// unlock window answers 403; undecodable or tampered input answers 400 with a
// single generic message.
//
// Client is a Go client for the same routes.
package kmshandler
