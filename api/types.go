package api

import "time"

// AuthHeader carries the shared secret on every authenticated request.
const AuthHeader = "X-FISH-AUTH"

// OwnerRequest is the body of an unlock request.
type OwnerRequest struct {
	OwnerID string `json:"ownerId"`
}

// UnlockResponse is returned after a successful unlock.
type UnlockResponse struct {
	OK            bool      `json:"ok"`
	UnlockedUntil time.Time `json:"unlockedUntil"`
}

// EncryptRequest asks to seal plaintext under the owner's key.
type EncryptRequest struct {
	OwnerID   string `json:"ownerId"`
	Plaintext string `json:"plaintext"`
}

// EncryptResponse carries standard base64 encoded ciphertext and nonce.
type EncryptResponse struct {
	Ciphertext string `json:"ciphertext"`
	Nonce      string `json:"nonce"`
}

// DecryptRequest is the inverse of EncryptResponse, scoped to an owner.
type DecryptRequest struct {
	OwnerID    string `json:"ownerId"`
	Ciphertext string `json:"ciphertext"`
	Nonce      string `json:"nonce"`
}

// DecryptResponse returns the recovered plaintext.
type DecryptResponse struct {
	Plaintext string `json:"plaintext"`
}

// HealthResponse is the unauthenticated health probe result.
// MotionScore is omitted when no motion was measured.
type HealthResponse struct {
	OK            bool    `json:"ok"`
	Mode          string  `json:"mode"`
	EntropyStatus string  `json:"entropyStatus"`
	MotionScore   float64 `json:"motionScore,omitempty"`
}

// StatusResponse summarizes the ledger and key store.
type StatusResponse struct {
	UnlockedCount int `json:"unlockedCount"`
	TotalOwners   int `json:"totalOwners"`
}
