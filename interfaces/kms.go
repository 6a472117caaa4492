package interfaces

import (
	"context"
	"time"
)

// KeyStore owns the master key of every owner.
type KeyStore interface {
	// GetOrCreate returns the owner's key, generating and persisting it on first use.
	// Concurrent first calls for the same owner observe the same key.
	GetOrCreate(owner OwnerID) (MasterKey, error)

	// TotalOwners returns the number of owners holding a master key.
	TotalOwners() int
}

// UnlockLedger tracks the expiry of each owner's authorization window.
type UnlockLedger interface {
	// Grant overwrites the owner's expiry with now+window and returns it.
	Grant(owner OwnerID, window time.Duration) (time.Time, error)

	// IsUnlocked reports whether an entry exists and now is before its expiry.
	IsUnlocked(owner OwnerID) bool

	// CountUnlocked returns how many owners are currently unlocked.
	CountUnlocked() int
}

// EntropySource produces liveness samples. Acquire never fails: acquisition
// problems are recovered by the fallback generator.
type EntropySource interface {
	Acquire(ctx context.Context) EntropySample

	// Mode returns the configured mode name for health reporting.
	Mode() string
}

// CaptureRequest describes one multi-frame capture.
type CaptureRequest struct {
	Device   string
	Frames   int
	Interval time.Duration
}

// Capture is what the motion capture collaborator reports.
type Capture struct {
	Frames int
	Data   []byte
	Score  float64
}

// MotionCapturer is the external camera and motion detection collaborator.
type MotionCapturer interface {
	Capture(ctx context.Context, req CaptureRequest) (*Capture, error)
}
