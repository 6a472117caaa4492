package interfaces

import "context"

// StateBackend stores the serialized state document.
type StateBackend interface {
	// Load returns the current document, or ErrStateNotFound if none was saved yet.
	Load(ctx context.Context) ([]byte, error)

	// Save atomically replaces the document.
	Save(ctx context.Context, data []byte) error

	// Available checks if backend is accessible.
	Available(ctx context.Context) bool

	// Name returns identifier for logging.
	Name() string

	// LocationURI returns URI identifying this backend.
	LocationURI() string
}
