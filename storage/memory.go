package storage

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/ruteri/liveness-gated-kms/interfaces"
)

// MemoryBackend keeps the state document in process memory. Nothing survives a
// restart; it is meant for tests and throwaway deployments.
type MemoryBackend struct {
	mu    sync.Mutex
	name  string
	data  []byte
	saves int
}

func NewMemoryBackend(name string) *MemoryBackend {
	return &MemoryBackend{name: name}
}

func (b *MemoryBackend) Load(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return nil, interfaces.ErrStateNotFound
	}
	return bytes.Clone(b.data), nil
}

func (b *MemoryBackend) Save(ctx context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = bytes.Clone(data)
	b.saves++
	return nil
}

// Saves returns how many times Save was called.
func (b *MemoryBackend) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}

func (b *MemoryBackend) Available(ctx context.Context) bool { return true }

func (b *MemoryBackend) Name() string { return fmt.Sprintf("mem-%s", b.name) }

func (b *MemoryBackend) LocationURI() string { return fmt.Sprintf("mem://%s", b.name) }
