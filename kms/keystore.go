package kms

import (
	"log/slog"

	"github.com/ruteri/liveness-gated-kms/cryptoutils"
	"github.com/ruteri/liveness-gated-kms/interfaces"
	"github.com/ruteri/liveness-gated-kms/metrics"
)

// GetOrCreate returns the owner's master key, creating and persisting a new
// one on first use. Creation happens under the write lock, so concurrent
// first calls for one owner all observe the same key.
func (s *State) GetOrCreate(owner interfaces.OwnerID) (interfaces.MasterKey, error) {
	s.mu.RLock()
	key, found := s.masterKeys[owner]
	s.mu.RUnlock()
	if found {
		return key, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if key, found := s.masterKeys[owner]; found {
		return key, nil
	}

	key, err := cryptoutils.RandomKey()
	if err != nil {
		return nil, err
	}
	s.masterKeys[owner] = key
	metrics.SetOwners(len(s.masterKeys))

	s.log.Info("Created master key", slog.String("owner", owner.String()))
	s.persistOrLog("key_created")

	return key, nil
}

// TotalOwners returns the number of owners holding a master key.
func (s *State) TotalOwners() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.masterKeys)
}
