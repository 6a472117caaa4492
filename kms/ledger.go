package kms

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ruteri/liveness-gated-kms/interfaces"
)

// Grant sets the owner's expiry to now+window, replacing any previous
// window, and persists the snapshot.
func (s *State) Grant(owner interfaces.OwnerID, window time.Duration) (time.Time, error) {
	if window <= 0 {
		return time.Time{}, fmt.Errorf("%w: %s", interfaces.ErrInvalidWindow, window)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	expiry := s.now().Add(window)
	s.unlockExpiry[owner] = expiry

	s.log.Debug("Granted unlock window",
		slog.String("owner", owner.String()),
		slog.Time("unlocked_until", expiry))
	s.persistOrLog("unlock_granted")

	return expiry, nil
}

// IsUnlocked reports whether the owner has a window that has not yet expired.
// Expired entries stay in the map and simply read as locked.
func (s *State) IsUnlocked(owner interfaces.OwnerID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiry, found := s.unlockExpiry[owner]
	return found && s.now().Before(expiry)
}

// UnlockedUntil returns the owner's expiry if the owner is currently unlocked.
func (s *State) UnlockedUntil(owner interfaces.OwnerID) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiry, found := s.unlockExpiry[owner]
	if !found || !s.now().Before(expiry) {
		return time.Time{}, false
	}
	return expiry, true
}

// CountUnlocked returns how many owners are currently unlocked.
func (s *State) CountUnlocked() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	count := 0
	for _, expiry := range s.unlockExpiry {
		if now.Before(expiry) {
			count++
		}
	}
	return count
}
