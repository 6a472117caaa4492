package kms

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ruteri/liveness-gated-kms/interfaces"
	"github.com/ruteri/liveness-gated-kms/metrics"
)

// persistTimeout bounds a single snapshot write.
const persistTimeout = 10 * time.Second

var (
	_ interfaces.KeyStore     = (*State)(nil)
	_ interfaces.UnlockLedger = (*State)(nil)
)

// State is the process-wide key store and unlock ledger.
// It implements interfaces.KeyStore and interfaces.UnlockLedger.
//
// A single lock guards both maps and the snapshot write, so key creation,
// persistence and grants never interleave.
type State struct {
	mu           sync.RWMutex
	masterKeys   map[interfaces.OwnerID]interfaces.MasterKey
	unlockExpiry map[interfaces.OwnerID]time.Time

	backend interfaces.StateBackend
	log     *slog.Logger
	now     func() time.Time
}

// NewState restores state from backend. A missing, unreadable or corrupt
// document yields an empty state rather than an error. A nil backend keeps
// state in memory only.
func NewState(ctx context.Context, backend interfaces.StateBackend, log *slog.Logger) *State {
	if log == nil {
		log = slog.Default()
	}

	s := &State{
		masterKeys:   make(map[interfaces.OwnerID]interfaces.MasterKey),
		unlockExpiry: make(map[interfaces.OwnerID]time.Time),
		backend:      backend,
		log:          log,
		now:          time.Now,
	}

	s.load(ctx)
	metrics.SetOwners(len(s.masterKeys))
	return s
}

// WithClock replaces the time source. Intended for tests.
func (s *State) WithClock(now func() time.Time) *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *State) load(ctx context.Context) {
	if s.backend == nil {
		s.log.Warn("No state backend configured, keys will not survive a restart")
		return
	}

	data, err := s.backend.Load(ctx)
	if errors.Is(err, interfaces.ErrStateNotFound) {
		s.log.Info("No persisted state found, starting empty", slog.String("location", s.backend.LocationURI()))
		return
	}
	if err != nil {
		metrics.RecordPersistFailure()
		s.log.Error("Failed to load persisted state, starting empty",
			slog.String("location", s.backend.LocationURI()),
			"err", err)
		return
	}

	var doc stateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		metrics.RecordPersistFailure()
		s.log.Error("Persisted state is corrupt, starting empty",
			slog.String("location", s.backend.LocationURI()),
			"err", err)
		return
	}

	for owner, encoded := range doc.MasterKeys {
		key, err := hex.DecodeString(encoded)
		if err == nil {
			err = interfaces.MasterKey(key).Validate()
		}
		if err != nil {
			s.log.Error("Dropping malformed master key entry",
				slog.String("owner", owner),
				"err", err)
			continue
		}
		s.masterKeys[interfaces.OwnerID(owner)] = key
	}

	for owner, expiry := range doc.UnlockStore {
		s.unlockExpiry[interfaces.OwnerID(owner)] = fromEpochSeconds(expiry)
	}

	s.log.Info("Restored persisted state",
		slog.Int("owners", len(s.masterKeys)),
		slog.Int("unlock_entries", len(s.unlockExpiry)))
}

// Flush writes the current snapshot. Called once at shutdown.
func (s *State) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

// persistLocked serializes both maps and hands them to the backend.
// The caller must hold s.mu for writing.
func (s *State) persistLocked(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}

	data, err := json.Marshal(s.snapshotLocked())
	if err != nil {
		return errors.Join(interfaces.ErrPersistence, err)
	}

	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	if err := s.backend.Save(ctx, data); err != nil {
		return errors.Join(interfaces.ErrPersistence, err)
	}
	return nil
}

// persistOrLog persists and only logs failures; requests proceed in memory.
func (s *State) persistOrLog(reason string) {
	if err := s.persistLocked(context.Background()); err != nil {
		metrics.RecordPersistFailure()
		s.log.Error("Failed to persist state, continuing in memory",
			slog.String("reason", reason),
			"err", err)
	}
}
