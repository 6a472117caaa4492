package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/liveness-gated-kms/interfaces"
)

// MultiStorageBackend implements interfaces.StateBackend over several backends.
// Saves go to every available backend; loads come from the first backend that
// holds a document.
type MultiStorageBackend struct {
	backends []interfaces.StateBackend
	log      *slog.Logger
}

var (
	_ interfaces.StateBackend = (*MultiStorageBackend)(nil)
	_ interfaces.StateBackend = (*FileBackend)(nil)
	_ interfaces.StateBackend = (*MemoryBackend)(nil)
	_ interfaces.StateBackend = (*S3Backend)(nil)
	_ interfaces.StateBackend = (*VaultBackend)(nil)
)

// NewMultiStorageBackend creates a new multi-storage backend with fallback
func NewMultiStorageBackend(backends []interfaces.StateBackend, logger *slog.Logger) *MultiStorageBackend {
	if logger == nil {
		logger = slog.Default()
	}

	return &MultiStorageBackend{
		backends: backends,
		log:      logger,
	}
}

// Load returns the document of the first available backend that has one.
// ErrStateNotFound is returned only if every reachable backend reported it.
func (m *MultiStorageBackend) Load(ctx context.Context) ([]byte, error) {
	if len(m.backends) == 0 {
		return nil, interfaces.ErrStateNotFound
	}

	start := time.Now()
	var errs []error
	notFound := 0

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable", slog.String("backend_name", backend.Name()))
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), interfaces.ErrBackendUnavailable))
			continue
		}

		data, err := backend.Load(ctx)
		if err == nil {
			m.log.Info("Loaded state",
				slog.String("backend_name", backend.Name()),
				slog.Duration("duration", time.Since(start)))
			return data, nil
		}

		if errors.Is(err, interfaces.ErrStateNotFound) {
			notFound++
			continue
		}

		errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
		m.log.Debug("Failed to load from backend",
			slog.String("backend_name", backend.Name()),
			"err", err)
	}

	if len(errs) == 0 && notFound > 0 {
		return nil, interfaces.ErrStateNotFound
	}

	m.log.Error("All backends failed to load state",
		slog.Int("failed_backends", len(errs)),
		slog.Duration("duration", time.Since(start)))

	return nil, fmt.Errorf("all backends failed to load state: %w", errors.Join(errs...))
}

// Save writes data to all available backends. It succeeds if at least one write succeeded.
func (m *MultiStorageBackend) Save(ctx context.Context, data []byte) error {
	start := time.Now()
	var success int
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable", slog.String("backend_name", backend.Name()))
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), interfaces.ErrBackendUnavailable))
			continue
		}

		if err := backend.Save(ctx, data); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			m.log.Warn("Failed to store state to backend",
				slog.String("backend_name", backend.Name()),
				"err", err)
			continue
		}
		success++
	}

	if success == 0 {
		m.log.Error("All backends failed to store state",
			slog.Int("failed_backends", len(errs)),
			slog.Duration("duration", time.Since(start)))
		return fmt.Errorf("all backends failed to store state: %w", errors.Join(errs...))
	}

	m.log.Debug("Stored state",
		slog.Int("backends", success),
		slog.Duration("duration", time.Since(start)))

	return nil
}

// Available checks if any backend is available
func (m *MultiStorageBackend) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

// Name returns the name of this backend
func (m *MultiStorageBackend) Name() string {
	return "multi-storage"
}

// LocationURI returns the URI of this backend
func (m *MultiStorageBackend) LocationURI() string {
	var locations []string
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}

	return "multi:[" + strings.Join(locations, ",") + "]"
}
