package kms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ruteri/liveness-gated-kms/cryptoutils"
	"github.com/ruteri/liveness-gated-kms/interfaces"
	"github.com/ruteri/liveness-gated-kms/metrics"
)

// Gate is the controller in front of the key store. It is safe for
// concurrent use; entropy capture never holds the state lock.
type Gate struct {
	keys    interfaces.KeyStore
	ledger  interfaces.UnlockLedger
	entropy interfaces.EntropySource
	window  time.Duration
	log     *slog.Logger
}

// UnlockResult carries the new expiry and the sample that accompanied the unlock.
type UnlockResult struct {
	UnlockedUntil time.Time
	Sample        interfaces.EntropySample
}

// StatusReport summarizes the ledger and key store.
type StatusReport struct {
	UnlockedCount int
	TotalOwners   int
}

// HealthReport is the result of a liveness-free health probe.
type HealthReport struct {
	Mode   string
	Sample interfaces.EntropySample
}

// NewGate wires the controller. A non-positive window is a configuration error.
func NewGate(keys interfaces.KeyStore, ledger interfaces.UnlockLedger, source interfaces.EntropySource, window time.Duration, log *slog.Logger) (*Gate, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrInvalidWindow, window)
	}
	if keys == nil || ledger == nil || source == nil {
		return nil, errors.New("gate requires a key store, an unlock ledger and an entropy source")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Gate{
		keys:    keys,
		ledger:  ledger,
		entropy: source,
		window:  window,
		log:     log,
	}, nil
}

// Window returns the configured unlock window.
func (g *Gate) Window() time.Duration {
	return g.window
}

// RequestUnlock samples entropy and grants a fresh window. The sample is
// advisory: every status grants.
func (g *Gate) RequestUnlock(ctx context.Context, owner interfaces.OwnerID) (UnlockResult, error) {
	sample := g.entropy.Acquire(ctx)

	expiry, err := g.ledger.Grant(owner, g.window)
	if err != nil {
		return UnlockResult{}, err
	}
	metrics.RecordUnlock(string(sample.Status))

	g.log.Info("Owner unlocked",
		slog.String("owner", owner.String()),
		slog.String("entropy_status", string(sample.Status)),
		slog.Float64("motion_score", sample.Score),
		slog.Time("unlocked_until", expiry))

	return UnlockResult{UnlockedUntil: expiry, Sample: sample}, nil
}

// RequestEncrypt seals plaintext under the owner's key regardless of lock state.
func (g *Gate) RequestEncrypt(owner interfaces.OwnerID, plaintext []byte) (interfaces.Envelope, error) {
	key, err := g.keys.GetOrCreate(owner)
	if err != nil {
		return interfaces.Envelope{}, fmt.Errorf("failed to get master key: %w", err)
	}

	envelope, err := cryptoutils.Seal(key, plaintext)
	if err != nil {
		return interfaces.Envelope{}, err
	}
	metrics.RecordEncrypt()

	return envelope, nil
}

// RequestDecrypt opens base64 encoded ciphertext and nonce for an unlocked owner.
//
// A locked owner gets ErrVaultLocked before any decoding or key access.
// Encoding and tag failures are both returned as ErrDecryptionFailed, with
// the specific kind still reachable through errors.Is.
func (g *Gate) RequestDecrypt(owner interfaces.OwnerID, ciphertextB64, nonceB64 string) ([]byte, error) {
	if !g.ledger.IsUnlocked(owner) {
		metrics.RecordDecrypt(metrics.DecryptLocked)
		return nil, interfaces.ErrVaultLocked
	}

	key, err := g.keys.GetOrCreate(owner)
	if err != nil {
		return nil, fmt.Errorf("failed to get master key: %w", err)
	}

	envelope, err := interfaces.DecodeEnvelope(ciphertextB64, nonceB64)
	if err == nil {
		var plaintext []byte
		plaintext, err = cryptoutils.Open(key, envelope)
		if err == nil {
			metrics.RecordDecrypt(metrics.DecryptOK)
			return plaintext, nil
		}
	}

	if errors.Is(err, interfaces.ErrMalformedEncoding) || errors.Is(err, interfaces.ErrAuthenticationFailure) {
		metrics.RecordDecrypt(metrics.DecryptFailed)
		g.log.Warn("Decryption failed",
			slog.String("owner", owner.String()),
			"err", err)
		return nil, fmt.Errorf("%w: %w", interfaces.ErrDecryptionFailed, err)
	}

	g.log.Error("Decryption error", slog.String("owner", owner.String()), "err", err)
	return nil, err
}

// Status reports the number of unlocked owners and owners with keys.
func (g *Gate) Status() StatusReport {
	return StatusReport{
		UnlockedCount: g.ledger.CountUnlocked(),
		TotalOwners:   g.keys.TotalOwners(),
	}
}

// Health takes one entropy sample without touching any owner state.
func (g *Gate) Health(ctx context.Context) HealthReport {
	return HealthReport{
		Mode:   g.entropy.Mode(),
		Sample: g.entropy.Acquire(ctx),
	}
}
