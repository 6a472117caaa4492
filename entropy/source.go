package entropy

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/ruteri/liveness-gated-kms/interfaces"
	"github.com/ruteri/liveness-gated-kms/metrics"
	"golang.org/x/crypto/blake2b"
)

// Config holds the capture parameters and classification thresholds.
type Config struct {
	Mode     Mode
	Device   string
	Frames   int
	Interval time.Duration
	// Timeout bounds a whole capture, after which the fallback is used.
	Timeout       time.Duration
	LiveThreshold float64
	LowThreshold  float64
}

// DefaultConfig returns the settings used when no flags override them.
func DefaultConfig() Config {
	return Config{
		Mode:          ModeExternal,
		Device:        "0",
		Frames:        10,
		Interval:      100 * time.Millisecond,
		Timeout:       5 * time.Second,
		LiveThreshold: 1.0,
		LowThreshold:  0.1,
	}
}

// Validate checks the configuration for values that can never work.
func (c Config) Validate() error {
	if c.Mode != ModeExternal && c.Mode != ModeFallback {
		return fmt.Errorf("unknown entropy mode %q", c.Mode)
	}
	if c.Mode == ModeExternal {
		if c.Frames <= 0 {
			return fmt.Errorf("capture frames must be positive, got %d", c.Frames)
		}
		if c.Timeout <= 0 {
			return fmt.Errorf("capture timeout must be positive, got %s", c.Timeout)
		}
	}
	if c.LowThreshold < 0 || c.LiveThreshold < c.LowThreshold {
		return fmt.Errorf("invalid thresholds: live=%v low=%v", c.LiveThreshold, c.LowThreshold)
	}
	return nil
}

var _ interfaces.EntropySource = (*Source)(nil)

// Source implements interfaces.EntropySource.
type Source struct {
	cfg      Config
	capturer interfaces.MotionCapturer
	log      *slog.Logger

	// origin anchors the monotonic clock reading mixed into every sample.
	origin time.Time
	random io.Reader
}

// NewSource creates an entropy source. capturer may be nil, in which case
// external mode falls back on every call.
func NewSource(cfg Config, capturer interfaces.MotionCapturer, log *slog.Logger) (*Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.Mode == ModeExternal && capturer == nil {
		log.Warn("No motion capturer configured, external entropy will always fall back")
	}

	return &Source{
		cfg:      cfg,
		capturer: capturer,
		log:      log,
		origin:   time.Now(),
		random:   rand.Reader,
	}, nil
}

// Mode returns the configured mode name.
func (s *Source) Mode() string {
	return s.cfg.Mode.String()
}

// Acquire returns a fresh liveness sample. It blocks at most for the capture
// timeout and never fails.
func (s *Source) Acquire(ctx context.Context) interfaces.EntropySample {
	if s.cfg.Mode == ModeFallback {
		return s.fallback()
	}
	if s.capturer == nil {
		return s.degrade("unavailable", interfaces.ErrEntropyAcquisition)
	}

	captureCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	capture, err := s.capturer.Capture(captureCtx, interfaces.CaptureRequest{
		Device:   s.cfg.Device,
		Frames:   s.cfg.Frames,
		Interval: s.cfg.Interval,
	})
	if err != nil {
		reason := "error"
		if errors.Is(captureCtx.Err(), context.DeadlineExceeded) {
			reason = "timeout"
		}
		return s.degrade(reason, fmt.Errorf("%w: %v", interfaces.ErrEntropyAcquisition, err))
	}
	if capture == nil || capture.Frames < s.cfg.Frames {
		got := 0
		if capture != nil {
			got = capture.Frames
		}
		return s.degrade("short_capture", fmt.Errorf("%w: got %d of %d frames", interfaces.ErrShortCapture, got, s.cfg.Frames))
	}

	score := capture.Score
	if score < 0 || math.IsNaN(score) || math.IsInf(score, 0) {
		score = 0
	}

	buf, err := s.mix(capture.Data, score)
	if err != nil {
		return s.degrade("random", err)
	}

	status := s.classify(score)
	s.log.Debug("Captured entropy",
		slog.String("status", string(status)),
		slog.Float64("score", score),
		slog.Bool("static_scene", score < s.cfg.LowThreshold),
		slog.Duration("duration", time.Since(start)))

	return interfaces.EntropySample{Bytes: buf, Status: status, Score: score}
}

func (s *Source) classify(score float64) interfaces.EntropyStatus {
	if score >= s.cfg.LiveThreshold {
		return interfaces.EntropyLive
	}
	return interfaces.EntropyLow
}

// mix hashes the captured data with a monotonic timestamp, fresh random
// bytes and the score, so identical scenes still produce distinct buffers.
func (s *Source) mix(data []byte, score float64) ([]byte, error) {
	fresh := make([]byte, interfaces.EntropySampleSize)
	if _, err := io.ReadFull(s.random, fresh); err != nil {
		return nil, fmt.Errorf("%w: reading random bytes: %v", interfaces.ErrEntropyAcquisition, err)
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}

	var scratch [8]byte
	h.Write(data)
	binary.BigEndian.PutUint64(scratch[:], uint64(time.Since(s.origin).Nanoseconds()))
	h.Write(scratch[:])
	binary.BigEndian.PutUint64(scratch[:], uint64(time.Now().UnixNano()))
	h.Write(scratch[:])
	h.Write(fresh)
	binary.BigEndian.PutUint64(scratch[:], math.Float64bits(score))
	h.Write(scratch[:])

	return h.Sum(nil), nil
}

func (s *Source) degrade(reason string, err error) interfaces.EntropySample {
	s.log.Warn("Entropy capture failed, using fallback",
		slog.String("reason", reason),
		"err", err)
	metrics.RecordEntropyFallback(reason)
	return s.fallback()
}

func (s *Source) fallback() interfaces.EntropySample {
	buf := make([]byte, interfaces.EntropySampleSize)
	// crypto/rand.Read does not fail on supported platforms.
	_, _ = rand.Read(buf)
	return interfaces.EntropySample{Bytes: buf, Status: interfaces.EntropyDemo, Score: 0}
}
