package kmshandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/liveness-gated-kms/api"
	"github.com/ruteri/liveness-gated-kms/interfaces"
	"github.com/ruteri/liveness-gated-kms/kms"
	"golang.org/x/time/rate"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Controller is the subset of kms.Gate used by the handler.
type Controller interface {
	RequestUnlock(ctx context.Context, owner interfaces.OwnerID) (kms.UnlockResult, error)
	RequestEncrypt(owner interfaces.OwnerID, plaintext []byte) (interfaces.Envelope, error)
	RequestDecrypt(owner interfaces.OwnerID, ciphertextB64, nonceB64 string) ([]byte, error)
	Status() kms.StatusReport
	Health(ctx context.Context) kms.HealthReport
}

var _ Controller = (*kms.Gate)(nil)

// Handler serves the KMS routes.
type Handler struct {
	gate    Controller
	apiKey  []byte
	limiter *multiLimiter
	log     *slog.Logger
}

// NewHandler creates a handler guarded by apiKey. An empty key rejects every
// authenticated request.
func NewHandler(gate Controller, apiKey string, log *slog.Logger) *Handler {
	return &Handler{
		gate:   gate,
		apiKey: []byte(apiKey),
		log:    log,
	}
}

// WithUnlockRateLimit limits unlock requests per client address.
// A zero limit disables limiting.
func (h *Handler) WithUnlockRateLimit(limit rate.Limit, burst int) *Handler {
	if limit <= 0 {
		h.limiter = nil
		return h
	}
	h.limiter = newMultiLimiter(limit, burst, limiterTTL)
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HandleHealth)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.With(h.rateLimitUnlock).Post("/unlock", h.HandleUnlock)
		r.Post("/encrypt", h.HandleEncrypt)
		r.Post("/decrypt", h.HandleDecrypt)
		r.Get("/status", h.HandleStatus)
	})
}

// HandleHealth samples entropy and reports the source mode. It never fails.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	report := h.gate.Health(r.Context())
	resp := api.HealthResponse{
		OK:            true,
		Mode:          report.Mode,
		EntropyStatus: string(report.Sample.Status),
	}
	if report.Sample.Score > 0 {
		resp.MotionScore = report.Sample.Score
	}
	h.writeJSON(w, resp)
}

// HandleUnlock grants a fresh unlock window to the owner.
func (h *Handler) HandleUnlock(w http.ResponseWriter, r *http.Request) {
	var req api.OwnerRequest
	if !h.decode(w, r, &req) {
		return
	}
	owner, err := interfaces.NewOwnerID(req.OwnerID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.gate.RequestUnlock(r.Context(), owner)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, api.UnlockResponse{OK: true, UnlockedUntil: result.UnlockedUntil.UTC()})
}

// HandleEncrypt seals the plaintext under the owner's key. Not gated by unlock state.
func (h *Handler) HandleEncrypt(w http.ResponseWriter, r *http.Request) {
	var req api.EncryptRequest
	if !h.decode(w, r, &req) {
		return
	}
	owner, err := interfaces.NewOwnerID(req.OwnerID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	envelope, err := h.gate.RequestEncrypt(owner, []byte(req.Plaintext))
	if err != nil {
		h.writeError(w, err)
		return
	}

	ciphertext, nonce := envelope.EncodeBase64()
	h.writeJSON(w, api.EncryptResponse{Ciphertext: ciphertext, Nonce: nonce})
}

// HandleDecrypt opens an envelope for an unlocked owner.
func (h *Handler) HandleDecrypt(w http.ResponseWriter, r *http.Request) {
	var req api.DecryptRequest
	if !h.decode(w, r, &req) {
		return
	}
	owner, err := interfaces.NewOwnerID(req.OwnerID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	plaintext, err := h.gate.RequestDecrypt(owner, req.Ciphertext, req.Nonce)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, api.DecryptResponse{Plaintext: string(plaintext)})
}

// HandleStatus reports how many owners are unlocked and how many hold keys.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	report := h.gate.Status()
	h.writeJSON(w, api.StatusResponse{
		UnlockedCount: report.UnlockedCount,
		TotalOwners:   report.TotalOwners,
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, fmt.Errorf("invalid request body: %w", err).Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("could not encode response", "err", err)
	}
}

// writeError maps domain errors to status codes. Decrypt failures share one
// message so callers cannot tell encoding errors from tag mismatches.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, interfaces.ErrUnauthorized):
		http.Error(w, interfaces.ErrUnauthorized.Error(), http.StatusUnauthorized)
	case errors.Is(err, interfaces.ErrInvalidOwner):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, interfaces.ErrVaultLocked):
		http.Error(w, interfaces.ErrVaultLocked.Error(), http.StatusForbidden)
	case errors.Is(err, interfaces.ErrDecryptionFailed):
		http.Error(w, interfaces.ErrDecryptionFailed.Error(), http.StatusBadRequest)
	default:
		h.log.Error("request failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
