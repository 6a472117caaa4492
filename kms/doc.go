// Package kms implements the liveness gated key custody state machine.
//
// State owns the per-owner master keys and unlock windows and keeps a
// snapshot of both in a StateBackend. Gate orchestrates the operations
// exposed to clients:
//
//   - RequestUnlock acquires an entropy sample and grants a fresh window.
//     Every sample grants, including DEMO and zero-motion ones.
//   - RequestEncrypt is always permitted.
//   - RequestDecrypt fails with ErrVaultLocked outside a window, before any
//     key is touched.
//
// An owner is LOCKED until its first unlock and again once now reaches the
// stored expiry. A new unlock while UNLOCKED restarts the window from now.
//
// State is constructed once per process from the persisted document and
// flushed on shutdown:
//
//	state := kms.NewState(ctx, backend, log)
//	defer state.Flush(context.Background())
//	gate, err := kms.NewGate(state, state, source, 10*time.Minute, log)
package kms
