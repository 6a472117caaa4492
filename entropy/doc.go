// Package entropy produces liveness samples for unlock requests.
//
// In external mode a MotionCapturer collaborator records a short burst of
// frames and reports a motion score. Any failure of the collaborator
// (unreachable, timeout, short capture) degrades to the fallback generator,
// so Acquire always returns a sample. The sample buffer is a liveness
// attestation only and is never used as key material.
package entropy
