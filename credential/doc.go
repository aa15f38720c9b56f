// Package credential encodes and decodes the compact three-segment session
// credential (header, claims, signature placeholder) used by goSession.
//
// Decoding is deliberately unverified: the client reads identity claims and
// expiry for display and liveness checks only. The authentication endpoint
// remains the sole authority on authenticity.
//
// # Architecture boundaries
//
// This package owns the wire format. It does NOT touch storage, the network
// or the session state machine.
//
// # What this package must NOT do
//
//   - Import goSession or store (no upward imports).
//   - Treat a decoded credential as a security decision.
//   - Return errors or panic from Decode.
package credential
