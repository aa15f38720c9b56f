// Package store provides the two persistence areas behind a goSession
// manager: the capacity-limited primary credential slot and the shadow store
// of per-user display records.
//
// # Backends
//
// Redis (shared, namespaced per device), an http cookie jar (primary only)
// and process memory. Shadow backends keep an explicit index of the ids they
// wrote; scans never enumerate foreign keys.
//
// # Garbage collection
//
// There is no background sweeper. Expired and corrupt shadow records are
// deleted when a read or scan encounters them.
//
// # What this package must NOT do
//
//   - Import goSession (no upward imports).
//   - Decode credentials or make authentication decisions.
//   - Surface decoding errors of shadow records to callers.
package store
