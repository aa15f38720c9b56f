// Package goSession manages the client side of an authenticated session:
// issuing and decoding the session credential, persisting it redundantly,
// reconstructing the effective session from possibly inconsistent storage,
// and tearing it down when the server rejects it.
//
// A [Manager] is built once per process through [Builder] and passed by
// reference. It holds no session state of its own; every call re-reads the
// primary and shadow stores, so values written or cleared by another
// component (the transport hook, another process sharing Redis) are always
// observed.
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Manager], [Builder], [Config]
// and value types ([Result], [Resolution], [SessionEnded]). Credential encoding
// lives in credential/, persistence in store/, the HTTP hook in transport/.
// Navigation is the caller's concern: the manager only emits [SessionEnded]
// events through a [Navigator].
//
// # What this package must NOT do
//
//   - Treat a decoded credential as proof of authenticity.
//   - Panic or return errors for storage corruption; such failures degrade to
//     "no session".
//   - Import any sub-package that re-imports goSession (no import cycles).
package goSession
