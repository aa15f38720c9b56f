// Package identity defines the user profile shared by the credential codec,
// the persistence stores and the session manager.
//
// # What this package must NOT do
//
//   - Import goSession, credential or store (it is the leaf of the graph).
//   - Perform I/O.
package identity
