// Package hash provides helpers for hashing and verifying secrets.
//
// Typical usage is protecting tokens and one-time codes at rest: store only
// the hash, then verify user input by recomputing the hash over the
// plaintext. Implementations live in this package behind a small interface.
package hash
