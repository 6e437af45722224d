// Package crypt provides the password hashing and verification contract.
//
// Every digest format is self-contained: verification reads the key
// derivation parameters out of the digest itself, so rotating work-factor
// settings never invalidates previously stored hashes. There is no shared
// re-hash-and-compare fallback; each implementation supplies its own
// salt-aware Verify.
package crypt

import "errors"

var (
	// ErrEmptyPassword is returned when hashing or verifying an empty
	// password.
	ErrEmptyPassword = errors.New("empty password")

	// ErrEmptyHash is returned when verifying against an empty digest.
	ErrEmptyHash = errors.New("empty hash")
)

// Hasher hashes and verifies passwords.
type Hasher interface {
	// Hash derives a self-describing digest from the password.
	Hash(password string) (string, error)

	// Verify reports whether password matches the digest. It returns
	// (false, nil) on a clean mismatch and an error only for empty
	// input or an undecodable digest.
	Verify(password, digest string) (bool, error)
}
