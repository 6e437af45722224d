package crypt

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 defaults.
const (
	pbkdf2SaltBytes  = 16
	pbkdf2Iterations = 10000
	pbkdf2HashBytes  = 512
)

// PBKDF2Options tune the key derivation. Zero values take the defaults.
type PBKDF2Options struct {
	SaltBytes  int
	Iterations int
	HashBytes  int
}

// PBKDF2Hasher implements Hasher using PBKDF2-SHA512.
//
// Digest layout, hex encoded:
//
//	[saltLen uint32 BE][iterations uint32 BE][salt][derived key]
//
// The salt length and iteration count travel inside the digest so Verify
// needs no external parameter storage.
type PBKDF2Hasher struct {
	saltBytes  int
	iterations int
	hashBytes  int
}

// NewPBKDF2Hasher creates a PBKDF2-SHA512 hasher.
func NewPBKDF2Hasher(opts PBKDF2Options) *PBKDF2Hasher {
	h := &PBKDF2Hasher{
		saltBytes:  opts.SaltBytes,
		iterations: opts.Iterations,
		hashBytes:  opts.HashBytes,
	}
	if h.saltBytes <= 0 {
		h.saltBytes = pbkdf2SaltBytes
	}
	if h.iterations <= 0 {
		h.iterations = pbkdf2Iterations
	}
	if h.hashBytes <= 0 {
		h.hashBytes = pbkdf2HashBytes
	}
	return h
}

func (h *PBKDF2Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, h.saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt generation failed: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, h.iterations, h.hashBytes, sha512.New)

	combined := make([]byte, 8+len(salt)+len(key))
	binary.BigEndian.PutUint32(combined[0:4], uint32(len(salt)))
	binary.BigEndian.PutUint32(combined[4:8], uint32(h.iterations))
	copy(combined[8:], salt)
	copy(combined[8+len(salt):], key)

	return hex.EncodeToString(combined), nil
}

func (h *PBKDF2Hasher) Verify(password, digest string) (bool, error) {
	if password == "" {
		return false, ErrEmptyPassword
	}
	if digest == "" {
		return false, ErrEmptyHash
	}

	combined, err := hex.DecodeString(digest)
	if err != nil {
		return false, fmt.Errorf("malformed digest: %w", err)
	}
	if len(combined) < 9 {
		return false, fmt.Errorf("malformed digest: too short")
	}

	saltLen := int(binary.BigEndian.Uint32(combined[0:4]))
	iterations := int(binary.BigEndian.Uint32(combined[4:8]))
	if saltLen <= 0 || iterations <= 0 || 8+saltLen >= len(combined) {
		return false, fmt.Errorf("malformed digest: bad parameters")
	}

	salt := combined[8 : 8+saltLen]
	key := combined[8+saltLen:]

	computed := pbkdf2.Key([]byte(password), salt, iterations, len(key), sha512.New)
	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}
