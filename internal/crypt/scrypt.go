package crypt

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// Scrypt defaults.
const (
	scryptN       = 1 << 15
	scryptR       = 8
	scryptP       = 1
	scryptSaltLen = 16
	scryptKeyLen  = 32
)

// ScryptHasher implements Hasher using scrypt with a PHC-style digest:
//
//	$scrypt$n=32768,r=8,p=1$<salt>$<key>
//
// Parameters are read back out of the digest on Verify.
type ScryptHasher struct {
	n, r, p int
}

// NewScryptHasher creates an scrypt hasher with default parameters.
func NewScryptHasher() *ScryptHasher {
	return &ScryptHasher{n: scryptN, r: scryptR, p: scryptP}
}

func (h *ScryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, scryptSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt generation failed: %w", err)
	}

	key, err := scrypt.Key([]byte(password), salt, h.n, h.r, h.p, scryptKeyLen)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"$scrypt$n=%d,r=%d,p=%d$%s$%s",
		h.n, h.r, h.p,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *ScryptHasher) Verify(password, digest string) (bool, error) {
	if password == "" {
		return false, ErrEmptyPassword
	}
	if digest == "" {
		return false, ErrEmptyHash
	}

	parts := strings.Split(digest, "$")
	if len(parts) != 5 || parts[1] != "scrypt" {
		return false, fmt.Errorf("malformed digest")
	}

	var n, r, p int
	if _, err := fmt.Sscanf(parts[2], "n=%d,r=%d,p=%d", &n, &r, &p); err != nil {
		return false, fmt.Errorf("malformed digest: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return false, fmt.Errorf("malformed digest: %w", err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("malformed digest: %w", err)
	}

	computed, err := scrypt.Key([]byte(password), salt, n, r, p, len(key))
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}
