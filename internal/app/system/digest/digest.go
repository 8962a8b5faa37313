// Package digest computes the one-way password digests stored in the
// identity collection.
//
// The default scheme, SaltedSHA256, is hex(sha256(salt + password)) with a
// single deployment-wide salt. It is weak (no per-user salt, fast hash) and is
// kept as the compatibility baseline for identity stores written by earlier
// deployments. Bcrypt is available for new deployments that do not need to
// read those records.
package digest

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Scheme names accepted by New.
const (
	SchemeSaltedSHA256 = "sha256-salt"
	SchemeBcrypt       = "bcrypt"
)

// Hasher turns a plaintext password into the value stored for a user.
type Hasher interface {
	// Hash returns the stored representation of password.
	Hash(password string) (string, error)
	// Matches reports whether password produces stored.
	Matches(password, stored string) bool
	// Deterministic reports whether Hash always returns the same value for the
	// same password, which allows lookups by digest.
	Deterministic() bool
}

// SaltedSHA256 hashes salt+password with SHA-256 and hex-encodes the result.
type SaltedSHA256 struct {
	Salt string
}

func (h SaltedSHA256) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(h.Salt + password))
	return hex.EncodeToString(sum[:]), nil
}

func (h SaltedSHA256) Matches(password, stored string) bool {
	got, _ := h.Hash(password)
	return subtle.ConstantTimeCompare([]byte(got), []byte(stored)) == 1
}

func (SaltedSHA256) Deterministic() bool { return true }

// Bcrypt hashes with golang.org/x/crypto/bcrypt. The salt is per-hash, so
// lookups must go by username and compare with Matches.
type Bcrypt struct {
	Cost int
}

// DefaultBcryptCost matches the cost used for local-password accounts.
const DefaultBcryptCost = 12

// ErrPasswordTooLong is returned by Bcrypt.Hash for passwords over 72 bytes.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

func (h Bcrypt) Hash(password string) (string, error) {
	if len(password) > 72 {
		return "", ErrPasswordTooLong
	}
	cost := h.Cost
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (Bcrypt) Matches(password, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

func (Bcrypt) Deterministic() bool { return false }

// New returns the Hasher for scheme. An empty scheme selects SaltedSHA256.
func New(scheme, salt string) (Hasher, error) {
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case "", SchemeSaltedSHA256:
		return SaltedSHA256{Salt: salt}, nil
	case SchemeBcrypt:
		return Bcrypt{}, nil
	default:
		return nil, fmt.Errorf("unknown digest scheme %q (want %q or %q)", scheme, SchemeSaltedSHA256, SchemeBcrypt)
	}
}
