package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch is returned by Hasher.Verify when the supplied
// plaintext does not match the stored digest.
var ErrPasswordMismatch = errors.New("auth: password mismatch")

// Hasher turns plaintext passwords into stored digests and verifies
// them. Implementations decide the scheme; the service only delegates.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(stored, plaintext string) error
}

// SaltedSHA256Hasher is the legacy deterministic scheme: hex-encoded
// SHA-256 over a shared salt plus the plaintext. Comparison is
// constant-time.
type SaltedSHA256Hasher struct {
	Salt string
}

func (h SaltedSHA256Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", errors.New("auth: password is empty")
	}
	digest := sha256.New()
	digest.Write([]byte(h.Salt))
	digest.Write([]byte(plaintext))
	return hex.EncodeToString(digest.Sum(nil)), nil
}

func (h SaltedSHA256Hasher) Verify(stored, plaintext string) error {
	computed, err := h.Hash(plaintext)
	if err != nil {
		return err
	}
	if len(stored) != len(computed) || subtle.ConstantTimeCompare([]byte(stored), []byte(computed)) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

// BcryptHasher derives salted bcrypt digests. Preferred for new
// deployments; digests embed their own per-password salt.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", errors.New("auth: password is empty")
	}
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (h BcryptHasher) Verify(stored, plaintext string) error {
	if stored == "" {
		return errors.New("auth: password hash is empty")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(plaintext)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}
