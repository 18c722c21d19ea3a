// Package password hashes user passwords. The plaintext is first keyed with
// the server's hashing secret (HMAC-SHA256) and the resulting digest is
// stored as a bcrypt hash, so a leaked data directory is useless without
// the secret.
package password

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher produces and verifies keyed password hashes.
type Hasher struct {
	secret []byte
	cost   int
}

// NewHasher returns a Hasher keyed by secret. A cost outside bcrypt's
// accepted range falls back to bcrypt.DefaultCost.
func NewHasher(secret string, cost int) (*Hasher, error) {
	if secret == "" {
		return nil, errors.New("hashing secret must not be empty")
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{secret: []byte(secret), cost: cost}, nil
}

// Hash returns the stored form of plain.
func (h *Hasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword(h.pepper(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Matches reports whether plain hashes to hashed.
func (h *Hasher) Matches(hashed, plain string) bool {
	if hashed == "" || plain == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), h.pepper(plain)) == nil
}

// pepper is hex(HMAC-SHA256(secret, plain)): 64 bytes, under bcrypt's 72-byte input limit.
func (h *Hasher) pepper(plain string) []byte {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(plain))
	sum := mac.Sum(nil)
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum)
	return out
}
