// Package hashing provides one-way hashing for passwords and for refresh
// tokens at rest, backed by bcrypt.
package hashing

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const DefaultCost = bcrypt.DefaultCost

// Hasher wraps bcrypt with a fixed cost. Secrets are pre-digested with
// SHA-256 before bcrypt: bcrypt rejects inputs over 72 bytes, and signed
// refresh tokens are far longer than that.
type Hasher struct {
	cost int
}

func New(cost int) *Hasher {
	if cost < bcrypt.MinCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

func digest(secret string) []byte {
	d := sha256.Sum256([]byte(secret))
	return d[:]
}

// Hash returns the salted bcrypt hash of secret.
func (h *Hasher) Hash(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(digest(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("error hashing secret: %w", err)
	}
	return string(hashed), nil
}

// Compare reports whether secret matches the stored hash. It never returns
// an error: malformed hashes simply do not match.
func (h *Hasher) Compare(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), digest(secret)) == nil
}
