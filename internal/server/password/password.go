// Package password hashes and verifies user passwords with bcrypt.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/userkeeper/internal/common"
)

// MaxLength is the longest plaintext bcrypt can take into account.
const MaxLength = 72

// Hasher is safe for concurrent use.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost. Costs outside the
// bcrypt range fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a salted bcrypt hash of plaintext. A fresh salt is drawn on
// every call, so hashing the same input twice gives different outputs.
func (h *Hasher) Hash(plaintext string) ([]byte, error) {
	if len(plaintext) > MaxLength {
		return nil, fmt.Errorf("%w: password longer than %d bytes", common.ErrValidation, MaxLength)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hashed, nil
}

// Verify reports whether plaintext matches hashed. A malformed or truncated
// hash is a mismatch, not an error.
func (h *Hasher) Verify(plaintext string, hashed []byte) bool {
	return bcrypt.CompareHashAndPassword(hashed, []byte(plaintext)) == nil
}
