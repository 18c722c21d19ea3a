package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewID returns a random string of n characters drawn from [a-z0-9].
func NewID(n int) (string, error) {
	if n < 1 {
		return "", fmt.Errorf("token length must be positive, got %d", n)
	}
	b := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate token id: %w", err)
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}
