// Package random provides random number generation that can be mocked for
// deterministic turn-selection tests.
package random

import (
	"crypto/rand"
	"math/big"
)

// Random is the source of randomness for turn selection.
type Random interface {
	// Intn returns a random int in [0, n).
	Intn(n int) int
}

// CryptoRandom implements Random using crypto/rand.
type CryptoRandom struct{}

// New creates a new CryptoRandom.
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Intn returns a cryptographically random int in [0, n).
func (r *CryptoRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	result, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// Should never happen with crypto/rand.
		return 0
	}
	return int(result.Int64())
}
