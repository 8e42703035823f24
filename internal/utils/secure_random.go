package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateAccountNumber produces a cryptographically random numeric token of the
// given digit count, used as the stable account identifier. The first digit is
// never zero so the token keeps its length when parsed as a number.
func GenerateAccountNumber(digits int) (string, error) {
	if digits <= 0 {
		return "", fmt.Errorf("digits must be positive")
	}

	out := make([]byte, digits)
	for i := range out {
		max := big.NewInt(10)
		if i == 0 {
			max = big.NewInt(9)
		}
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random digit: %w", err)
		}
		d := n.Int64()
		if i == 0 {
			d++
		}
		out[i] = byte('0' + d)
	}
	return string(out), nil
}
