package common

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// RandomDigits returns a string of n decimal digits generated with
// crypto/rand. Used for one-time codes sent over email.
func RandomDigits(n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("error generating random digit: %w", err)
		}
		sb.WriteByte(byte('0' + d.Int64()))
	}
	return sb.String(), nil
}
