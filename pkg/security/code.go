package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	codeMin = 10_000_000
	codeMax = 99_999_999
)

// NewVerificationCode returns an 8 digit numeric code drawn from crypto/rand.
// The first digit is never zero so the code keeps its length as a number.
func NewVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code, %w", err)
	}

	return fmt.Sprintf("%d", n.Int64()+codeMin), nil
}
