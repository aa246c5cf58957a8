package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateCode produces a random numeric code of the given length using
// crypto/rand. Leading zeros are allowed, so "012345" is a valid code.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length: %d", length)
	}

	const digits = "0123456789"
	code := make([]byte, length)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		code[i] = digits[num.Int64()]
	}
	return string(code), nil
}
