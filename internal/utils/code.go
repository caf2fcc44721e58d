package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// SixDigitCode returns a random code in [100000, 999999], used for email
// verification and 2FA login codes. crypto/rand keeps codes unpredictable
// even though they are short-lived.
func SixDigitCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
