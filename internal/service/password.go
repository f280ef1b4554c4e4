package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// recoveryPasswordLength is the length of generated recovery passwords.
	// The minimum acceptable length is 8; 10 leaves headroom.
	recoveryPasswordLength = 10

	recoveryAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// generatePassword returns a cryptographically random alphanumeric password.
func generatePassword(length int) (string, error) {
	buf := make([]byte, length)
	max := big.NewInt(int64(len(recoveryAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		buf[i] = recoveryAlphabet[n.Int64()]
	}
	return string(buf), nil
}
