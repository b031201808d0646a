package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// VerificationCodeLength is the length of generated institution codes.
const VerificationCodeLength = 8

// Upper-case letters and digits without the easily confused 0/O, 1/I/L.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// NewVerificationCode returns a random institution code.
func NewVerificationCode() (string, error) {
	buf := make([]byte, VerificationCodeLength)
	limit := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate verification code: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
