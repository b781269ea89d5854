package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// OTPValidity is the challenge window granted with every issued code.
const OTPValidity = 10 * time.Minute

// GenerateOTP draws a six decimal digit code from a uniform range
// using a cryptographically strong source.
func GenerateOTP() (string, error) {
	// [100000, 999999]
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("otp generation: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// OTPExpiry returns the wall-clock instant at which a code issued now
// stops being accepted.
func OTPExpiry(now time.Time) time.Time {
	return now.Add(OTPValidity)
}
