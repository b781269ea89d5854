// Package domain contains core concepts of the social backend.
// This file defines the Account entity and its verification invariants.
// No transport, storage, or UI logic should be added here.
package domain

import "time"

// Location is the coarse geolocation attached to the last login,
// kept as decimal strings exactly as the enrichment service returns them.
type Location struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// ZeroLocation is the fallback when enrichment fails or the caller is local.
func ZeroLocation() Location {
	return Location{Latitude: "0", Longitude: "0"}
}

// Account is the durable record of one identity.
//
// OTP and OTPExpiresAt are always set or cleared together: a code without an
// expiry (or the reverse) is treated as expired. A login may only be finalized
// when MFAEnabled is false or the OTP challenge was verified.
type Account struct {
	ID            string     `json:"id"`
	Handle        string     `json:"handle"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"password_hash"`
	MFAEnabled    bool       `json:"mfa_enabled"`
	EmailVerified bool       `json:"email_verified"`
	OTP           *string    `json:"otp,omitempty"`
	OTPExpiresAt  *time.Time `json:"otp_expires_at,omitempty"`
	OTPVerified   bool       `json:"otp_verified"`
	LastLoginIP   string     `json:"last_login_ip,omitempty"`
	LastLocation  Location   `json:"last_location"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ArmOTP installs a fresh challenge code valid until expiry.
func (a *Account) ArmOTP(code string, expiry time.Time) {
	a.OTP = &code
	a.OTPExpiresAt = &expiry
	a.OTPVerified = false
}

// ClearOTP removes the challenge so the code can never be replayed.
func (a *Account) ClearOTP() {
	a.OTP = nil
	a.OTPExpiresAt = nil
}

// OTPValidAt reports whether a challenge is live at the given instant.
// A request arriving exactly at the expiry instant is already expired.
func (a *Account) OTPValidAt(now time.Time) bool {
	if a.OTP == nil || a.OTPExpiresAt == nil {
		return false
	}
	return now.Before(*a.OTPExpiresAt)
}
