package auth

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// RegisterRequest carries the registration payload. Required-field checks
// happen here, at the boundary, instead of scattered presence tests.
type RegisterRequest struct {
	Handle   string `json:"handle" validate:"required,min=3,max=30,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyOTPRequest is shared by the email-verification and login-challenge
// endpoints; the code is always six decimal digits.
type VerifyOTPRequest struct {
	UserID string `json:"userId" validate:"required"`
	OTP    string `json:"otp" validate:"required,len=6,numeric"`
}

type ResendOTPRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type SendMessageRequest struct {
	Text string `json:"textMessage" validate:"required,max=4096"`
}

func ValidateRegister(req RegisterRequest) error {
	return validate.Struct(req)
}

func ValidateLogin(req LoginRequest) error {
	return validate.Struct(req)
}

func ValidateVerifyOTP(req VerifyOTPRequest) error {
	return validate.Struct(req)
}

func ValidateResendOTP(req ResendOTPRequest) error {
	return validate.Struct(req)
}

func ValidateSendMessage(req SendMessageRequest) error {
	return validate.Struct(req)
}
