package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrConflict           = fmt.Errorf("handle or email already taken")
	ErrNotFound           = fmt.Errorf("user not found")
	ErrInvalidCredentials = fmt.Errorf("incorrect email or password")
	ErrEmailNotVerified   = fmt.Errorf("please verify your email first")
	ErrAlreadyVerified    = fmt.Errorf("email already verified")
	ErrOTPExpired         = fmt.Errorf("OTP has expired")
	ErrInvalidOTP         = fmt.Errorf("invalid OTP")
	ErrDispatchFailure    = fmt.Errorf("failed to send OTP email")
	ErrUnauthenticated    = fmt.Errorf("user not authenticated")
	ErrInvalidInput       = fmt.Errorf("something is missing, please check")
	ErrTokenGeneration    = fmt.Errorf("failed to issue session token")
)

// HTTPStatus translates a domain error into the status code exposed to clients.
// Unknown errors collapse to 500 so internal details never leak.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidOTP),
		errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrEmailNotVerified):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyVerified),
		errors.Is(err, ErrOTPExpired),
		errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrDispatchFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the text safe to display for a domain error.
// Anything outside the taxonomy is reported as a generic internal error.
func UserMessage(err error) string {
	for _, known := range []error{
		ErrConflict, ErrNotFound, ErrInvalidCredentials, ErrEmailNotVerified,
		ErrAlreadyVerified, ErrOTPExpired, ErrInvalidOTP, ErrDispatchFailure,
		ErrUnauthenticated, ErrInvalidInput, ErrTokenGeneration,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "internal server error"
}
