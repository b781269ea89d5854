package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"social-lab/auth"
	"social-lab/errors"
	"social-lab/services"

	"github.com/gin-gonic/gin"
)

type AuthHandlers struct {
	svc             services.IAuthService
	log             *slog.Logger
	sessionDuration time.Duration
}

func NewAuthHandlers(log *slog.Logger, svc services.IAuthService,
	sessionDuration time.Duration) *AuthHandlers {
	return &AuthHandlers{svc: svc, log: log, sessionDuration: sessionDuration}
}

func (h *AuthHandlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.ErrInvalidInput)
		return
	}

	accountID, err := h.svc.Register(c.Request.Context(),
		req.Handle, req.Email, req.Password, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Please verify your email with the OTP sent to your email address",
		"userId":  accountID,
		"success": true,
	})
}

func (h *AuthHandlers) VerifyEmail(c *gin.Context) {
	var req auth.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.ErrInvalidInput)
		return
	}
	if err := auth.ValidateVerifyOTP(req); err != nil {
		respondError(c, errors.ErrInvalidInput)
		return
	}

	if err := h.svc.VerifyEmail(req.UserID, req.OTP); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Email verified successfully",
		"success": true,
	})
}

func (h *AuthHandlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.ErrInvalidInput)
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	// MFA armed: no cookie yet, only the pending-OTP reference.
	if result.RequiresOTP {
		c.JSON(http.StatusOK, gin.H{
			"message":     "OTP sent to your email",
			"userId":      result.AccountID,
			"requiresOTP": true,
			"success":     true,
		})
		return
	}

	h.setSessionCookie(c, string(result.Token))
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome back " + result.Account.Handle,
		"success": true,
		"user":    result.Account,
	})
}

func (h *AuthHandlers) VerifyLoginOTP(c *gin.Context) {
	var req auth.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.ErrInvalidInput)
		return
	}
	if err := auth.ValidateVerifyOTP(req); err != nil {
		respondError(c, errors.ErrInvalidInput)
		return
	}

	result, err := h.svc.VerifyLoginOTP(req.UserID, req.OTP)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSessionCookie(c, string(result.Token))
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome back " + result.Account.Handle,
		"success": true,
		"user":    result.Account,
	})
}

func (h *AuthHandlers) ResendSignupOTP(c *gin.Context) {
	h.resendOTP(c, services.ResendSignup)
}

func (h *AuthHandlers) ResendLoginOTP(c *gin.Context) {
	h.resendOTP(c, services.ResendLogin)
}

func (h *AuthHandlers) resendOTP(c *gin.Context, rc services.ResendContext) {
	var req auth.ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.ErrInvalidInput)
		return
	}

	if err := h.svc.ResendOTP(c.Request.Context(), req.UserID, rc); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "New OTP sent to your email",
		"success": true,
	})
}

// Logout clears the client-held cookie only. Tokens are stateless and
// self-expiring; server state is untouched.
func (h *AuthHandlers) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(auth.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully.",
		"success": true,
	})
}

func (h *AuthHandlers) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(auth.SessionCookie, token, int(h.sessionDuration.Seconds()), "/", "", false, true)
}

func respondError(c *gin.Context, err error) {
	c.JSON(errors.HTTPStatus(err), gin.H{
		"message": errors.UserMessage(err),
		"success": false,
	})
}
