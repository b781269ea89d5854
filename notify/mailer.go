//go:generate go run go.uber.org/mock/mockgen -source=mailer.go -destination=../mocks/mock_mailer.go -package=mocks
// Package notify dispatches one-time passcodes to account email addresses.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"social-lab/errors"
)

// Mailer sends a templated OTP message to a destination address.
// A failure is fatal to the registration or login call that triggered it:
// the user cannot proceed without receiving the code.
type Mailer interface {
	SendOTP(ctx context.Context, email, otp string) error
}

// SMTPConfig carries the transport settings for the real mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// SMTPMailer delivers codes over authenticated SMTP.
type SMTPMailer struct {
	cfg SMTPConfig
	log *slog.Logger
}

func NewSMTPMailer(log *slog.Logger, cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: log}
}

func (m *SMTPMailer) SendOTP(ctx context.Context, email, otp string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrDispatchFailure, err)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	msg := buildOTPMessage(m.cfg.FromName, m.cfg.From, email, otp)
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{email}, msg); err != nil {
		m.log.Error("OTP dispatch failed", "email", email, "error", err)
		return fmt.Errorf("%w: %v", errors.ErrDispatchFailure, err)
	}

	m.log.Info("OTP email sent", "email", email)
	return nil
}

func buildOTPMessage(fromName, from, to, otp string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", fromName, from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Your OTP Code\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, `<div style="font-family: Arial, sans-serif; padding: 20px; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #1da1f2;">Your OTP Verification Code</h2>
  <p>Hello,</p>
  <p>Your OTP code is: <strong style="font-size: 24px; color: #1da1f2;">%s</strong></p>
  <p>This code will expire in 10 minutes.</p>
  <p style="color: #666; font-size: 12px;">If you didn't request this code, please ignore this email.</p>
</div>`, otp)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// LogMailer is the development dispatcher: codes go to the log instead of
// a mailbox.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendOTP(_ context.Context, email, otp string) error {
	m.log.Info("OTP issued (dev mailer)", "email", email, "otp", otp)
	return nil
}
