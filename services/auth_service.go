//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"social-lab/auth"
	"social-lab/domain"
	"social-lab/errors"
	"social-lab/geo"
	"social-lab/notify"
	"social-lab/repositories"
)

// ResendContext selects which flow a regenerated OTP belongs to.
type ResendContext int

const (
	ResendSignup ResendContext = iota
	ResendLogin
)

type Token string

// AccountView is the safe subset of an account returned to clients.
type AccountView struct {
	ID     string `json:"id"`
	Handle string `json:"handle"`
	Email  string `json:"email"`
}

// LoginResult is either a pending-OTP reference (MFA armed) or an issued
// session (MFA disarmed). Token is empty exactly when RequiresOTP is true.
type LoginResult struct {
	RequiresOTP bool
	AccountID   string
	Token       Token
	Account     AccountView
}

// SessionResult is a finalized login: token plus the account it belongs to.
type SessionResult struct {
	Token   Token
	Account AccountView
}

type IAuthService interface {
	Register(ctx context.Context, handle, email, password, ip string) (string, error)
	VerifyEmail(accountID, otp string) error
	Login(ctx context.Context, email, password, ip string) (LoginResult, error)
	VerifyLoginOTP(accountID, otp string) (SessionResult, error)
	ResendOTP(ctx context.Context, accountID string, rc ResendContext) error
}

type AuthService struct {
	users           repositories.IUserRepository
	mailer          notify.Mailer
	locator         geo.Locator
	log             *slog.Logger
	sessionDuration time.Duration

	// now is swapped out in tests to simulate clock advance.
	now func() time.Time
}

func NewAuthService(log *slog.Logger, users repositories.IUserRepository,
	mailer notify.Mailer, locator geo.Locator,
	sessionDuration time.Duration) *AuthService {
	return &AuthService{
		users:           users,
		mailer:          mailer,
		locator:         locator,
		log:             log,
		sessionDuration: sessionDuration,
		now:             time.Now,
	}
}

// Register creates an unverified, MFA-armed account and dispatches the first
// email-verification OTP. It returns the opaque account reference, never a
// session token. Geolocation enrichment is attempted opportunistically and
// must not block registration; OTP dispatch failure is fatal.
func (s *AuthService) Register(ctx context.Context, handle, email, password, ip string) (string, error) {
	valReq := auth.RegisterRequest{Handle: handle, Email: email, Password: password}
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
	}

	// Hash before touching storage so the repository never sees the
	// plain password.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	account, err := s.users.CreateAccount(handle, email, hashedPassword)
	if err != nil {
		return "", err // propagates ErrConflict
	}

	otp, err := auth.GenerateOTP()
	if err != nil {
		return "", err
	}
	location := s.locator.Locate(ctx, ip)

	if _, err = s.users.UpdateAccount(account.ID, func(a *domain.Account) error {
		a.ArmOTP(otp, auth.OTPExpiry(s.now()))
		a.LastLoginIP = ip
		a.LastLocation = location
		return nil
	}); err != nil {
		return "", err
	}

	if err := s.mailer.SendOTP(ctx, email, otp); err != nil {
		return "", err
	}

	s.log.Info("account registered", "handle", handle, "account_id", account.ID)
	return account.ID, nil
}

// VerifyEmail consumes the signup OTP. The check-and-clear runs inside a
// single storage transaction so a concurrent resend cannot interleave.
func (s *AuthService) VerifyEmail(accountID, otp string) error {
	_, err := s.users.UpdateAccount(accountID, func(a *domain.Account) error {
		if a.EmailVerified {
			return errors.ErrAlreadyVerified
		}
		if !a.OTPValidAt(s.now()) {
			return errors.ErrOTPExpired
		}
		if *a.OTP != otp {
			return errors.ErrInvalidOTP
		}
		a.EmailVerified = true
		a.ClearOTP()
		return nil
	})
	return err
}

// Login checks credentials and either issues a session immediately (MFA
// disarmed) or arms a login OTP and returns a pending reference. Unknown
// email and wrong password are deliberately indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (LoginResult, error) {
	valReq := auth.LoginRequest{Email: email, Password: password}
	if err := auth.ValidateLogin(valReq); err != nil {
		return LoginResult{}, fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
	}

	account, err := s.users.GetByEmail(email)
	if err != nil {
		return LoginResult{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, account.PasswordHash)
	if err != nil || !match {
		return LoginResult{}, errors.ErrInvalidCredentials
	}

	if !account.EmailVerified {
		return LoginResult{}, errors.ErrEmailNotVerified
	}

	location := s.locator.Locate(ctx, ip)

	if account.MFAEnabled {
		otp, err := auth.GenerateOTP()
		if err != nil {
			return LoginResult{}, err
		}
		if _, err = s.users.UpdateAccount(account.ID, func(a *domain.Account) error {
			a.ArmOTP(otp, auth.OTPExpiry(s.now()))
			a.LastLoginIP = ip
			a.LastLocation = location
			return nil
		}); err != nil {
			return LoginResult{}, err
		}
		if err := s.mailer.SendOTP(ctx, account.Email, otp); err != nil {
			return LoginResult{}, err
		}
		return LoginResult{RequiresOTP: true, AccountID: account.ID}, nil
	}

	token, err := auth.GenerateToken(account.ID, s.sessionDuration)
	if err != nil {
		return LoginResult{}, errors.ErrTokenGeneration
	}

	if _, err = s.users.UpdateAccount(account.ID, func(a *domain.Account) error {
		a.LastLoginIP = ip
		a.LastLocation = location
		return nil
	}); err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		AccountID: account.ID,
		Token:     Token(token),
		Account:   toAccountView(account),
	}, nil
}

// VerifyLoginOTP finalizes an MFA-armed login. Expiry is re-checked at use,
// so a stale pending reference is unusable even with a cached-but-correct
// code.
func (s *AuthService) VerifyLoginOTP(accountID, otp string) (SessionResult, error) {
	account, err := s.users.UpdateAccount(accountID, func(a *domain.Account) error {
		if !a.OTPValidAt(s.now()) {
			return errors.ErrOTPExpired
		}
		if *a.OTP != otp {
			return errors.ErrInvalidOTP
		}
		a.ClearOTP()
		a.OTPVerified = true
		return nil
	})
	if err != nil {
		return SessionResult{}, err
	}

	token, err := auth.GenerateToken(account.ID, s.sessionDuration)
	if err != nil {
		return SessionResult{}, errors.ErrTokenGeneration
	}

	return SessionResult{Token: Token(token), Account: toAccountView(account)}, nil
}

// ResendOTP regenerates the challenge and redispatches it. It does not
// require the previous code to have expired. The signup context refuses to
// resend once the email is verified.
func (s *AuthService) ResendOTP(ctx context.Context, accountID string, rc ResendContext) error {
	otp, err := auth.GenerateOTP()
	if err != nil {
		return err
	}

	account, err := s.users.UpdateAccount(accountID, func(a *domain.Account) error {
		if rc == ResendSignup && a.EmailVerified {
			return errors.ErrAlreadyVerified
		}
		a.ArmOTP(otp, auth.OTPExpiry(s.now()))
		return nil
	})
	if err != nil {
		return err
	}

	return s.mailer.SendOTP(ctx, account.Email, otp)
}

func toAccountView(a domain.Account) AccountView {
	return AccountView{ID: a.ID, Handle: a.Handle, Email: a.Email}
}
