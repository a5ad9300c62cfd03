package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
)

// ErrPasswordMismatch is what PasswordHasher.Compare returns when the password is wrong.
var ErrPasswordMismatch = errors.New("password mismatch")

type Service struct {
	accounts AccountStore
	hasher   PasswordHasher
	otp      OTPGenerator
	tokens   TokenIssuer
	notifier Notifier

	tokenTTL time.Duration
	now      func() time.Time
	audit    func(action string, fields map[string]string)
	newID    func() string

	// signups serializes Signup per email within this process.
	signups keyLock
}

type Config struct {
	TokenTTL time.Duration

	// Now must be the same clock the OTP generator and token issuer use.
	Now func() time.Time

	// NewID generates account ids. Defaults to uuid v4.
	NewID func() string
}

func NewService(
	accounts AccountStore,
	hasher PasswordHasher,
	otp OTPGenerator,
	tokens TokenIssuer,
	notifier Notifier,
	cfg Config,
) *Service {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 120 * time.Hour
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Service{
		accounts: accounts,
		hasher:   hasher,
		otp:      otp,
		tokens:   tokens,
		notifier: notifier,

		tokenTTL: ttl,
		now:      now,
		audit:    func(string, map[string]string) {},
		newID:    newID,
	}
}

// AuthResult is returned by the two operations that start a session.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      domain.Profile
}

func (s *Service) WithAudit(fn func(action string, fields map[string]string)) *Service {
	if fn != nil {
		s.audit = fn
	}
	return s
}

// TokenTTL is how long issued session tokens live.
func (s *Service) TokenTTL() time.Duration { return s.tokenTTL }

// issueSession signs a token for the account and packs the outward result.
func (s *Service) issueSession(a domain.Account) (AuthResult, error) {
	tok, err := s.tokens.Issue(Claims{
		AccountID: a.ID,
		Email:     a.Email,
		Role:      a.Role,
	}, s.tokenTTL)
	if err != nil {
		return AuthResult{}, asDomain(err, domain.ErrTokenSignFailed)
	}
	return AuthResult{
		Token:     tok,
		ExpiresAt: s.now().Add(s.tokenTTL),
		User:      a.Profile(),
	}, nil
}

// newChallenge draws a code and its expiry for purpose.
func (s *Service) newChallenge(purpose domain.OTPPurpose) (domain.Challenge, error) {
	code, err := s.otp.Generate()
	if err != nil {
		return domain.Challenge{}, asDomain(err, domain.ErrRandomFailed)
	}
	return domain.Challenge{
		Code:      code,
		ExpiresAt: s.otp.ExpiryFor(purpose),
		Purpose:   purpose,
	}, nil
}

// notify hands the code to the notifier. Any failure is a delivery failure.
func (s *Service) notify(ctx context.Context, a domain.Account, ch domain.Challenge) error {
	err := s.notifier.SendOTP(ctx, OTPNotification{
		AccountID: a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Code:      ch.Code,
		Purpose:   ch.Purpose,
		ExpiresAt: ch.ExpiresAt,
	})
	if err != nil {
		return domain.ErrNotificationFailed(err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// asDomain keeps domain errors as they are and wraps anything else with wrap.
func asDomain(err error, wrap func(error) *domain.Error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}
	return wrap(err)
}
