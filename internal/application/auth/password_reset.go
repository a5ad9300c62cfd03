package auth

import (
	"context"

	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
)

// ForgotPassword issues a password_reset code, overwriting any pending challenge.
// Works for verified and unverified accounts alike.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	a, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return asDomain(err, domain.ErrInternal)
	}

	ch, err := s.newChallenge(domain.PurposePasswordReset)
	if err != nil {
		return err
	}
	if err := s.notify(ctx, a, ch); err != nil {
		return err
	}

	if err := s.accounts.ReplaceChallenge(ctx, a.ID, ReplaceChallenge{Challenge: ch, At: s.now()}); err != nil {
		return asDomain(err, domain.ErrInternal)
	}

	s.audit("password_reset_requested", map[string]string{
		"account_id": a.ID,
		"email":      a.Email,
	})
	return nil
}

// ResetPassword consumes a password_reset code and replaces the password hash.
// No session is started and the verified flag is left alone.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if newPassword == "" {
		return domain.ErrMissingField("newPassword")
	}

	a, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return asDomain(err, domain.ErrInternal)
	}

	if !a.Challenge.Matches(code, domain.PurposePasswordReset) {
		return domain.ErrInvalidOTP()
	}
	if a.Challenge.ExpiredAt(s.now()) {
		return domain.ErrOTPExpired()
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return asDomain(err, domain.ErrHashFailed)
	}

	err = s.accounts.ResetPassword(ctx, a.ID, ResetPassword{
		Code:         code,
		PasswordHash: hash,
		At:           s.now(),
	})
	if err != nil {
		return asDomain(err, domain.ErrInternal)
	}

	s.audit("password_reset_completed", map[string]string{
		"account_id": a.ID,
		"email":      a.Email,
	})
	return nil
}
