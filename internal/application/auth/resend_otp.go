package auth

import (
	"context"

	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
)

// ResendOTP replaces the pending signup code with a fresh one.
func (s *Service) ResendOTP(ctx context.Context, email string) error {
	a, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return asDomain(err, domain.ErrInternal)
	}
	if a.Verified {
		return domain.ErrAlreadyVerified()
	}

	ch, err := s.newChallenge(domain.PurposeSignup)
	if err != nil {
		return err
	}
	if err := s.notify(ctx, a, ch); err != nil {
		return err
	}

	err = s.accounts.ReplaceChallenge(ctx, a.ID, ReplaceChallenge{
		Challenge:         ch,
		RequireUnverified: true,
		At:                s.now(),
	})
	if err != nil {
		return asDomain(err, domain.ErrInternal)
	}

	s.audit("otp_resent", map[string]string{
		"account_id": a.ID,
		"email":      a.Email,
	})
	return nil
}
