package auth

import (
	"context"

	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
)

// VerifyOTP confirms the signup code, marks the account verified and starts a session.
// A wrong code is reported before expiry is looked at.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (AuthResult, error) {
	a, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return AuthResult{}, asDomain(err, domain.ErrInternal)
	}

	if !a.Challenge.Matches(code, domain.PurposeSignup) {
		return AuthResult{}, domain.ErrInvalidOTP()
	}
	if a.Challenge.ExpiredAt(s.now()) {
		return AuthResult{}, domain.ErrOTPExpired()
	}

	// Sign before writing so a signing fault cannot leave a verified account without a session.
	res, err := s.issueSession(a)
	if err != nil {
		return AuthResult{}, err
	}

	updated, err := s.accounts.MarkVerified(ctx, a.ID, MarkVerified{Code: code, At: s.now()})
	if err != nil {
		return AuthResult{}, asDomain(err, domain.ErrInternal)
	}
	res.User = updated.Profile()

	s.audit("otp_verified", map[string]string{
		"account_id": updated.ID,
		"email":      updated.Email,
	})
	return res, nil
}
