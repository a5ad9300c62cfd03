package auth

import (
	"context"
	"errors"

	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
)

// Login authenticates a verified account and issues a session token.
// IMPORTANT: an unknown email and a wrong password must look the same to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return AuthResult{}, domain.ErrInvalidCredentials()
	}

	a, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if domain.Is(err, "account_not_found") {
			s.audit("login_failed", map[string]string{"email": email, "reason": "unknown_email"})
			return AuthResult{}, domain.ErrInvalidCredentials()
		}
		return AuthResult{}, asDomain(err, domain.ErrInternal)
	}

	// Checked before the password, so this answers "unverified" even for a wrong password.
	if !a.Verified {
		s.audit("login_failed", map[string]string{"account_id": a.ID, "email": email, "reason": "unverified"})
		return AuthResult{}, domain.ErrAccountUnverified()
	}

	if err := s.hasher.Compare(a.PasswordHash, password); err != nil {
		if errors.Is(err, ErrPasswordMismatch) {
			s.audit("login_failed", map[string]string{"account_id": a.ID, "email": email, "reason": "bad_password"})
			return AuthResult{}, domain.ErrInvalidCredentials()
		}
		return AuthResult{}, asDomain(err, domain.ErrHashFailed)
	}

	res, err := s.issueSession(a)
	if err != nil {
		return AuthResult{}, err
	}

	s.audit("login_success", map[string]string{
		"account_id": a.ID,
		"email":      a.Email,
		"role":       string(a.Role),
	})
	return res, nil
}
