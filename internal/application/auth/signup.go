package auth

import (
	"context"
	"strings"

	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
)

type SignupInput struct {
	Name     string
	Email    string
	Password string
	// empty means domain.RoleUser
	Role string
}

type SignupResult struct {
	AccountID string
	Email     string
	Name      string
}

// Signup registers an unverified account and emails it a signup OTP.
// The code is delivered before the account is written, so a delivery failure leaves nothing behind.
// Concurrent signups for one email run one at a time, so a caller that loses the race
// sees the winner's account at the pre-check and no second code is sent.
func (s *Service) Signup(ctx context.Context, in SignupInput) (SignupResult, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	switch {
	case name == "":
		return SignupResult{}, domain.ErrMissingField("name")
	case email == "":
		return SignupResult{}, domain.ErrMissingField("email")
	case in.Password == "":
		return SignupResult{}, domain.ErrMissingField("password")
	}

	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return SignupResult{}, err
	}

	unlock := s.signups.lock(email)
	defer unlock()

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return SignupResult{}, domain.ErrEmailAlreadyExists()
	} else if !domain.Is(err, "account_not_found") {
		return SignupResult{}, asDomain(err, domain.ErrInternal)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return SignupResult{}, asDomain(err, domain.ErrHashFailed)
	}

	ch, err := s.newChallenge(domain.PurposeSignup)
	if err != nil {
		return SignupResult{}, err
	}

	now := s.now()
	a := domain.Account{
		ID:           s.newID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Verified:     false,
		Challenge:    &ch,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.notify(ctx, a, ch); err != nil {
		return SignupResult{}, err
	}

	created, err := s.accounts.Create(ctx, a)
	if err != nil {
		return SignupResult{}, asDomain(err, domain.ErrInternal)
	}

	s.audit("signup", map[string]string{
		"account_id": created.ID,
		"email":      created.Email,
		"role":       string(created.Role),
	})

	return SignupResult{
		AccountID: created.ID,
		Email:     created.Email,
		Name:      created.Name,
	}, nil
}
