package auth

import (
	"context"
	"time"

	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
)

/*
AccountStore
------------
Persistence port for accounts.
Only describes WHAT the auth service needs, not HOW it's stored.

Every write that touches the OTP challenge is a conditional update: the store
checks the expected prior state and applies the change in one step, or returns
domain.ErrStaleChallenge / domain.ErrAlreadyVerified without writing anything.
*/
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	GetByID(ctx context.Context, id string) (domain.Account, error)

	// Create fails with domain.ErrEmailAlreadyExists on a duplicate email.
	Create(ctx context.Context, a domain.Account) (domain.Account, error)

	MarkVerified(ctx context.Context, accountID string, upd MarkVerified) (domain.Account, error)
	ReplaceChallenge(ctx context.Context, accountID string, upd ReplaceChallenge) error
	ResetPassword(ctx context.Context, accountID string, upd ResetPassword) error
}

// MarkVerified sets verified=true and clears the challenge,
// only while the stored challenge still equals Code with purpose signup.
type MarkVerified struct {
	Code string
	At   time.Time
}

// ReplaceChallenge overwrites whatever challenge is stored.
// With RequireUnverified the write only happens while the account is unverified.
type ReplaceChallenge struct {
	Challenge         domain.Challenge
	RequireUnverified bool
	At                time.Time
}

// ResetPassword swaps the hash and clears the challenge,
// only while the stored challenge still equals Code with purpose password_reset.
type ResetPassword struct {
	Code         string
	PasswordHash string
	At           time.Time
}

/*
PasswordHasher
--------------
Abstracts bcrypt.
Compare returns nil on match, ErrPasswordMismatch on mismatch, anything else is a fault.
*/
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error
}

/*
OTPGenerator
------------
Fixed-length numeric codes from a CSPRNG plus their expiry.
*/
type OTPGenerator interface {
	Generate() (string, error)
	ExpiryFor(purpose domain.OTPPurpose) time.Time
}

/*
TokenIssuer
-----------
Issues and verifies stateless session tokens (JWT).
Used by service + auth middleware.
*/
type Claims struct {
	AccountID string
	Email     string
	Role      domain.Role
}

type TokenClaims struct {
	Claims
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type TokenIssuer interface {
	Issue(c Claims, ttl time.Duration) (string, error)
	Verify(token string) (TokenClaims, error)
}

/*
Notifier
--------
Delivers a code to an address for a stated purpose.
Rendering the actual email is the adapter's business.
*/
type Notifier interface {
	SendOTP(ctx context.Context, n OTPNotification) error
}

// OTPNotification is the payload handed to the notifier.
type OTPNotification struct {
	AccountID string
	Name      string
	Email     string
	Code      string
	Purpose   domain.OTPPurpose
	ExpiresAt time.Time
}
