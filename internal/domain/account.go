package domain

import "time"

// OTPPurpose tags a challenge with the flow that is allowed to consume it.
type OTPPurpose string

const (
	PurposeSignup        OTPPurpose = "signup"
	PurposePasswordReset OTPPurpose = "password_reset"
)

func IsValidPurpose(p string) bool {
	return p == string(PurposeSignup) || p == string(PurposePasswordReset)
}

// Challenge is the pending OTP attached to an account.
// An account has at most one; a new challenge replaces the old one.
type Challenge struct {
	Code      string
	ExpiresAt time.Time
	Purpose   OTPPurpose
}

// Matches compares code and purpose exactly. No trimming or case folding.
func (c *Challenge) Matches(code string, purpose OTPPurpose) bool {
	if c == nil {
		return false
	}
	return c.Code == code && c.Purpose == purpose
}

// ExpiredAt reports whether the challenge is past its expiry at now.
// A challenge expiring exactly at now is still valid.
func (c *Challenge) ExpiredAt(now time.Time) bool {
	return c != nil && now.After(c.ExpiresAt)
}

type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Verified     bool

	// nil when no challenge is pending
	Challenge *Challenge

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile is the outward projection of an account. It never carries the hash or the challenge.
type Profile struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	Verified  bool
	CreatedAt time.Time
}

func (a Account) Profile() Profile {
	return Profile{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Role:      a.Role,
		Verified:  a.Verified,
		CreatedAt: a.CreatedAt,
	}
}
