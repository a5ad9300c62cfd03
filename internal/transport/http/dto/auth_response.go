package dto

import (
	"time"

	"github.com/baechuer/movie-review/services/auth-service/internal/application/auth"
	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
)

type SignupResponse struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	Name      string `json:"name"`
}

type UserResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Verified  bool       `json:"verified"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"tokenType"` // "Bearer"
	ExpiresIn int64        `json:"expiresIn"` // seconds
	User      UserResponse `json:"user"`
}

func NewSignupResponse(r auth.SignupResult) SignupResponse {
	return SignupResponse{
		AccountID: r.AccountID,
		Email:     r.Email,
		Name:      r.Name,
	}
}

// NewUserResponse projects a profile. withCreated adds createdAt, which only /me returns.
func NewUserResponse(p domain.Profile, withCreated bool) UserResponse {
	u := UserResponse{
		ID:       p.ID,
		Name:     p.Name,
		Email:    p.Email,
		Role:     string(p.Role),
		Verified: p.Verified,
	}
	if withCreated && !p.CreatedAt.IsZero() {
		t := p.CreatedAt.UTC()
		u.CreatedAt = &t
	}
	return u
}

func NewAuthResponse(r auth.AuthResult, ttl time.Duration) AuthResponse {
	return AuthResponse{
		Token:     r.Token,
		TokenType: "Bearer",
		ExpiresIn: int64(ttl.Seconds()),
		User:      NewUserResponse(r.User, false),
	}
}
