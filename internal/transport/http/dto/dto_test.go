package dto

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/movie-review/services/auth-service/internal/application/auth"
	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
)

func requireField(t *testing.T, err error, code, field string) {
	t.Helper()
	require.Error(t, err)
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, code, de.Code)
	assert.Equal(t, field, de.Meta["field"])
}

func TestSignupRequest_Validate(t *testing.T) {
	valid := func() SignupRequest {
		return SignupRequest{Name: "Alice Smith", Email: "alice@example.com", Password: "Passw0rd1"}
	}

	t.Run("ok and normalized", func(t *testing.T) {
		r := valid()
		r.Email = "  Alice@Example.COM "
		r.Name = " Alice Smith "
		require.NoError(t, r.Validate())
		assert.Equal(t, "alice@example.com", r.Email)
		assert.Equal(t, "Alice Smith", r.Name)
	})

	t.Run("role admin ok", func(t *testing.T) {
		r := valid()
		r.Role = "admin"
		require.NoError(t, r.Validate())
	})

	cases := []struct {
		name  string
		edit  func(*SignupRequest)
		code  string
		field string
	}{
		{"missing name", func(r *SignupRequest) { r.Name = "" }, "missing_field", "name"},
		{"short name", func(r *SignupRequest) { r.Name = "A" }, "invalid_field", "name"},
		{"long name", func(r *SignupRequest) { r.Name = strings.Repeat("a", 51) }, "invalid_field", "name"},
		{"digits in name", func(r *SignupRequest) { r.Name = "R2D2" }, "invalid_field", "name"},
		{"missing email", func(r *SignupRequest) { r.Email = "" }, "missing_field", "email"},
		{"bad email", func(r *SignupRequest) { r.Email = "nope" }, "invalid_field", "email"},
		{"short password", func(r *SignupRequest) { r.Password = "Ab1" }, "invalid_field", "password"},
		{"long password", func(r *SignupRequest) { r.Password = "Ab1" + strings.Repeat("x", 70) }, "invalid_field", "password"},
		{"weak password", func(r *SignupRequest) { r.Password = "password1" }, "invalid_field", "password"},
		{"unknown role", func(r *SignupRequest) { r.Role = "moderator" }, "invalid_field", "role"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := valid()
			tc.edit(&r)
			requireField(t, r.Validate(), tc.code, tc.field)
		})
	}
}

func TestSignupRequest_WeakPasswordReason(t *testing.T) {
	r := SignupRequest{Name: "Alice", Email: "a@b.com", Password: "alllower1"}
	err := r.Validate()

	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Meta["reason"], "uppercase")
}

func TestVerifyOTPRequest_Validate(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		r := VerifyOTPRequest{Email: "A@B.com", OTPCode: "012345"}
		require.NoError(t, r.Validate())
		assert.Equal(t, "a@b.com", r.Email)
	})
	t.Run("missing code", func(t *testing.T) {
		r := VerifyOTPRequest{Email: "a@b.com"}
		requireField(t, r.Validate(), "missing_field", "otpCode")
	})
	t.Run("five digits", func(t *testing.T) {
		r := VerifyOTPRequest{Email: "a@b.com", OTPCode: "12345"}
		requireField(t, r.Validate(), "invalid_field", "otpCode")
	})
	t.Run("letters", func(t *testing.T) {
		r := VerifyOTPRequest{Email: "a@b.com", OTPCode: "12a456"}
		requireField(t, r.Validate(), "invalid_field", "otpCode")
	})
}

func TestEmailRequest_Validate(t *testing.T) {
	r := EmailRequest{Email: ""}
	requireField(t, r.Validate(), "missing_field", "email")

	r = EmailRequest{Email: " X@Y.io "}
	require.NoError(t, r.Validate())
	assert.Equal(t, "x@y.io", r.Email)
}

func TestLoginRequest_Validate(t *testing.T) {
	r := LoginRequest{Email: "a@b.com"}
	requireField(t, r.Validate(), "missing_field", "password")

	// login does not apply strength rules
	r = LoginRequest{Email: "a@b.com", Password: "x"}
	require.NoError(t, r.Validate())
}

func TestResetPasswordRequest_Validate(t *testing.T) {
	r := ResetPasswordRequest{Email: "a@b.com", OTPCode: "917420", NewPassword: "NewPass2"}
	require.NoError(t, r.Validate())

	r.NewPassword = "newpass2"
	requireField(t, r.Validate(), "invalid_field", "newPassword")
}

func TestNewAuthResponse(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	res := NewAuthResponse(auth.AuthResult{
		Token: "tok",
		User: domain.Profile{
			ID: "acc-1", Name: "Alice", Email: "alice@example.com",
			Role: domain.RoleUser, Verified: true, CreatedAt: created,
		},
	}, 2*time.Hour)

	assert.Equal(t, "tok", res.Token)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, int64(7200), res.ExpiresIn)
	assert.Equal(t, "user", res.User.Role)
	assert.Nil(t, res.User.CreatedAt)
}

func TestNewUserResponse_WithCreated(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	u := NewUserResponse(domain.Profile{ID: "acc-1", CreatedAt: created}, true)

	require.NotNil(t, u.CreatedAt)
	assert.True(t, created.Equal(*u.CreatedAt))
}
