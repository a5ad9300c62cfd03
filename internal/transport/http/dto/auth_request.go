package dto

import "strings"

// -------- Signup / verification --------

type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50,person_name"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72,password_strength"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
}

func (r *SignupRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
	r.Role = strings.TrimSpace(r.Role)
	return validateStruct(r)
}

type VerifyOTPRequest struct {
	Email   string `json:"email" validate:"required,email"`
	OTPCode string `json:"otpCode" validate:"required,len=6,numeric"`
}

func (r *VerifyOTPRequest) Validate() error {
	r.Email = normalizeEmail(r.Email)
	return validateStruct(r)
}

// EmailRequest is the body of resend-otp and forgot-password.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *EmailRequest) Validate() error {
	r.Email = normalizeEmail(r.Email)
	return validateStruct(r)
}

// -------- Login --------

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	r.Email = normalizeEmail(r.Email)
	return validateStruct(r)
}

// -------- Password reset --------

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTPCode     string `json:"otpCode" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72,password_strength"`
}

func (r *ResetPasswordRequest) Validate() error {
	r.Email = normalizeEmail(r.Email)
	return validateStruct(r)
}
