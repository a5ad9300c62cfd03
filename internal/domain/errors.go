package domain

import (
	"errors"
	"fmt"
)

// ErrKind is the high-level category of a domain error.
// The auth service surfaces exactly one kind per failed call; the HTTP edge maps kinds to status codes.
type ErrKind string

const (
	KindValidation         ErrKind = "validation"          // 400, edge only
	KindAuth               ErrKind = "auth"                // 401, bearer token problems
	KindInvalidCredentials ErrKind = "invalid_credentials" // 401
	KindUnverified         ErrKind = "unverified"          // 403
	KindNotFound           ErrKind = "not_found"           // 404
	KindConflict           ErrKind = "conflict"            // 409
	KindInvalidOTP         ErrKind = "invalid_otp"         // 400
	KindOTPExpired         ErrKind = "otp_expired"         // 410
	KindInfrastructure     ErrKind = "infrastructure"      // 503
	KindInternal           ErrKind = "internal"            // 500
)

// Error is a structured domain error.
// - Kind: high-level category for HTTP mapping
// - Code: stable machine code (do not change casually)
// - Message: safe summary for clients (avoid leaking sensitive details)
// - Meta: optional details (field, reason, etc.)
// - Cause: wrapped internal error for logging/diagnostics
type Error struct {
	Kind    ErrKind
	Code    string
	Message string
	Meta    map[string]string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind ErrKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind ErrKind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

func WithMeta(err *Error, meta map[string]string) *Error {
	err.Meta = meta
	return err
}

// Is reports whether err is a domain error with the given code.
func Is(err error, code string) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// KindOf returns the kind of a domain error. Non-domain errors are internal.
func KindOf(err error) ErrKind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// ----------------------
// Validation errors (400)
// ----------------------

func ErrInvalidJSON(cause error) *Error {
	return Wrap(KindValidation, "invalid_json", "invalid JSON body", cause)
}

func ErrMissingField(field string) *Error {
	return WithMeta(New(KindValidation, "missing_field", "missing required field"), map[string]string{
		"field": field,
	})
}

func ErrInvalidField(field, reason string) *Error {
	return WithMeta(New(KindValidation, "invalid_field", "invalid field"), map[string]string{
		"field":  field,
		"reason": reason,
	})
}

func ErrInvalidRole(role string) *Error {
	return WithMeta(
		New(KindValidation, "invalid_role", "invalid role"),
		map[string]string{"role": role},
	)
}

// ----------------------
// Credentials / verification
// ----------------------

// IMPORTANT: use this for every login failure that could reveal whether an email exists.
func ErrInvalidCredentials() *Error {
	return New(KindInvalidCredentials, "invalid_credentials", "invalid email or password")
}

// Login is blocked until the signup OTP is confirmed.
// This does reveal that the email is registered; kept for parity with the product's messaging.
func ErrAccountUnverified() *Error {
	return New(KindUnverified, "account_unverified", "please verify your email before logging in")
}

// ----------------------
// OTP challenge
// ----------------------

func ErrInvalidOTP() *Error {
	return New(KindInvalidOTP, "invalid_otp", "invalid OTP code")
}

// ErrStaleChallenge is returned by stores when a conditional update finds that the
// challenge changed between read and write.
func ErrStaleChallenge() *Error {
	return New(KindInvalidOTP, "otp_stale", "OTP is no longer valid, request a new one")
}

func ErrOTPExpired() *Error {
	return New(KindOTPExpired, "otp_expired", "OTP has expired, request a new one")
}

// ----------------------
// Bearer tokens (401)
// ----------------------

func ErrTokenMissing() *Error {
	return New(KindAuth, "token_missing", "no token provided")
}

func ErrTokenInvalid() *Error {
	return New(KindAuth, "token_invalid", "invalid token")
}

func ErrTokenExpired() *Error {
	return New(KindAuth, "token_expired", "token is expired")
}

// ----------------------
// Not Found (404)
// ----------------------

func ErrAccountNotFound() *Error {
	return New(KindNotFound, "account_not_found", "account not found")
}

// ----------------------
// Conflict (409)
// ----------------------

func ErrEmailAlreadyExists() *Error {
	return New(KindConflict, "email_already_exists", "email already registered")
}

func ErrAlreadyVerified() *Error {
	return New(KindConflict, "account_already_verified", "account is already verified")
}

// ----------------------
// Infrastructure / internal (5xx)
// ----------------------

func ErrDBUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "db_unavailable", "database unavailable", cause)
}

func ErrRedisUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "redis_unavailable", "cache unavailable", cause)
}

func ErrRabbitUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "rabbit_unavailable", "message broker unavailable", cause)
}

func ErrNotificationFailed(cause error) *Error {
	return Wrap(KindInternal, "notification_failed", "could not deliver verification code", cause)
}

func ErrHashFailed(cause error) *Error {
	return Wrap(KindInternal, "hash_failed", "password hashing failed", cause)
}

func ErrTokenSignFailed(cause error) *Error {
	return Wrap(KindInternal, "token_sign_failed", "token signing failed", cause)
}

func ErrRandomFailed(cause error) *Error {
	return Wrap(KindInternal, "random_failed", "random generation failed", cause)
}

func ErrCorruptAccount(field string) *Error {
	return WithMeta(New(KindInternal, "corrupt_account", "stored account is inconsistent"), map[string]string{
		"field": field,
	})
}

func ErrInternal(cause error) *Error {
	return Wrap(KindInternal, "internal_error", "internal error", cause)
}
