package http_handlers

import (
	"net/http"

	"github.com/baechuer/movie-review/services/auth-service/internal/application/auth"
	"github.com/baechuer/movie-review/services/auth-service/internal/domain"
	"github.com/baechuer/movie-review/services/auth-service/internal/logger"
	"github.com/baechuer/movie-review/services/auth-service/internal/transport/http/dto"
	"github.com/baechuer/movie-review/services/auth-service/internal/transport/http/middleware"
	"github.com/baechuer/movie-review/services/auth-service/internal/transport/http/response"
)

type AuthHandler struct {
	svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// decodeAndValidate is shared by every JSON endpoint.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface {
	Validate() error
}) bool {
	if err := response.DecodeJSON(r, req); err != nil {
		response.WriteError(w, r, err)
		return false
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return false
	}
	return true
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.svc.Signup(r.Context(), auth.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	middleware.OTPIssuedTotal.WithLabelValues(string(domain.PurposeSignup), middleware.Outcome(err)).Inc()
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("account_id", res.AccountID).
		Msg("account_signed_up")

	response.Created(w,
		"User registered successfully. Please check your email for verification code.",
		dto.NewSignupResponse(res),
	)
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyOTPRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.svc.VerifyOTP(r.Context(), req.Email, req.OTPCode)
	middleware.OTPVerifyTotal.WithLabelValues(string(domain.PurposeSignup), middleware.Outcome(err)).Inc()
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, "Account verified successfully", dto.NewAuthResponse(res, h.svc.TokenTTL()))
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	err := h.svc.ResendOTP(r.Context(), req.Email)
	middleware.OTPIssuedTotal.WithLabelValues(string(domain.PurposeSignup), middleware.Outcome(err)).Inc()
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.Message(w, "OTP resent successfully")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	middleware.LoginAttemptsTotal.WithLabelValues(middleware.Outcome(err)).Inc()
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("account_id", res.User.ID).
		Msg("user_logged_in")

	response.OK(w, "Login successful", dto.NewAuthResponse(res, h.svc.TokenTTL()))
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	err := h.svc.ForgotPassword(r.Context(), req.Email)
	middleware.OTPIssuedTotal.WithLabelValues(string(domain.PurposePasswordReset), middleware.Outcome(err)).Inc()
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.Message(w, "Password reset OTP sent to your email")
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	err := h.svc.ResetPassword(r.Context(), req.Email, req.OTPCode, req.NewPassword)
	middleware.OTPVerifyTotal.WithLabelValues(string(domain.PurposePasswordReset), middleware.Outcome(err)).Inc()
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.Message(w, "Password reset successfully")
}

// Logout needs the auth middleware; it never invalidates anything server-side.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}

	if err := h.svc.Logout(r.Context(), id.Token); err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.Message(w, "Logged out successfully")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrTokenMissing())
		return
	}

	p, err := h.svc.GetMe(r.Context(), uid)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.OK(w, "", struct {
		User dto.UserResponse `json:"user"`
	}{User: dto.NewUserResponse(p, true)})
}
