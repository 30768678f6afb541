package handler

import (
	"context"
	"net/http"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

const tokenTypeBearer = "Bearer"

// AuthService defines the behavior needed by AuthHandler.
type AuthService interface {
	Register(ctx context.Context, input usecase.RegisterInput) (*domain.Account, error)
	Login(ctx context.Context, input usecase.LoginInput) (*usecase.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, input usecase.ResetPasswordInput) error
}

// AuthHandler handles registration, sign-in and password reset.
type AuthHandler struct {
	authUC AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authUC AuthService) *AuthHandler {
	return &AuthHandler{authUC: authUC}
}

// Register opens a new account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, r, err, "invalid registration")
		return
	}

	account, err := h.authUC.Register(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, err, "failed to register")
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Login exchanges credentials for a token pair.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authUC.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeDomainError(w, r, err, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, dto.LoginResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    tokenTypeBearer,
		Account:      dto.AccountFromDomain(result.Account),
	})
}

// RefreshToken issues a new access token.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "missing refresh_token", "")
		return
	}

	token, err := h.authUC.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeDomainError(w, r, err, "refresh failed")
		return
	}

	writeJSON(w, http.StatusOK, dto.TokenResponse{AccessToken: token, TokenType: tokenTypeBearer})
}

// ForgotPassword mails a reset code.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authUC.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeDomainError(w, r, err, "password reset failed")
		return
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "reset code sent"})
}

// VerifyOTP replaces the password when the code matches.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.authUC.ResetPassword(r.Context(), usecase.ResetPasswordInput{
		Email:       req.Email,
		OTP:         req.OTP,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		writeDomainError(w, r, err, "password reset failed")
		return
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "password updated"})
}
