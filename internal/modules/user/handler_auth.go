package user

import (
	"context"

	"github.com/delordemm1/go-otp-identity/internal/httpx"
	"github.com/delordemm1/go-otp-identity/internal/validation"
)

// --- DTOs (Data Transfer Objects) ---

// SignupRequest defines the structure for the password signup request body.
type SignupRequest struct {
	Body struct {
		Name     string `json:"name,omitempty" validate:"required,min=2,max=100"`
		Email    string `json:"email,omitempty" validate:"required,email"`
		Password string `json:"password,omitempty" validate:"required,min=8,max=72"`
		Mobile   string `json:"mobile,omitempty" validate:"omitempty,mobile_in"`
	}
}

// LoginRequest defines the structure for the user login request body.
type LoginRequest struct {
	Body struct {
		Email    string `json:"email,omitempty" validate:"required,email"`
		Password string `json:"password,omitempty" validate:"required"`
	}
}

// --- Handlers ---

// SignupHandler handles the password signup endpoint.
func (h *Handler) SignupHandler(ctx context.Context, input *SignupRequest) (*AuthResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	res, err := h.service.Signup(ctx, SignupInput{
		Name:     input.Body.Name,
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Mobile:   input.Body.Mobile,
	})
	if err != nil {
		h.logger.Warn("signup failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	return toAuthResponse("Account created", res), nil
}

// LoginHandler handles the user login endpoint.
func (h *Handler) LoginHandler(ctx context.Context, input *LoginRequest) (*AuthResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	res, err := h.service.Login(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		h.logger.Warn("login attempt failed", "error", err)
		return nil, httpx.ToProblem(ctx, err)
	}

	return toAuthResponse("Logged in", res), nil
}
