package user

import (
	"context"
	"errors"

	"github.com/delordemm1/go-otp-identity/internal/httpx"
	"github.com/delordemm1/go-otp-identity/internal/validation"
)

// --- DTOs ---

// ForgotPasswordRequest defines the structure for initiating a password reset.
type ForgotPasswordRequest struct {
	Body struct {
		Email string `json:"email,omitempty" validate:"required,email"`
	}
}

type MessageResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

// ResetPasswordRequest defines the structure for finalizing a password reset.
type ResetPasswordRequest struct {
	Body struct {
		Token    string `json:"token,omitempty" validate:"required"`
		Password string `json:"password,omitempty" validate:"required,min=8,max=72"`
	}
}

func message(text string) *MessageResponse {
	resp := &MessageResponse{}
	resp.Body.Message = text
	return resp
}

// --- Handlers ---

// ForgotPasswordHandler always answers 202 so the response does not reveal
// whether the email is registered.
func (h *Handler) ForgotPasswordHandler(ctx context.Context, input *ForgotPasswordRequest) (*MessageResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.InitiatePasswordReset(ctx, input.Body.Email); err != nil {
		h.logger.Error("failed to initiate password reset", "error", err)
	}

	return message("If the account exists, a reset link is on its way."), nil
}

// ResetPasswordHandler handles the request to set a new password using a reset token.
func (h *Handler) ResetPasswordHandler(ctx context.Context, input *ResetPasswordRequest) (*MessageResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	if err := h.service.FinalizePasswordReset(ctx, input.Body.Token, input.Body.Password); err != nil {
		if !errors.Is(err, ErrInvalidResetToken) {
			h.logger.Error("failed to reset password", "error", err)
		}
		return nil, httpx.ToProblem(ctx, err)
	}

	return message("Password updated. Sign in with your new password."), nil
}
