package user

import (
	"context"

	"github.com/delordemm1/go-otp-identity/internal/httpx"
	"github.com/delordemm1/go-otp-identity/internal/validation"
)

// --- DTOs & Mappers ---

// MeResponse is the DTO for the authenticated user's own record.
type MeResponse struct {
	Body struct {
		User UserSummary `json:"user"`
	}
}

// UpdateProfileRequest defines the fields that can be updated on a user's profile.
// Omitted fields are left unchanged.
type UpdateProfileRequest struct {
	Body struct {
		Name   *string `json:"name,omitempty" validate:"omitnil,min=2,max=100"`
		Email  *string `json:"email,omitempty" validate:"omitnil,email"`
		Mobile *string `json:"mobile,omitempty" validate:"omitnil,mobile_in"`
	}
}

// --- Handlers ---

// GetMeHandler returns the user loaded by the auth middleware, re-read from the store.
func (h *Handler) GetMeHandler(ctx context.Context, _ *struct{}) (*MeResponse, error) {
	caller, ok := currentUser(ctx)
	if !ok {
		h.logger.Error("user not found in context")
		return nil, httpx.UnauthorizedProblem(ctx, "")
	}

	u, err := h.service.GetProfile(ctx, caller.ID)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &MeResponse{}
	resp.Body.User = toUserSummary(u)
	return resp, nil
}

// UpdateProfileHandler updates the profile of the currently authenticated user.
func (h *Handler) UpdateProfileHandler(ctx context.Context, input *UpdateProfileRequest) (*AuthResponse, error) {
	caller, ok := currentUser(ctx)
	if !ok {
		h.logger.Error("user not found in context for update profile")
		return nil, httpx.UnauthorizedProblem(ctx, "")
	}

	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	res, err := h.service.UpdateProfile(ctx, caller.ID, UpdateProfileInput{
		Name:   input.Body.Name,
		Email:  input.Body.Email,
		Mobile: input.Body.Mobile,
	})
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	return toAuthResponse("Profile updated", res), nil
}
