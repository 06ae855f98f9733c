package user

import (
	"context"

	"github.com/delordemm1/go-otp-identity/internal/httpx"
	"github.com/delordemm1/go-otp-identity/internal/validation"
)

// --- DTOs ---

// RequestOTPRequest takes the 10-digit local number without country code.
type RequestOTPRequest struct {
	Body struct {
		Mobile string `json:"mobile,omitempty" validate:"required,mobile_local" example:"9876543210"`
	}
}

type RequestOTPResponse struct {
	Body struct {
		Message string `json:"message"`
		Mobile  string `json:"mobile" example:"+919876543210"`
	}
}

// VerifyOTPRequest takes the full +91 number returned by the request step.
type VerifyOTPRequest struct {
	Body struct {
		Mobile string `json:"mobile,omitempty" validate:"required,mobile_in" example:"+919876543210"`
		OTP    string `json:"otp,omitempty" validate:"required,len=6" example:"123456"`
		Name   string `json:"name,omitempty" validate:"omitempty,max=100"`
	}
}

// --- Handlers ---

// RequestOTPHandler generates a code and sends it to the number over WhatsApp.
func (h *Handler) RequestOTPHandler(ctx context.Context, input *RequestOTPRequest) (*RequestOTPResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	fullMobile, err := h.service.RequestOTP(ctx, input.Body.Mobile)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	resp := &RequestOTPResponse{}
	resp.Body.Message = "OTP sent successfully"
	resp.Body.Mobile = fullMobile
	return resp, nil
}

// VerifyOTPHandler checks the code and returns a token.
func (h *Handler) VerifyOTPHandler(ctx context.Context, input *VerifyOTPRequest) (*AuthResponse, error) {
	if verr := validation.ValidateStruct(&input.Body); verr != nil {
		return nil, httpx.ToProblem(ctx, verr)
	}

	res, err := h.service.VerifyOTP(ctx, input.Body.Mobile, input.Body.OTP, input.Body.Name)
	if err != nil {
		return nil, httpx.ToProblem(ctx, err)
	}

	return toAuthResponse("OTP verified successfully", res), nil
}
