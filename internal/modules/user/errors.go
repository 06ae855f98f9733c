package user

import (
	"net/http"

	"github.com/delordemm1/go-otp-identity/internal/httpx"
)

// --- Pre-defined Domain Errors ---
// These variables represent specific, known error conditions in the user domain.
// Compare with errors.Is; copies made with WithCause still match.

var (
	// Input
	ErrInvalidMobile = &httpx.DomainError{
		Code:       "ErrInvalidMobile",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "Invalid mobile number. Enter a 10-digit number starting with 6, 7, 8 or 9.",
		TypeURI:    "urn:problem:user/err-invalid-mobile",
	}

	ErrInvalidOTPFormat = &httpx.DomainError{
		Code:       "ErrInvalidOTPFormat",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "Invalid OTP. The code must be exactly 6 characters.",
		TypeURI:    "urn:problem:user/err-invalid-otp-format",
	}

	// Resource & identity
	ErrNotFound = &httpx.DomainError{
		Code:       "ErrNotFound",
		HTTPStatus: http.StatusNotFound,
		Title:      "Not Found",
		Message:    "user not found",
		TypeURI:    "urn:problem:user/err-not-found",
	}

	ErrUnauthorized = &httpx.DomainError{
		Code:       "ErrUnauthorized",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "Unauthorized",
		TypeURI:    "urn:problem:auth/err-unauthorized",
	}

	ErrForbidden = &httpx.DomainError{
		Code:       "ErrForbidden",
		HTTPStatus: http.StatusForbidden,
		Title:      "Forbidden",
		Message:    "Forbidden",
		TypeURI:    "urn:problem:auth/err-forbidden",
	}

	// Auth & credentials
	ErrInvalidCredentials = &httpx.DomainError{
		Code:       "ErrInvalidCredentials",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "invalid email or password",
		TypeURI:    "urn:problem:user/err-invalid-credentials",
	}

	// OTP
	ErrOTPExpired = &httpx.DomainError{
		Code:       "ErrOTPExpired",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "OTP expired. Request a new code.",
		TypeURI:    "urn:problem:user/err-otp-expired",
	}

	ErrOTPMismatch = &httpx.DomainError{
		Code:       "ErrOTPMismatch",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "Invalid OTP. Check the code and try again.",
		TypeURI:    "urn:problem:user/err-otp-mismatch",
	}

	ErrResendTooSoon = &httpx.DomainError{
		Code:       "ErrResendTooSoon",
		HTTPStatus: http.StatusTooManyRequests,
		Title:      "Too Many Requests",
		Message:    "Please wait before requesting another code.",
		TypeURI:    "urn:problem:user/err-resend-too-soon",
	}

	ErrDeliveryFailed = &httpx.DomainError{
		Code:       "ErrDeliveryFailed",
		HTTPStatus: http.StatusInternalServerError,
		Title:      "Internal Server Error",
		Message:    "Failed to send OTP. Please try again.",
		TypeURI:    "urn:problem:user/err-delivery-failed",
	}

	// Password reset
	ErrInvalidResetToken = &httpx.DomainError{
		Code:       "ErrInvalidResetToken",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "the provided token is invalid or has expired",
		TypeURI:    "urn:problem:user/err-invalid-reset-token",
	}

	// Uniqueness
	ErrEmailExists = &httpx.DomainError{
		Code:       "ErrEmailExists",
		HTTPStatus: http.StatusConflict,
		Title:      "Conflict",
		Message:    "a user with this email already exists",
		TypeURI:    "urn:problem:user/err-email-exists",
	}

	ErrMobileExists = &httpx.DomainError{
		Code:       "ErrMobileExists",
		HTTPStatus: http.StatusConflict,
		Title:      "Conflict",
		Message:    "a user with this mobile number already exists",
		TypeURI:    "urn:problem:user/err-mobile-exists",
	}

	// Generic internal
	ErrInternal = &httpx.DomainError{
		Code:       "ErrInternal",
		HTTPStatus: http.StatusInternalServerError,
		Title:      "Internal Server Error",
		Message:    "internal server error",
		TypeURI:    "urn:problem:user/err-internal",
	}
)
