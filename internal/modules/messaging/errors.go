package messaging

import (
	"errors"
	"net/http"

	"github.com/delordemm1/go-otp-identity/internal/httpx"
	"github.com/delordemm1/go-otp-identity/internal/waha"
)

var (
	ErrGateway = &httpx.DomainError{
		Code:       "ErrGateway",
		HTTPStatus: http.StatusBadGateway,
		Title:      "Bad Gateway",
		Message:    "The messaging gateway did not accept the request.",
		TypeURI:    "urn:problem:messaging/err-gateway",
	}

	ErrNotConfigured = &httpx.DomainError{
		Code:       "ErrGatewayNotConfigured",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "No messaging gateway URL is configured. Save one in settings or pass wahaBaseUrl.",
		TypeURI:    "urn:problem:messaging/err-not-configured",
	}

	ErrSessionRequired = &httpx.DomainError{
		Code:       "ErrSessionRequired",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "A session name is required. Save one in settings or pass sessionName.",
		TypeURI:    "urn:problem:messaging/err-session-required",
	}

	ErrInternal = &httpx.DomainError{
		Code:       "ErrInternal",
		HTTPStatus: http.StatusInternalServerError,
		Title:      "Internal Server Error",
		Message:    "internal server error",
		TypeURI:    "urn:problem:messaging/err-internal",
	}
)

// mapGatewayError converts client errors into domain errors.
// The upstream body stays in the cause and is never shown to callers.
func mapGatewayError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, waha.ErrNotConfigured):
		return ErrNotConfigured.WithCause(err)
	case errors.Is(err, waha.ErrSessionRequired):
		return ErrSessionRequired.WithCause(err)
	case errors.Is(err, waha.ErrGateway):
		return ErrGateway.WithCause(err)
	default:
		return ErrInternal.WithCause(err)
	}
}
