package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"
)

var errSample = &DomainError{
	Code:       "ErrOTPExpired",
	HTTPStatus: http.StatusBadRequest,
	Message:    "The code has expired.",
}

func TestToProblem(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")

	t.Run("domain error", func(t *testing.T) {
		wrapped := fmt.Errorf("verify: %w", errSample.WithCause(errors.New("db said no")))
		var p *Problem
		require.ErrorAs(t, ToProblem(ctx, wrapped), &p)
		require.Equal(t, http.StatusBadRequest, p.GetStatus())
		require.Equal(t, "ErrOTPExpired", p.Code)
		require.Equal(t, "Bad Request", p.Title)
		require.Equal(t, "The code has expired.", p.Detail)
		require.Equal(t, "urn:problem:err-otp-expired", p.Type)
		require.Equal(t, "req-1", p.RequestID)
		require.NotContains(t, p.Detail, "db said no")
	})

	t.Run("detail overrides message", func(t *testing.T) {
		var p *Problem
		require.ErrorAs(t, ToProblem(ctx, errSample.WithDetail("Request a new code.")), &p)
		require.Equal(t, "Request a new code.", p.Detail)
	})

	t.Run("unknown error hides its text", func(t *testing.T) {
		var p *Problem
		require.ErrorAs(t, ToProblem(ctx, errors.New("pq: connection reset")), &p)
		require.Equal(t, http.StatusInternalServerError, p.Status)
		require.Equal(t, "ErrInternal", p.Code)
		require.NotContains(t, p.Detail, "pq")
	})

	t.Run("problems pass through", func(t *testing.T) {
		in := UnauthorizedProblem(ctx, "")
		require.Same(t, in, ToProblem(ctx, in))
	})

	require.NoError(t, ToProblem(ctx, nil))
}

func TestDomainErrorIs(t *testing.T) {
	copied := errSample.WithCause(errors.New("x"))
	require.ErrorIs(t, copied, errSample)
	require.ErrorIs(t, fmt.Errorf("wrap: %w", copied), errSample)
	require.NotErrorIs(t, copied, &DomainError{Code: "ErrOther"})
	require.Contains(t, copied.Error(), "x")
}

func TestToKebab(t *testing.T) {
	cases := map[string]string{
		"ErrOTPExpired":    "err-otp-expired",
		"USER_NOT_FOUND":   "user-not-found",
		"ErrInvalidMobile": "err-invalid-mobile",
		"ErrBadRequest":    "err-bad-request",
		"":                 "",
	}
	for in, want := range cases {
		require.Equal(t, want, toKebab(in), in)
	}
}

func TestCodeFor(t *testing.T) {
	require.Equal(t, "ErrValidation", codeFor(http.StatusUnprocessableEntity))
	require.Equal(t, "ErrMethodNotAllowed", codeFor(http.StatusMethodNotAllowed))
}
