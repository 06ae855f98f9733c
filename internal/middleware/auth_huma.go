package middleware

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/delordemm1/go-otp-identity/internal/contextx"
	"github.com/delordemm1/go-otp-identity/internal/httpx"
	"github.com/delordemm1/go-otp-identity/internal/modules/user"
	"github.com/delordemm1/go-otp-identity/internal/token"
)

// Authenticated is a router-agnostic Huma middleware that requires a valid bearer
// token and injects the loaded user into the request context.
// On failure it writes an RFC7807 problem+json response with code ErrUnauthorized.
func (g *Guard) Authenticated() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		u, claims, err := g.RequireUser(ctx.Context(), ctx.Header("Authorization"))
		if err != nil {
			httpx.WriteHuma(ctx, g.problem(ctx.Context(), err))
			return
		}
		next(withUser(ctx, u, claims))
	}
}

// Admin is like Authenticated but also requires the admin flag.
// Responses carry no detail beyond the status.
func (g *Guard) Admin() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		u, err := g.RequireAdmin(ctx.Context(), ctx.Header("Authorization"))
		if err != nil {
			httpx.WriteHuma(ctx, g.problem(ctx.Context(), err))
			return
		}
		next(withUser(ctx, u, nil))
	}
}

func withUser(ctx huma.Context, u *user.User, claims *token.Claims) huma.Context {
	ctx = huma.WithValue(ctx, contextx.UserKey, u)
	ctx = huma.WithValue(ctx, contextx.UserIDKey, u.ID)
	if claims != nil {
		ctx = huma.WithValue(ctx, contextx.ClaimsKey, claims)
	}
	return ctx
}

func (g *Guard) problem(ctx context.Context, err error) *httpx.Problem {
	if errors.Is(err, user.ErrForbidden) {
		return httpx.ForbiddenProblem(ctx)
	}
	return httpx.UnauthorizedProblem(ctx, "")
}
