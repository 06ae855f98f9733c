package user

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/delordemm1/go-otp-identity/internal/contextx"
)

type problemBody struct {
	Status int    `json:"status"`
	Code   string `json:"code"`
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

// asUser stands in for the auth middleware by loading a fixed user into the context.
func asUser(u *User) huma.Middlewares {
	return huma.Middlewares{func(ctx huma.Context, next func(huma.Context)) {
		next(huma.WithValue(ctx, contextx.UserKey, u))
	}}
}

func TestOTPHandlers(t *testing.T) {
	f := newFixture(t)
	_, api := humatest.New(t)
	NewHandler(f.svc, quietLogger()).RegisterRoutes(api, nil, nil)

	resp := api.Post("/otp/request", map[string]any{"mobile": "12345"})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Equal(t, "ErrValidation", decode[problemBody](t, resp.Body.Bytes()).Code)
	require.Empty(t, f.messenger.messages())

	resp = api.Post("/otp/request", map[string]any{"mobile": "9876543210"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Equal(t, "+919876543210", decode[struct {
		Mobile string `json:"mobile"`
	}](t, resp.Body.Bytes()).Mobile)

	resp = api.Post("/otp/request", map[string]any{"mobile": "9876543210"})
	require.Equal(t, http.StatusTooManyRequests, resp.Code)

	resp = api.Post("/otp/verify", map[string]any{"mobile": "+919876543210", "otp": f.lastCode(t), "name": "Asha"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	body := decode[AuthBody](t, resp.Body.Bytes())
	require.NotEmpty(t, body.Token)
	require.Equal(t, "Asha", body.User.Name)
	require.True(t, body.User.IsVerified)
	require.NotContains(t, resp.Body.String(), "otp\"")

	resp = api.Post("/otp/verify", map[string]any{"mobile": "+919876543210", "otp": f.lastCode(t)})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Equal(t, "ErrOTPMismatch", decode[problemBody](t, resp.Body.Bytes()).Code)
}

func TestProfileHandlers(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Signup(t.Context(), SignupInput{Name: "Ravi", Email: "ravi@example.com", Password: "password123"})
	require.NoError(t, err)

	_, api := humatest.New(t)
	NewHandler(f.svc, quietLogger()).RegisterRoutes(api, asUser(res.User), nil)

	resp := api.Get("/me")
	require.Equal(t, http.StatusOK, resp.Code)
	me := decode[struct {
		User UserSummary `json:"user"`
	}](t, resp.Body.Bytes())
	require.Equal(t, res.User.ID, me.User.ID)
	require.NotContains(t, resp.Body.String(), "password")

	resp = api.Put("/profile", map[string]any{"mobile": "9876543210"})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = api.Put("/profile", map[string]any{"email": ""})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.Equal(t, "ErrValidation", decode[problemBody](t, resp.Body.Bytes()).Code)
	stored := f.repo.get(res.User.ID)
	require.Equal(t, "ravi@example.com", stored.EmailValue())

	resp = api.Put("/profile", map[string]any{"mobile": "+919876543210"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Equal(t, "+919876543210", decode[AuthBody](t, resp.Body.Bytes()).User.Mobile)
}
