package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/delordemm1/go-otp-identity/internal/config"
	authmw "github.com/delordemm1/go-otp-identity/internal/middleware"
	"github.com/delordemm1/go-otp-identity/internal/modules/messaging"
	"github.com/delordemm1/go-otp-identity/internal/modules/settings"
	"github.com/delordemm1/go-otp-identity/internal/modules/user"
	"github.com/delordemm1/go-otp-identity/internal/token"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens, err := token.NewService(token.Config{Secret: "s", Issuer: "test", TTL: time.Hour})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.Env = "test"
	return New(cfg, log, authmw.NewGuard(tokens, nil, log), Handlers{
		Users:     user.NewHandler(nil, log),
		Settings:  settings.NewHandler(nil, log),
		Messaging: messaging.NewHandler(nil, log),
	})
}

func TestRoutes(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/me", http.StatusUnauthorized},
		{http.MethodGet, "/admin/settings", http.StatusUnauthorized},
		{http.MethodGet, "/admin/whatsapp/sessions", http.StatusUnauthorized},
		{http.MethodDelete, "/admin/whatsapp/sessions", http.StatusUnauthorized},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, tc.want, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestOpenAPIDocumentsBearer(t *testing.T) {
	router := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"bearer"`)
	require.Contains(t, rec.Body.String(), "/otp/verify")
}
