package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/delordemm1/go-otp-identity/internal/config"
	"github.com/delordemm1/go-otp-identity/internal/httpx"
	authmw "github.com/delordemm1/go-otp-identity/internal/middleware"
	"github.com/delordemm1/go-otp-identity/internal/modules/messaging"
	"github.com/delordemm1/go-otp-identity/internal/modules/settings"
	"github.com/delordemm1/go-otp-identity/internal/modules/user"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handlers groups the module handlers mounted on the API.
type Handlers struct {
	Users     *user.Handler
	Settings  *settings.Handler
	Messaging *messaging.Handler
}

// New creates the router with every module's routes registered.
func New(cfg *config.Config, log *slog.Logger, guard *authmw.Guard, h Handlers) chi.Router {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	apiConfig := huma.DefaultConfig("OTP Identity API", "1.0.0")
	apiConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	httpx.InstallHumaErrors()
	api := humachi.New(router, apiConfig)

	authenticated := huma.Middlewares{guard.Authenticated()}
	admin := huma.Middlewares{guard.Admin()}

	h.Users.RegisterRoutes(api, authenticated, admin)
	h.Settings.RegisterRoutes(api, admin)
	h.Messaging.RegisterRoutes(api, admin)

	huma.Register(api, huma.Operation{
		OperationID: "get-health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health Check",
		Description: "Responds with the server's health status.",
	}, func(ctx context.Context, input *struct{}) (*struct {
		Body struct {
			Status string `json:"status"`
			Env    string `json:"env"`
		}
	}, error) {
		resp := &struct {
			Body struct {
				Status string `json:"status"`
				Env    string `json:"env"`
			}
		}{}
		resp.Body.Status = "ok"
		resp.Body.Env = cfg.Server.Env
		return resp, nil
	})

	log.Debug("routes registered")
	return router
}
