package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/delordemm1/go-otp-identity/internal/cache"
	"github.com/delordemm1/go-otp-identity/internal/config"
	"github.com/delordemm1/go-otp-identity/internal/middleware"
	"github.com/delordemm1/go-otp-identity/internal/modules/messaging"
	"github.com/delordemm1/go-otp-identity/internal/modules/settings"
	"github.com/delordemm1/go-otp-identity/internal/modules/user"
	"github.com/delordemm1/go-otp-identity/internal/notification"
	"github.com/delordemm1/go-otp-identity/internal/notification/templates"
	"github.com/delordemm1/go-otp-identity/internal/server"
	"github.com/delordemm1/go-otp-identity/internal/token"
	"github.com/delordemm1/go-otp-identity/internal/waha"
	"github.com/spf13/cobra"
)

// Options for the CLI.
type Options struct {
	Port int `help:"Port to listen on, overrides SERVER_PORT" short:"p"`
}

// app is the fully wired service graph.
type app struct {
	logger  *slog.Logger
	users   user.Service
	router  http.Handler
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func loadConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if cfg == nil {
		logger.Error("failed to load configuration")
		os.Exit(1)
	}
	logger.Info("configuration loaded successfully", "env", cfg.Server.Env, "store", cfg.Store.Driver)
	return cfg
}

// build wires every module bottom-up.
func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{logger: logger}

	// --- Database & Cache ---
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, st.close)

	var throttle user.Throttle
	if redisClient := cache.NewRedisClient(cfg.Redis.URL); redisClient != nil {
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		throttle = cache.NewRedisThrottle(redisClient, "identity:")
		logger.Info("successfully connected to redis")
	} else {
		logger.Warn("redis unavailable, otp resend cooldown enforced by the store only")
	}

	// --- Tokens ---
	tokens, err := token.NewService(token.Config{
		Secret: cfg.JWTSecret,
		Issuer: cfg.Token.Issuer,
		TTL:    cfg.Token.TTL,
	})
	if err != nil {
		a.close()
		return nil, err
	}

	// --- Messaging gateway ---
	gateway := waha.New(&http.Client{Timeout: cfg.Waha.Timeout}, logger)
	settingsProvider := settings.NewProvider(st.settings, waha.Target{
		BaseURL: cfg.Waha.BaseURL,
		Session: cfg.Waha.SessionName,
		APIKey:  cfg.Waha.APIKey,
	}, logger)
	deliverer := waha.NewDeliverer(gateway, settingsProvider, logger)

	// --- Notifications ---
	engine := templates.NewEngine(templates.Config{Dir: cfg.Templates.Dir, Reload: cfg.Templates.Reload}, logger)
	if err := engine.Preload(templates.All...); err != nil {
		a.close()
		return nil, err
	}
	whatsApp := notification.NewWhatsAppSender(deliverer)
	notifier := notification.NewService(logger, engine, nil, whatsApp)
	if cfg.SMTP.Host != "" {
		email := notification.NewSMTPEmailSender(cfg.SMTP, logger)
		notifier = notification.NewService(logger, engine, email, whatsApp)
	} else {
		logger.Warn("SMTP_HOST not set, email notifications disabled")
	}

	// --- Modules ---
	a.users = user.NewService(&user.Config{
		Repo:      st.users,
		Tokens:    tokens,
		Messenger: deliverer,
		Throttle:  throttle,
		Notifier:  notifier,
		Templates: engine,
		Logger:    logger,
		Config:    cfg,
	})
	messagingService := messaging.NewService(gateway, settingsProvider, logger)

	guard := middleware.NewGuard(tokens, st.users, logger)
	a.router = server.New(cfg, logger, guard, server.Handlers{
		Users:     user.NewHandler(a.users, logger),
		Settings:  settings.NewHandler(settingsProvider, logger),
		Messaging: messaging.NewHandler(messagingService, logger),
	})
	return a, nil
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		// Subcommands also trigger this callback, so all wiring happens in OnStart.
		var (
			srv *http.Server
			a   *app
		)
		hooks.OnStart(func() {
			logger := newLogger()
			cfg := loadConfig(logger)

			var err error
			a, err = build(context.Background(), cfg, logger)
			if err != nil {
				logger.Error("failed to initialise application", "error", err)
				os.Exit(1)
			}

			port := cfg.Server.Port
			if options.Port != 0 {
				port = fmt.Sprint(options.Port)
			}
			srv = &http.Server{
				Addr:              ":" + port,
				Handler:           a.router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			logger.Info("starting server", "port", port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server failed to start", "error", err)
				os.Exit(1)
			}
		})
		hooks.OnStop(func() {
			if srv == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				a.logger.Error("server shutdown failed", "error", err)
			}
			a.close()
		})
	})

	cli.Root().AddCommand(promoteAdminCommand())
	cli.Run()
}

// promoteAdminCommand grants admin to an existing account, for bootstrapping the first admin.
func promoteAdminCommand() *cobra.Command {
	var email, mobile string
	cmd := &cobra.Command{
		Use:   "promote-admin",
		Short: "Grant admin privileges to an existing user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" && mobile == "" {
				return errors.New("one of --email or --mobile is required")
			}
			logger := newLogger()
			cfg := loadConfig(logger)

			a, err := build(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			u, err := a.users.PromoteAdmin(cmd.Context(), email, mobile)
			if err != nil {
				return fmt.Errorf("promote admin: %w", err)
			}
			cmd.Printf("user %s (%s) is now an admin\n", u.ID, u.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the account to promote")
	cmd.Flags().StringVar(&mobile, "mobile", "", "mobile (+91XXXXXXXXXX) of the account to promote")
	return cmd
}
