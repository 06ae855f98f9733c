package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/delordemm1/go-otp-identity/internal/config"
	"github.com/delordemm1/go-otp-identity/internal/database"
	"github.com/delordemm1/go-otp-identity/internal/modules/settings"
	"github.com/delordemm1/go-otp-identity/internal/modules/user"
)

// stores holds the repositories for the configured backend.
type stores struct {
	users    user.Repository
	settings settings.Repository
	close    func()
}

// openStores connects to Postgres or MongoDB depending on STORE_DRIVER.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pool := database.NewPostgresPool(cfg.Database.URL)
		if pool == nil {
			return nil, fmt.Errorf("failed to connect to postgres")
		}
		logger.Info("successfully connected to postgres database")
		return &stores{
			users:    user.NewPostgresRepository(pool),
			settings: settings.NewPostgresRepository(pool),
			close:    pool.Close,
		}, nil

	case config.StoreDriverMongo:
		client, db := database.NewMongoDatabase(cfg.Mongo.URL, cfg.Mongo.Database)
		if client == nil {
			return nil, fmt.Errorf("failed to connect to mongodb")
		}
		disconnect := func() { _ = client.Disconnect(context.Background()) }
		users, err := user.NewMongoRepository(ctx, logger, db)
		if err != nil {
			disconnect()
			return nil, err
		}
		logger.Info("successfully connected to mongodb", "database", cfg.Mongo.Database)
		return &stores{
			users:    users,
			settings: settings.NewMongoRepository(db),
			close:    disconnect,
		}, nil

	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
	}
}
