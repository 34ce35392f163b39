package database

import (
	"context"
	"fmt"

	"github.com/Baaaki/procurehub/internal/config"
	"github.com/Baaaki/procurehub/internal/repository"
	"github.com/Baaaki/procurehub/internal/repository/mongostore"
)

// Backend is an opened store together with its health check and shutdown.
type Backend struct {
	Store *repository.Store
	Ping  func(ctx context.Context) error
	Close func()
}

// Open connects to the backend selected by DB_DRIVER and prepares its schema
// or indexes.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	if cfg.DBDriver == "mongodb" || cfg.DBDriver == "mongo" {
		return openMongo(ctx, cfg)
	}

	db, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		Close(db)
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		Close(db)
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	return &Backend{
		Store: repository.NewGormStore(db),
		Ping:  sqlDB.PingContext,
		Close: func() { Close(db) },
	}, nil
}

func openMongo(ctx context.Context, cfg *config.Config) (*Backend, error) {
	client, err := mongostore.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	db := client.Database(cfg.MongoDatabase)
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		_ = mongostore.Disconnect(client)
		return nil, err
	}

	return &Backend{
		Store: mongostore.NewStore(db),
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
		Close: func() { _ = mongostore.Disconnect(client) },
	}, nil
}
