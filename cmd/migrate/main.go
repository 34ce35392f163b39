package main

import (
	"context"
	"log"
	"time"

	"github.com/Baaaki/procurehub/internal/config"
	"github.com/Baaaki/procurehub/internal/database"
	"github.com/Baaaki/procurehub/internal/service"
	"github.com/Baaaki/procurehub/pkg/logger"
	"go.uber.org/zap"
)

// migrate applies the schema and backfills userType on legacy accounts
// without starting the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	backend, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Log.Fatal("Failed to open store", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer backend.Close()

	result, err := service.NewMigrationService(backend.Store.Users).BackfillUserTypes(ctx)
	if err != nil {
		logger.Log.Fatal("Migration failed", zap.Error(err))
	}

	logger.Log.Info("Migration finished",
		zap.Int64("retailers", result.Retailers),
		zap.Int64("customers", result.Customers),
	)
}
