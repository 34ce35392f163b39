package database

import (
	"fmt"

	"github.com/Baaaki/procurehub/internal/config"
	"github.com/Baaaki/procurehub/internal/models"
	"github.com/Baaaki/procurehub/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the SQL database selected by DB_DRIVER.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres", "":
		dialector = postgres.Open(cfg.DatabaseURL)
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported SQL driver %q", cfg.DBDriver)
	}

	logLevel := gormlogger.Warn
	if cfg.IsProduction() {
		logLevel = gormlogger.Error
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if cfg.DBDriver == "sqlite" {
		// one writer keeps SQLite from returning SQLITE_BUSY under load
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	DB = db
	logger.Log.Info("Database connected successfully", zap.String("driver", cfg.DBDriver))
	return db, nil
}

// Migrate creates or updates the schema, including the unique index on
// shops.user_id.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Shop{}, &models.Product{}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Log.Info("Database migration completed")
	return nil
}

func Close(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
