package service

import (
	"context"
	"time"

	"github.com/Baaaki/procurehub/internal/repository"
	"github.com/Baaaki/procurehub/pkg/logger"
	"go.uber.org/zap"
)

// MigrationService holds data migrations that run outside request handling.
type MigrationService struct {
	users repository.UserStore
}

func NewMigrationService(users repository.UserStore) *MigrationService {
	return &MigrationService{users: users}
}

type BackfillResult struct {
	Retailers int64
	Customers int64
}

// BackfillUserTypes gives every account without a userType one: owners of a
// shop become retailers, all others customers. Safe to run repeatedly.
func (s *MigrationService) BackfillUserTypes(ctx context.Context) (*BackfillResult, error) {
	start := time.Now()

	retailers, customers, err := s.users.BackfillUserTypes(ctx)
	if err != nil {
		logger.Log.Error("User type backfill failed", zap.Error(err))
		return nil, err
	}

	logger.Log.Info("User type backfill completed",
		zap.Int64("retailers", retailers),
		zap.Int64("customers", customers),
		zap.Duration("duration", time.Since(start)),
	)
	return &BackfillResult{Retailers: retailers, Customers: customers}, nil
}
