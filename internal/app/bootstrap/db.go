// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/stratashelter/internal/app/shelter"
	"github.com/dalemusser/stratashelter/internal/app/system/indexes"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// ConnectDB opens the shelter client.
//
// shelter.Connect checks liveness within its own 5 second budget and returns
// a *shelter.ConnectionError when the store is unreachable; startup aborts
// with that error and nothing is retried.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	client, err := shelter.Connect(ctx, appCfg.ShelterConfig(), logger)
	if err != nil {
		if shelter.IsConnectionError(err) {
			logger.Error("document store unreachable", zap.Error(err))
		}
		return DBDeps{}, err
	}

	return DBDeps{
		Shelter:       client,
		MongoDatabase: client.Database(),
	}, nil
}

// EnsureSchema creates the indexes for users, rate limits and audit events.
// The unique username index is also ensured by shelter.Connect; running it
// again here is idempotent.
//
// The context has a timeout based on coreCfg.IndexBootTimeout.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	logger.Info("ensuring database indexes")
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("failed to ensure indexes", zap.Error(err))
		return err
	}
	logger.Info("database schema ensured successfully")
	return nil
}
