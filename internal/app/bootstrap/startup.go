// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/stratashelter/internal/app/store/audit"
	"github.com/dalemusser/stratashelter/internal/app/system/rescue"
	"github.com/dalemusser/stratashelter/internal/app/system/tasks"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// taskRunner is kept for Shutdown.
var taskRunner *tasks.Runner

// Startup runs once after DB connections and indexes are in place, before
// the HTTP handler is built. It starts the maintenance jobs.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	logger.Info("rescue presets available", zap.Int("count", len(rescue.All())))

	taskRunner = tasks.New(logger)
	if appCfg.AuditRetention > 0 {
		taskRunner.Register(tasks.AuditRetentionJob(audit.New(deps.MongoDatabase), appCfg.AuditRetention, logger))
	}
	taskRunner.Start()

	return nil
}
