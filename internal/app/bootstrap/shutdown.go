// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown runs after the HTTP server has drained. It stops the maintenance
// jobs and then closes the shelter client, returning the first error.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	var firstErr error

	if taskRunner != nil {
		if err := taskRunner.Stop(ctx); err != nil {
			logger.Warn("maintenance jobs did not stop cleanly", zap.Error(err))
			firstErr = err
		}
	}

	if deps.Shelter != nil {
		logger.Info("closing document store client")
		if err := deps.Shelter.Close(ctx); err != nil {
			logger.Error("document store disconnect failed", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
