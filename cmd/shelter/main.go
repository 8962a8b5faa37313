// Command shelter serves the animal shelter dashboard API.
package main

import (
	"context"
	"os"

	"github.com/dalemusser/stratashelter/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
	"go.uber.org/zap"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		logger, _ := zap.NewProduction()
		logger.Error("shelter exited", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}
