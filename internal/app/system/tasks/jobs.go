package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/stratashelter/internal/app/store/audit"
	"go.uber.org/zap"
)

// AuditRetentionJob deletes audit events older than retention once a day.
func AuditRetentionJob(store *audit.Store, retention time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     "audit-retention",
		Interval: 24 * time.Hour,
		Run: func(ctx context.Context) error {
			cutoff := time.Now().UTC().Add(-retention)
			n, err := store.DeleteBefore(ctx, cutoff)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("pruned audit events", zap.Int64("deleted", n), zap.Time("before", cutoff))
			}
			return nil
		},
	}
}
