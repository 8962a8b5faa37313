// Package tasks runs periodic maintenance jobs for the lifetime of the server.
package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a named function run once at Start and then every Interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Runner owns the goroutines for a set of jobs.
type Runner struct {
	logger *zap.Logger
	jobs   []Job
	wg     sync.WaitGroup
	cancel context.CancelFunc

	mu     sync.Mutex
	active map[string]struct{}
}

// New creates a Runner with no jobs.
func New(logger *zap.Logger) *Runner {
	return &Runner{logger: logger, active: map[string]struct{}{}}
}

// Register adds job. Call before Start.
func (r *Runner) Register(job Job) {
	r.jobs = append(r.jobs, job)
}

// Start launches one goroutine per registered job.
func (r *Runner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	for _, job := range r.jobs {
		r.wg.Add(1)
		go r.loop(ctx, job)
	}
	r.logger.Info("maintenance jobs started", zap.Int("jobs", len(r.jobs)))
}

// Stop cancels every job and waits for them until ctx is done. Jobs still
// running at the deadline are logged by name and ctx.Err() is returned.
func (r *Runner) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("maintenance jobs stopped")
		return nil
	case <-ctx.Done():
		r.logger.Warn("maintenance jobs did not stop in time", zap.Strings("still_running", r.running()))
		return ctx.Err()
	}
}

// RunOnce runs the named job synchronously. Unknown names are a no-op.
func (r *Runner) RunOnce(ctx context.Context, name string) error {
	for _, job := range r.jobs {
		if job.Name == name {
			return job.Run(ctx)
		}
	}
	return nil
}

func (r *Runner) loop(ctx context.Context, job Job) {
	defer r.wg.Done()

	r.exec(ctx, job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.exec(ctx, job)
		}
	}
}

func (r *Runner) exec(ctx context.Context, job Job) {
	r.mu.Lock()
	r.active[job.Name] = struct{}{}
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.active, job.Name)
		r.mu.Unlock()
	}()

	start := time.Now()
	err := job.Run(ctx)
	switch {
	case err != nil && ctx.Err() != nil:
		r.logger.Debug("job cancelled", zap.String("job", job.Name))
	case err != nil:
		r.logger.Error("job failed", zap.String("job", job.Name), zap.Duration("took", time.Since(start)), zap.Error(err))
	default:
		r.logger.Debug("job done", zap.String("job", job.Name), zap.Duration("took", time.Since(start)))
	}
}

func (r *Runner) running() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.active))
	for name := range r.active {
		names = append(names, name)
	}
	return names
}
