package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Runner fires a job on a fixed interval. Overlapping runs are skipped: the
// platform timer gives no non-overlap guarantee, so a tick that arrives while
// the previous run is still going is dropped rather than queued.
type Runner struct {
	name     string
	interval time.Duration
	clock    clockwork.Clock
	job      func(ctx context.Context)
	logger   *slog.Logger
	mu       sync.Mutex
}

func NewRunner(name string, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, job func(ctx context.Context)) *Runner {
	return &Runner{
		name:     name,
		interval: interval,
		clock:    clock,
		job:      job,
		logger:   logger,
	}
}

// Start launches the tick loop. It returns immediately; the loop stops when
// ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	go func() {
		ticker := r.clock.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				r.RunOnce(ctx)
			}
		}
	}()
}

// RunOnce executes the job if no other run is in flight. Returns false when
// the run was skipped.
func (r *Runner) RunOnce(ctx context.Context) bool {
	if !r.mu.TryLock() {
		r.logger.Warn("scheduler run skipped, previous run still active", "scheduler", r.name)
		return false
	}
	defer r.mu.Unlock()
	r.job(ctx)
	return true
}
