// Package tasks runs fire-and-forget side effects (index pruning, expiry
// refresh, notification dispatch) off the request path.
//
// Each task gets a context detached from the request that spawned it, so the
// request's logger and trace survive but its cancellation does not, bounded
// by a per-task timeout. Failures and panics are logged and counted; they
// never reach the caller.
package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

// taskFailures counts failed or panicked background tasks by name.
var taskFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "invitations_background_task_failures_total",
		Help: "Background tasks that returned an error or panicked.",
	},
	[]string{"task"},
)

func init() {
	prometheus.MustRegister(taskFailures)
}

// Runner executes named tasks on a bounded worker pool.
type Runner struct {
	pool    *pool.Pool
	timeout time.Duration

	mu     sync.Mutex
	closed bool
}

// NewRunner returns a Runner with at most workers concurrent tasks, each
// limited to timeout (no limit when timeout <= 0).
func NewRunner(workers int, timeout time.Duration) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		pool:    pool.New().WithMaxGoroutines(workers),
		timeout: timeout,
	}
}

// Go schedules fn. It blocks only while every worker is busy. Tasks submitted
// after Close are dropped with a warning.
func (r *Runner) Go(ctx context.Context, name string, fn func(context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		logger(ctx).Warn().Str("task", name).Msg("tasks: runner closed, task dropped")
		return
	}
	detached := context.WithoutCancel(ctx)
	r.pool.Go(func() { r.run(detached, name, fn) })
}

func (r *Runner) run(ctx context.Context, name string, fn func(context.Context) error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var err error
	var pc panics.Catcher
	pc.Try(func() { err = fn(ctx) })
	if rec := pc.Recovered(); rec != nil {
		err = rec.AsError()
	}
	if err != nil {
		taskFailures.WithLabelValues(name).Inc()
		logger(ctx).Error().Err(err).Str("task", name).Msg("tasks: background task failed")
	}
}

// Close stops accepting tasks and waits for the ones in flight.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()
	r.pool.Wait()
}

// Inline runs tasks synchronously on the caller's goroutine. Errors are
// logged like Runner's. Useful in tests and tools where side effects must be
// visible as soon as the call returns.
type Inline struct{}

// Go runs fn immediately.
func (Inline) Go(ctx context.Context, name string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		taskFailures.WithLabelValues(name).Inc()
		logger(ctx).Error().Err(err).Str("task", name).Msg("tasks: background task failed")
	}
}

func logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
