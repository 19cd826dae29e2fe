package run

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

type Runner struct {
	Logger *zap.Logger
	// ShutdownTimeout bounds each cleanup registered with OnShutdown.
	ShutdownTimeout time.Duration

	cleanups []func(context.Context) error
}

func New(log *zap.Logger) *Runner {
	return &Runner{Logger: log, ShutdownTimeout: 10 * time.Second}
}

// OnShutdown registers fn to run, in reverse registration order, once
// WithSignals returns.
func (r *Runner) OnShutdown(fn func(context.Context) error) {
	r.cleanups = append(r.cleanups, fn)
}

// WithSignals runs start until it returns or SIGINT/SIGTERM arrives, then runs
// the registered cleanups. It returns the process exit code.
func (r *Runner) WithSignals(start func(ctx context.Context) error) int {
	return r.run(context.Background(), start)
}

func (r *Runner) run(parent context.Context, start func(ctx context.Context) error) int {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- start(ctx)
	}()

	code := 0
	select {
	case <-ctx.Done():
		r.Logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.Logger.Error("service exited with error", zap.Error(err))
			code = 1
		}
	}
	r.shutdown()
	return code
}

func (r *Runner) shutdown() {
	for i := len(r.cleanups) - 1; i >= 0; i-- {
		c, cancel := context.WithTimeout(context.Background(), r.ShutdownTimeout)
		if err := r.cleanups[i](c); err != nil {
			r.Logger.Warn("shutdown step failed", zap.Error(err))
		}
		cancel()
	}
}

func Exit(code int) {
	os.Exit(code)
}
