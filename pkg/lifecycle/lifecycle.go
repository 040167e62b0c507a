// Package lifecycle coordinates the startup and shutdown of long-lived systems.
//
// Systems register named hooks during initialization. Startup hooks run
// concurrently and must all succeed before the coordinator reports ready.
// Shutdown hooks run one at a time in reverse registration order, so a system
// registered last (typically the HTTP listener) stops before the systems it
// depends on.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrShutdownTimeout is returned when shutdown hooks outlive the deadline.
var ErrShutdownTimeout = errors.New("shutdown timeout")

// ReadinessChecker reports whether a subsystem is ready to serve traffic.
type ReadinessChecker interface {
	Ready() bool
}

// HookFunc performs startup or shutdown work for a system.
type HookFunc func(ctx context.Context) error

type hook struct {
	name string
	fn   HookFunc
}

// Coordinator collects hooks and drives them through startup and shutdown.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu       sync.Mutex
	startup  []hook
	shutdown []hook

	ready    atomic.Bool
	stopping sync.Once
	stopErr  error
}

// New creates a Coordinator whose context is cancelled when Shutdown begins.
func New(logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
		logger: logger.With("system", "lifecycle"),
	}
}

// Context returns the coordinator's context.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup registers a hook to run during Startup.
func (c *Coordinator) OnStartup(name string, fn HookFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startup = append(c.startup, hook{name: name, fn: fn})
}

// OnShutdown registers a hook to run during Shutdown.
func (c *Coordinator) OnShutdown(name string, fn HookFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shutdown = append(c.shutdown, hook{name: name, fn: fn})
}

// Startup runs every startup hook concurrently. The coordinator becomes
// ready only when all of them succeed; the first failure cancels the rest.
func (c *Coordinator) Startup(ctx context.Context) error {
	c.mu.Lock()
	hooks := slices.Clone(c.startup)
	c.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, h := range hooks {
		g.Go(func() error {
			start := time.Now()
			if err := h.fn(gctx); err != nil {
				return fmt.Errorf("%s: %w", h.name, err)
			}
			c.logger.Info("startup hook complete", "hook", h.name, "elapsed", time.Since(start))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	c.ready.Store(true)
	return nil
}

// Ready reports whether Startup has completed successfully and Shutdown has
// not yet begun.
func (c *Coordinator) Ready() bool {
	return c.ready.Load()
}

// Shutdown cancels the coordinator context and runs shutdown hooks in
// reverse registration order. Hook errors are joined; if the hooks do not
// finish within timeout, ErrShutdownTimeout is returned. Only the first call
// does any work.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.stopping.Do(func() {
		c.stopErr = c.stop(timeout)
	})
	return c.stopErr
}

func (c *Coordinator) stop(timeout time.Duration) error {
	c.ready.Store(false)
	c.cancel()

	c.mu.Lock()
	hooks := slices.Clone(c.shutdown)
	c.mu.Unlock()
	slices.Reverse(hooks)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		var errs []error
		for _, h := range hooks {
			if err := h.fn(ctx); err != nil {
				c.logger.Error("shutdown hook failed", "hook", h.name, "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
				continue
			}
			c.logger.Info("shutdown hook complete", "hook", h.name)
		}
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w after %v", ErrShutdownTimeout, timeout)
	}
}
