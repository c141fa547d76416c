// Package resource manages shared limits for outbound provider calls
// (embedding, naming, keyword metrics).
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds provider call limits.
type Config struct {
	// MaxConcurrentCalls is the maximum number of in-flight provider calls.
	// If 0, defaults to 1.
	MaxConcurrentCalls int64

	// CallsPerSecond is the maximum sustained provider call rate.
	// If 0, unlimited.
	CallsPerSecond float64

	// Burst is the maximum burst above the sustained rate.
	// If 0, defaults to the ceiling of CallsPerSecond (minimum 1).
	Burst int
}

// Controller throttles outbound provider calls with a concurrency
// semaphore and a token-bucket rate limiter.
type Controller struct {
	cfg Config

	callSem  *semaphore.Weighted
	limiter  *rate.Limiter // nil if unlimited
	inFlight atomic.Int64
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentCalls <= 0 {
		cfg.MaxConcurrentCalls = 1
	}

	c := &Controller{
		cfg:     cfg,
		callSem: semaphore.NewWeighted(cfg.MaxConcurrentCalls),
	}

	if cfg.CallsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = int(cfg.CallsPerSecond)
			if burst < 1 {
				burst = 1
			}
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.CallsPerSecond), burst)
	}

	return c
}

// Acquire reserves a call slot, waiting for both a concurrency slot and a
// rate token. Blocks until available or ctx is canceled.
func (c *Controller) Acquire(ctx context.Context) error {
	if c == nil {
		return nil
	}

	if err := c.callSem.Acquire(ctx, 1); err != nil {
		return err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.callSem.Release(1)
			return err
		}
	}

	c.inFlight.Add(1)
	return nil
}

// Release returns a call slot.
func (c *Controller) Release() {
	if c == nil {
		return
	}
	c.inFlight.Add(-1)
	c.callSem.Release(1)
}

// InFlight returns the current number of in-flight provider calls.
func (c *Controller) InFlight() int64 {
	if c == nil {
		return 0
	}
	return c.inFlight.Load()
}

// Do runs fn inside an acquired call slot.
func (c *Controller) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := c.Acquire(ctx); err != nil {
		return err
	}
	defer c.Release()

	return fn(ctx)
}
