// Package ratelimit provides one token-bucket limiter per external
// source class (spec §5), shared across the bounded per-symbol
// fan-out so concurrent workers never collectively exceed a vendor's
// rate budget.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter wraps golang.org/x/time/rate with the two access patterns
// the scheduler needs: a blocking Acquire for scheduled scans that can
// afford to wait, and a non-blocking TryAcquire for latency-sensitive
// on-demand requests that should fail fast instead of queuing.
type Limiter struct {
	lim *rate.Limiter
}

// New creates a limiter permitting ratePerSecond sustained requests
// with burst headroom of burst.
func New(ratePerSecond float64, burst int) *Limiter {
	return &Limiter{lim: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

// Acquire blocks until a token is available or ctx is cancelled.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.lim.Wait(ctx)
}

// TryAcquire reports whether a token was immediately available,
// consuming it if so.
func (l *Limiter) TryAcquire() bool {
	return l.lim.Allow()
}

// Registry holds one Limiter per named external source.
type Registry struct {
	limiters map[string]*Limiter
}

func NewRegistry() *Registry {
	return &Registry{limiters: make(map[string]*Limiter)}
}

// Register installs a limiter under name, replacing any prior one.
func (r *Registry) Register(name string, ratePerSecond float64, burst int) {
	r.limiters[name] = New(ratePerSecond, burst)
}

// For returns the limiter registered under name, or nil if none.
func (r *Registry) For(name string) *Limiter {
	return r.limiters[name]
}
