// Package fulltext resolves the best available full text for a DOI across a
// tiered set of sources. It provides the shared rate-limited HTTP client,
// the DOI-to-registry-identifier resolver, the Retriever interface each
// source tier implements, and the orchestrator that folds over the tiers.
package fulltext

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter gates outbound requests. A single Limiter is shared across every
// retriever and every concurrent DOI task, making it the one process-wide
// synchronization point that enforces the global requests-per-second
// ceiling. Tests inject NopLimiter to avoid pacing.
type Limiter interface {
	// Wait blocks until a request is allowed or the context is canceled.
	Wait(ctx context.Context) error
}

// RateLimiter is a token-bucket Limiter backed by rate.Limiter, which is
// safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter allowing ratePerSecond sustained
// requests with the given burst. NCBI E-utilities allow 3 req/s without an
// API key; NewRateLimiter(3, 3) matches that.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

// Wait blocks until a token is available or the context is canceled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Allow reports whether a request may proceed without waiting, consuming a
// token if so.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// NopLimiter never blocks.
type NopLimiter struct{}

// Wait returns immediately unless the context is already canceled.
func (NopLimiter) Wait(ctx context.Context) error {
	return ctx.Err()
}
