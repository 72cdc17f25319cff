package services

import (
	"context"

	"golang.org/x/time/rate"
)

// MYOB enforces its request limit per API key, so one limiter serves the whole process.
var (
	defaultRate  = rate.Limit(8) // requests per second
	defaultBurst = 8
	limiter      = rate.NewLimiter(defaultRate, defaultBurst)
)

// Acquire blocks until a token is available or context is done.
func Acquire(ctx context.Context) error {
	return limiter.Wait(ctx)
}

// SetLimiter allows tests to replace the limiter.
func SetLimiter(l *rate.Limiter) {
	if l != nil {
		limiter = l
	}
}

// Configure replaces the limiter; non-positive values keep the defaults.
func Configure(rateLimit float64, burst int) {
	r := defaultRate
	if rateLimit > 0 {
		r = rate.Limit(rateLimit)
	}
	b := defaultBurst
	if burst > 0 {
		b = burst
	}
	limiter = rate.NewLimiter(r, b)
}
