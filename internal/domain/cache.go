package domain

import (
	"context"
	"time"
)

// RateCache caches native-currency/USD exchange rates so the oracle is not
// hit on every keystroke in the checkout UI. Implementations return
// ErrNotFound on a miss.
type RateCache interface {
	GetRate(ctx context.Context, symbol string) (float64, error)
	SetRate(ctx context.Context, symbol string, rate float64, ttl time.Duration) error
}

// RateLimiter limits requests per key inside a sliding window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
