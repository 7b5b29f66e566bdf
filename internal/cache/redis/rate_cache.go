package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/guildxyz/tokenbuyer/internal/domain"
)

// RateCache implements domain.RateCache using plain string keys with a TTL.
// Only oracle exchange rates live here; quotes are never cached because a
// stale swap route is worse than a slow one.
type RateCache struct {
	rdb *redis.Client
}

// NewRateCache creates a RateCache backed by the given Client.
func NewRateCache(c *Client) *RateCache {
	return &RateCache{rdb: c.Underlying()}
}

func rateKey(symbol string) string {
	return "usdrate:" + symbol
}

// GetRate retrieves the cached USD rate for a currency symbol. It returns
// domain.ErrNotFound when the key does not exist or has expired.
func (rc *RateCache) GetRate(ctx context.Context, symbol string) (float64, error) {
	val, err := rc.rdb.Get(ctx, rateKey(symbol)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("redis: get rate %s: %w", symbol, err)
	}

	rate, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("redis: parse rate %s: %w", symbol, err)
	}
	return rate, nil
}

// SetRate stores the USD rate for a currency symbol with the given TTL.
func (rc *RateCache) SetRate(ctx context.Context, symbol string, rate float64, ttl time.Duration) error {
	val := strconv.FormatFloat(rate, 'f', -1, 64)
	if err := rc.rdb.Set(ctx, rateKey(symbol), val, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set rate %s: %w", symbol, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.RateCache = (*RateCache)(nil)
