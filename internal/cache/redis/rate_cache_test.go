package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildxyz/tokenbuyer/internal/domain"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	c, err := New(context.Background(), ClientConfig{
		Addr:     mr.Addr(),
		PoolSize: 2,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c, mr
}

func TestRateCacheRoundTrip(t *testing.T) {
	c, _ := newTestClient(t)
	rc := NewRateCache(c)
	ctx := context.Background()

	require.NoError(t, rc.SetRate(ctx, "ETH", 2000.25, 30*time.Second))

	rate, err := rc.GetRate(ctx, "ETH")
	require.NoError(t, err)
	assert.InDelta(t, 2000.25, rate, 1e-9)
}

func TestRateCacheMiss(t *testing.T) {
	c, _ := newTestClient(t)
	rc := NewRateCache(c)

	_, err := rc.GetRate(context.Background(), "MATIC")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRateCacheExpiry(t *testing.T) {
	c, mr := newTestClient(t)
	rc := NewRateCache(c)
	ctx := context.Background()

	require.NoError(t, rc.SetRate(ctx, "ETH", 2000, 10*time.Second))
	mr.FastForward(11 * time.Second)

	_, err := rc.GetRate(ctx, "ETH")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
