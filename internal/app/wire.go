package app

import (
	"context"
	"log/slog"

	"github.com/guildxyz/tokenbuyer/internal/cache/redis"
	"github.com/guildxyz/tokenbuyer/internal/config"
	"github.com/guildxyz/tokenbuyer/internal/domain"
	"github.com/guildxyz/tokenbuyer/internal/onchain"
	"github.com/guildxyz/tokenbuyer/internal/platform/coinbase"
	"github.com/guildxyz/tokenbuyer/internal/platform/reservoir"
	"github.com/guildxyz/tokenbuyer/internal/platform/zerox"
	"github.com/guildxyz/tokenbuyer/internal/pricing"
	"github.com/guildxyz/tokenbuyer/internal/server"
	"github.com/guildxyz/tokenbuyer/internal/server/handler"
)

// Deps bundles everything Run needs after wiring.
type Deps struct {
	Handlers    server.Handlers
	RateLimiter domain.RateLimiter // nil when Redis is not configured
}

// Wire constructs the full dependency graph from configuration. The returned
// cleanup function releases every resource Wire opened, in reverse order.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Deps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	chains := config.ChainSet(cfg.Chains)

	// Aggregator API roots per chain. A chain with no root simply is not
	// supported by that aggregator.
	zeroxURLs := make(map[string]string)
	reservoirURLs := make(map[string]string)
	for name, cc := range chains {
		if cc.ZeroXAPIURL != "" {
			zeroxURLs[name] = cc.ZeroXAPIURL
		}
		if cc.ReservoirAPIURL != "" {
			reservoirURLs[name] = cc.ReservoirAPIURL
		}
	}

	dex := zerox.New(zeroxURLs)
	nft := reservoir.New(reservoirURLs)
	oracle := coinbase.New(cfg.Oracle.BaseURL)

	reader := onchain.New(chains, logger)
	closers = append(closers, reader.Close)

	// Redis is optional: without it there is no rate limiting and every
	// oracle lookup goes straight to the API.
	var rateCache domain.RateCache
	var rateLimiter domain.RateLimiter
	if cfg.Redis.Addr != "" {
		rdb, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return Deps{}, nil, err
		}
		closers = append(closers, func() { _ = rdb.Close() })

		rateCache = redis.NewRateCache(rdb)
		rateLimiter = redis.NewRateLimiter(rdb)
	}

	svc := pricing.New(chains, cfg.Pricing, dex, nft, oracle, reader, rateCache, logger)

	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(logger),
		Price:    handler.NewPriceHandler(svc, logger),
		Purchase: handler.NewPurchaseHandler(chains, logger),
	}

	return Deps{Handlers: handlers, RateLimiter: rateLimiter}, cleanup, nil
}
