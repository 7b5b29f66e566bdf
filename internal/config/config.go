// Package config defines the top-level configuration for the token buyer
// API and provides validation helpers. The chain registry and fee constants
// are plain immutable data handed to the services at construction; nothing
// here is mutated after Load.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// NullAddress is the zero address, used as the payment token when paying in
// the chain's native coin.
const NullAddress = "0x0000000000000000000000000000000000000000"

var addressRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsAddress reports whether s is a 20-byte hex address with 0x prefix.
func IsAddress(s string) bool {
	return addressRegex.MatchString(s)
}

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by TOKENBUYER_* environment
// variables.
type Config struct {
	Server   ServerConfig           `toml:"server"`
	Redis    RedisConfig            `toml:"redis"`
	Pricing  PricingConfig          `toml:"pricing"`
	Oracle   OracleConfig           `toml:"oracle"`
	Chains   map[string]ChainConfig `toml:"chains"`
	LogLevel string                 `toml:"log_level"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port            int      `toml:"port"`
	CORSOrigins     []string `toml:"cors_origins"`
	RateLimit       int      `toml:"rate_limit"`
	RateLimitWindow duration `toml:"rate_limit_window"`
	ShutdownTimeout duration `toml:"shutdown_timeout"`
}

// RedisConfig holds Redis connection parameters. An empty Addr disables
// Redis entirely (no rate limiting, no oracle rate cache).
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PricingConfig holds the platform fee constants and quote parameters.
type PricingConfig struct {
	// GuildFeePercent is the platform fee taken on top of the quoted price,
	// e.g. 0.01 for 1%.
	GuildFeePercent float64 `toml:"guild_fee_percent"`
	// WeiRoundingUnit is the unit the max swap ceiling is floored to before
	// being sent on-chain. The exact tolerance band is still under
	// discussion with the contract owners, so it is config rather than code.
	WeiRoundingUnit int64 `toml:"wei_rounding_unit"`
	// SupportedSources lists the liquidity sources a swap quote may be
	// filled by.
	SupportedSources []string `toml:"supported_sources"`
	// OracleCacheTTL bounds how long a cached native-USD rate is served.
	OracleCacheTTL duration `toml:"oracle_cache_ttl"`
}

// OracleConfig holds the exchange-rate API parameters.
type OracleConfig struct {
	BaseURL string `toml:"base_url"`
}

// ChainConfig describes one supported chain: its RPC endpoint, native
// currency, aggregator API roots, and the deployed fee-collector contract.
type ChainConfig struct {
	ChainID        int64  `toml:"chain_id"`
	RPCURL         string `toml:"rpc_url"`
	NativeSymbol   string `toml:"native_symbol"`
	NativeDecimals uint8  `toml:"native_decimals"`
	// ZeroXAPIURL is the 0x swap API root for this chain; empty means ERC20
	// quoting is unsupported here.
	ZeroXAPIURL string `toml:"zerox_api_url"`
	// ReservoirAPIURL is the Reservoir API root; empty means NFT quoting is
	// unsupported here.
	ReservoirAPIURL string `toml:"reservoir_api_url"`
	// TokenBuyerAddress is the fee-collector contract; empty means ERC20
	// purchases are unsupported here.
	TokenBuyerAddress string `toml:"token_buyer_address"`
	// UniversalRouter marks chains whose purchases go through a chain-specific
	// universal router rather than the generic fee-collector entry point.
	UniversalRouter bool `toml:"universal_router"`
}

// ChainSet is the immutable chain registry keyed by chain name (ETHEREUM,
// POLYGON, ...).
type ChainSet map[string]ChainConfig

// Get looks up a chain by name.
func (cs ChainSet) Get(name string) (ChainConfig, bool) {
	cc, ok := cs[name]
	return cc, ok
}

// IsNativeSymbol reports whether symbol is the native currency of any
// configured chain.
func (cs ChainSet) IsNativeSymbol(symbol string) bool {
	for _, cc := range cs {
		if cc.NativeSymbol == symbol {
			return true
		}
	}
	return false
}

// duration wraps time.Duration so the TOML decoder can parse strings like
// "30s" or "5m".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with the production chain registry and
// fee constants. These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8000,
			CORSOrigins:     []string{"https://guild.xyz", "http://localhost:3000"},
			RateLimit:       20,
			RateLimitWindow: duration{10 * time.Second},
			ShutdownTimeout: duration{15 * time.Second},
		},
		Redis: RedisConfig{
			Addr:       "",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		Pricing: PricingConfig{
			GuildFeePercent:  0.01,
			WeiRoundingUnit:  100000,
			SupportedSources: []string{"Uniswap_V2", "Uniswap_V3"},
			OracleCacheTTL:   duration{30 * time.Second},
		},
		Oracle: OracleConfig{
			BaseURL: "https://api.coinbase.com",
		},
		Chains: map[string]ChainConfig{
			"ETHEREUM": {
				ChainID:           1,
				RPCURL:            "https://cloudflare-eth.com",
				NativeSymbol:      "ETH",
				NativeDecimals:    18,
				ZeroXAPIURL:       "https://api.0x.org",
				ReservoirAPIURL:   "https://api.reservoir.tools",
				TokenBuyerAddress: "0x4aff02d7aa6be3ef2b1df629e51dcc9109427a07",
			},
			"POLYGON": {
				ChainID:           137,
				RPCURL:            "https://polygon-rpc.com",
				NativeSymbol:      "MATIC",
				NativeDecimals:    18,
				ZeroXAPIURL:       "https://polygon.api.0x.org",
				ReservoirAPIURL:   "https://api-polygon.reservoir.tools",
				TokenBuyerAddress: "0x151c518390d38487a4ddcb02e3f156a77c184cb9",
			},
			"ARBITRUM": {
				ChainID:           42161,
				RPCURL:            "https://arb1.arbitrum.io/rpc",
				NativeSymbol:      "ETH",
				NativeDecimals:    18,
				ZeroXAPIURL:       "https://arbitrum.api.0x.org",
				TokenBuyerAddress: "0xe6e6b676f94a6207882ac92b6014a391766fa96e",
				UniversalRouter:   true,
			},
			"GOERLI": {
				ChainID:           5,
				RPCURL:            "https://rpc.ankr.com/eth_goerli",
				NativeSymbol:      "ETH",
				NativeDecimals:    18,
				ZeroXAPIURL:       "https://goerli.api.0x.org",
				ReservoirAPIURL:   "https://api-goerli.reservoir.tools",
				TokenBuyerAddress: "0x1eeaab336061d64f1d271eed59e1d180a2b0146b",
			},
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server: rate_limit must be >= 0")
	}

	if c.Redis.Addr != "" && c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	if c.Pricing.GuildFeePercent < 0 || c.Pricing.GuildFeePercent >= 1 {
		errs = append(errs, fmt.Sprintf("pricing: guild_fee_percent must be in [0, 1), got %g", c.Pricing.GuildFeePercent))
	}
	if c.Pricing.WeiRoundingUnit < 1 {
		errs = append(errs, "pricing: wei_rounding_unit must be >= 1")
	}
	if len(c.Pricing.SupportedSources) == 0 {
		errs = append(errs, "pricing: supported_sources must not be empty")
	}

	if c.Oracle.BaseURL == "" {
		errs = append(errs, "oracle: base_url must not be empty")
	}

	if len(c.Chains) == 0 {
		errs = append(errs, "chains: at least one chain must be configured")
	}
	for name, cc := range c.Chains {
		if cc.ChainID <= 0 {
			errs = append(errs, fmt.Sprintf("chains.%s: chain_id must be positive", name))
		}
		if cc.RPCURL == "" {
			errs = append(errs, fmt.Sprintf("chains.%s: rpc_url must not be empty", name))
		}
		if cc.NativeSymbol == "" {
			errs = append(errs, fmt.Sprintf("chains.%s: native_symbol must not be empty", name))
		}
		if cc.NativeDecimals == 0 {
			errs = append(errs, fmt.Sprintf("chains.%s: native_decimals must be positive", name))
		}
		if cc.TokenBuyerAddress != "" && !IsAddress(cc.TokenBuyerAddress) {
			errs = append(errs, fmt.Sprintf("chains.%s: token_buyer_address is not a valid address", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
