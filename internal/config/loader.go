package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies TOKENBUYER_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load. An empty path skips
// the file and uses defaults plus environment overrides.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known TOKENBUYER_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject endpoints and keys at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setInt(&cfg.Server.Port, "TOKENBUYER_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "TOKENBUYER_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "TOKENBUYER_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateLimitWindow, "TOKENBUYER_SERVER_RATE_LIMIT_WINDOW")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "TOKENBUYER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "TOKENBUYER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "TOKENBUYER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "TOKENBUYER_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "TOKENBUYER_REDIS_TLS_ENABLED")

	// ── Pricing ──
	setFloat64(&cfg.Pricing.GuildFeePercent, "TOKENBUYER_PRICING_GUILD_FEE_PERCENT")
	setInt64(&cfg.Pricing.WeiRoundingUnit, "TOKENBUYER_PRICING_WEI_ROUNDING_UNIT")
	setDuration(&cfg.Pricing.OracleCacheTTL, "TOKENBUYER_PRICING_ORACLE_CACHE_TTL")

	// ── Oracle ──
	setStr(&cfg.Oracle.BaseURL, "TOKENBUYER_ORACLE_BASE_URL")

	// ── Chains: per-chain RPC endpoints, e.g. TOKENBUYER_RPC_ETHEREUM ──
	for name, cc := range cfg.Chains {
		setStr(&cc.RPCURL, "TOKENBUYER_RPC_"+name)
		cfg.Chains[name] = cc
	}

	// ── Top-level ──
	setStr(&cfg.LogLevel, "TOKENBUYER_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
