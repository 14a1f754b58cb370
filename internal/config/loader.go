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
// built-in defaults, applies DEXARB_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known DEXARB_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Wallet ──
	setStr(&cfg.Wallet.OperatorKey, "DEXARB_WALLET_OPERATOR_KEY")
	setStr(&cfg.Wallet.PayerKey, "DEXARB_WALLET_PAYER_KEY")
	setStr(&cfg.Wallet.VaultKey, "DEXARB_WALLET_VAULT_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "DEXARB_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "DEXARB_WALLET_KEY_PASSWORD")

	// ── Solana ──
	setStr(&cfg.Solana.RPCURL, "DEXARB_SOLANA_RPC_URL")
	setStr(&cfg.Solana.WSURL, "DEXARB_SOLANA_WS_URL")
	setStr(&cfg.Solana.Commitment, "DEXARB_SOLANA_COMMITMENT")
	setDuration(&cfg.Solana.BlockhashInterval, "DEXARB_SOLANA_BLOCKHASH_INTERVAL")
	setDuration(&cfg.Solana.BlockhashTTL, "DEXARB_SOLANA_BLOCKHASH_TTL")

	// ── Jito ──
	setBool(&cfg.Jito.Enabled, "DEXARB_JITO_ENABLED")
	setStr(&cfg.Jito.RelayURL, "DEXARB_JITO_RELAY_URL")
	setStr(&cfg.Jito.TipAccount, "DEXARB_JITO_TIP_ACCOUNT")
	setUint64(&cfg.Jito.TipLamports, "DEXARB_JITO_TIP_LAMPORTS")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "DEXARB_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DEXARB_DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "DEXARB_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "DEXARB_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "DEXARB_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "DEXARB_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "DEXARB_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "DEXARB_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "DEXARB_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "DEXARB_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "DEXARB_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "DEXARB_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "DEXARB_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "DEXARB_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "DEXARB_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "DEXARB_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "DEXARB_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "DEXARB_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "DEXARB_S3_REGION")
	setStr(&cfg.S3.Bucket, "DEXARB_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "DEXARB_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "DEXARB_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "DEXARB_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "DEXARB_S3_FORCE_PATH_STYLE")

	// ── Graph ──
	setFloat64(&cfg.Graph.FeeFloorRatio, "DEXARB_GRAPH_FEE_FLOOR_RATIO")
	setDuration(&cfg.Graph.RefreshInterval, "DEXARB_GRAPH_REFRESH_INTERVAL")

	// ── Reserves ──
	setDuration(&cfg.Reserves.Debounce, "DEXARB_RESERVES_DEBOUNCE")
	setDuration(&cfg.Reserves.MaxAge, "DEXARB_RESERVES_MAX_AGE")
	setInt(&cfg.Reserves.SubscribesPerSecond, "DEXARB_RESERVES_SUBSCRIBES_PER_SECOND")

	// ── Liquidity ──
	setInt(&cfg.Liquidity.BinsLeft, "DEXARB_LIQUIDITY_BINS_LEFT")
	setInt(&cfg.Liquidity.BinsRight, "DEXARB_LIQUIDITY_BINS_RIGHT")
	setDuration(&cfg.Liquidity.RefreshInterval, "DEXARB_LIQUIDITY_REFRESH_INTERVAL")
	setDuration(&cfg.Liquidity.CacheTTL, "DEXARB_LIQUIDITY_CACHE_TTL")

	// ── Engine ──
	setInt(&cfg.Engine.BinsToTrade, "DEXARB_ENGINE_BINS_TO_TRADE")
	setFloat64(&cfg.Engine.MinProfitUI, "DEXARB_ENGINE_MIN_PROFIT_UI")
	setFloat64(&cfg.Engine.ImpactThreshold, "DEXARB_ENGINE_IMPACT_THRESHOLD")
	setInt(&cfg.Engine.MaxIterations, "DEXARB_ENGINE_MAX_ITERATIONS")
	setFloat64(&cfg.Engine.MinFraction, "DEXARB_ENGINE_MIN_FRACTION")
	setFloat64(&cfg.Engine.BaseSlippagePct, "DEXARB_ENGINE_BASE_SLIPPAGE_PCT")
	setFloat64(&cfg.Engine.MaxSlippagePct, "DEXARB_ENGINE_MAX_SLIPPAGE_PCT")
	setDuration(&cfg.Engine.Cooldown, "DEXARB_ENGINE_COOLDOWN")

	// ── Txn ──
	setUint32(&cfg.Txn.ComputeUnitLimit, "DEXARB_TXN_COMPUTE_UNIT_LIMIT")
	setUint64(&cfg.Txn.ComputeUnitPrice, "DEXARB_TXN_COMPUTE_UNIT_PRICE")

	// ── Scanner ──
	setBool(&cfg.Scanner.Enabled, "DEXARB_SCANNER_ENABLED")
	setStr(&cfg.Scanner.MeteoraAPI, "DEXARB_SCANNER_METEORA_API")
	setStr(&cfg.Scanner.RaydiumAPI, "DEXARB_SCANNER_RAYDIUM_API")
	setStr(&cfg.Scanner.AggregatorAPI, "DEXARB_SCANNER_AGGREGATOR_API")
	setDuration(&cfg.Scanner.PairInterval, "DEXARB_SCANNER_PAIR_INTERVAL")
	setDuration(&cfg.Scanner.PoolInterval, "DEXARB_SCANNER_POOL_INTERVAL")
	setFloat64(&cfg.Scanner.MinLiquidityUSD, "DEXARB_SCANNER_MIN_LIQUIDITY_USD")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "DEXARB_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "DEXARB_ARCHIVE_RETENTION_DAYS")
	setDuration(&cfg.Archive.Interval, "DEXARB_ARCHIVE_INTERVAL")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "DEXARB_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "DEXARB_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "DEXARB_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "DEXARB_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "DEXARB_MODE")
	setStr(&cfg.LogLevel, "DEXARB_LOG_LEVEL")
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

func setUint32(dst *uint32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			*dst = uint32(n)
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
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
