// Package config defines the top-level configuration for the arbitrage
// engine and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by DEXARB_* environment variables.
type Config struct {
	Wallet    WalletConfig    `toml:"wallet"`
	Solana    SolanaConfig    `toml:"solana"`
	Jito      JitoConfig      `toml:"jito"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Graph     GraphConfig     `toml:"graph"`
	Reserves  ReservesConfig  `toml:"reserves"`
	Liquidity LiquidityConfig `toml:"liquidity"`
	Engine    EngineConfig    `toml:"engine"`
	Txn       TxnConfig       `toml:"txn"`
	Scanner   ScannerConfig   `toml:"scanner"`
	Archive   ArchiveConfig   `toml:"archive"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// WalletConfig holds the three Solana keypairs the engine signs with. Each
// key is either a base58 private key or comes from the encrypted keyfile.
type WalletConfig struct {
	OperatorKey      string `toml:"operator_key"`
	PayerKey         string `toml:"payer_key"`
	VaultKey         string `toml:"vault_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// SolanaConfig holds RPC and websocket endpoints plus chain parameters.
type SolanaConfig struct {
	RPCURL            string   `toml:"rpc_url"`
	WSURL             string   `toml:"ws_url"`
	Commitment        string   `toml:"commitment"`
	BlockhashInterval duration `toml:"blockhash_interval"`
	BlockhashTTL      duration `toml:"blockhash_ttl"`
}

// JitoConfig holds bundle relay parameters. When disabled, transactions go
// out over plain RPC.
type JitoConfig struct {
	Enabled     bool   `toml:"enabled"`
	RelayURL    string `toml:"relay_url"`
	TipAccount  string `toml:"tip_account"`
	TipLamports uint64 `toml:"tip_lamports"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// GraphConfig holds route-graph construction parameters.
type GraphConfig struct {
	// FeeFloorRatio rejects a candidate route when the Meteora base fee is
	// below this multiple of the Raydium flat fee. Routes below the floor
	// rarely clear the fixed leg's cost and are skipped permanently.
	FeeFloorRatio   float64  `toml:"fee_floor_ratio"`
	RefreshInterval duration `toml:"refresh_interval"`
}

// ReservesConfig holds account-stream synchronizer parameters.
type ReservesConfig struct {
	// Debounce suppresses re-evaluation of an account that updated within
	// the window.
	Debounce duration `toml:"debounce"`
	// MaxAge is the staleness budget: evaluation aborts when any leg's
	// reserve snapshot is older than this.
	MaxAge duration `toml:"max_age"`
	// SubscribesPerSecond rate-limits the subscribe burst after (re)connect.
	SubscribesPerSecond int `toml:"subscribes_per_second"`
}

// LiquidityConfig holds bin-window fetch parameters.
type LiquidityConfig struct {
	BinsLeft        int      `toml:"bins_left"`
	BinsRight       int      `toml:"bins_right"`
	RefreshInterval duration `toml:"refresh_interval"`
	CacheTTL        duration `toml:"cache_ttl"`
}

// EngineConfig holds opportunity evaluation parameters.
type EngineConfig struct {
	// BinsToTrade caps how many bins the Meteora leg may consume.
	BinsToTrade int `toml:"bins_to_trade"`
	// MinProfitUI is the WSOL profit threshold in display units.
	MinProfitUI float64 `toml:"min_profit_ui"`
	// MaxDiffPct drops evaluations whose leg prices diverge by more than
	// this percentage; spreads that wide come from stale or corrupt data,
	// not the market. Zero disables the ceiling.
	MaxDiffPct float64 `toml:"max_diff_pct"`
	// MinTradeSizeUI floors both the aggregated bin liquidity and the
	// final buy-leg cost, in WSOL display units. Trades below it cannot
	// clear the tip and compute price.
	MinTradeSizeUI float64 `toml:"min_trade_size_ui"`
	// MaxTradeSizeUI caps the WSOL borrowed from the vault per trade.
	// Zero disables the cap.
	MaxTradeSizeUI float64 `toml:"max_trade_size_ui"`
	// ImpactThreshold is the price-impact fraction above which the buy leg
	// is bisected down.
	ImpactThreshold float64 `toml:"impact_threshold"`
	MaxIterations   int     `toml:"max_iterations"`
	// MinFraction floors bisection at this fraction of the original size.
	MinFraction     float64 `toml:"min_fraction"`
	BaseSlippagePct float64 `toml:"base_slippage_pct"`
	MaxSlippagePct  float64 `toml:"max_slippage_pct"`
	// Cooldown pauses a route after a dispatch before it may fire again.
	Cooldown duration `toml:"cooldown"`
}

// TxnConfig holds compute-budget parameters for built transactions.
type TxnConfig struct {
	ComputeUnitLimit uint32 `toml:"compute_unit_limit"`
	// ComputeUnitPrice is in micro-lamports per compute unit.
	ComputeUnitPrice uint64 `toml:"compute_unit_price"`
}

// ScannerConfig holds pool-discovery parameters.
type ScannerConfig struct {
	Enabled         bool     `toml:"enabled"`
	MeteoraAPI      string   `toml:"meteora_api"`
	RaydiumAPI      string   `toml:"raydium_api"`
	AggregatorAPI   string   `toml:"aggregator_api"`
	PairInterval    duration `toml:"pair_interval"`
	PoolInterval    duration `toml:"pool_interval"`
	MinLiquidityUSD float64  `toml:"min_liquidity_usd"`
}

// ArchiveConfig holds trade-archival parameters.
type ArchiveConfig struct {
	Enabled       bool     `toml:"enabled"`
	RetentionDays int      `toml:"retention_days"`
	Interval      duration `toml:"interval"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "250ms").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Solana: SolanaConfig{
			RPCURL:            "https://api.mainnet-beta.solana.com",
			WSURL:             "wss://api.mainnet-beta.solana.com",
			Commitment:        "processed",
			BlockhashInterval: duration{250 * time.Millisecond},
			BlockhashTTL:      duration{10 * time.Second},
		},
		Jito: JitoConfig{
			Enabled:     false,
			RelayURL:    "https://mainnet.block-engine.jito.wtf/api/v1/transactions",
			TipAccount:  "96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5",
			TipLamports: 100_000,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "dexarb",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "dexarb-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Graph: GraphConfig{
			FeeFloorRatio:   1.0,
			RefreshInterval: duration{5 * time.Minute},
		},
		Reserves: ReservesConfig{
			Debounce:            duration{500 * time.Millisecond},
			MaxAge:              duration{30 * time.Second},
			SubscribesPerSecond: 20,
		},
		Liquidity: LiquidityConfig{
			BinsLeft:        10,
			BinsRight:       10,
			RefreshInterval: duration{2 * time.Second},
			CacheTTL:        duration{2 * time.Second},
		},
		Engine: EngineConfig{
			BinsToTrade:     3,
			MinProfitUI:     0,
			MaxDiffPct:      20.0,
			MinTradeSizeUI:  0.01,
			MaxTradeSizeUI:  0.5,
			ImpactThreshold: 0.01,
			MaxIterations:   10,
			MinFraction:     0.1,
			BaseSlippagePct: 0.5,
			MaxSlippagePct:  7.0,
			Cooldown:        duration{2 * time.Second},
		},
		Txn: TxnConfig{
			ComputeUnitLimit: 400_000,
			ComputeUnitPrice: 50_000,
		},
		Scanner: ScannerConfig{
			Enabled:         false,
			MeteoraAPI:      "https://dlmm-api.meteora.ag",
			RaydiumAPI:      "https://api-v3.raydium.io",
			AggregatorAPI:   "https://api.dexscreener.com",
			PairInterval:    duration{30 * time.Second},
			PoolInterval:    duration{5 * time.Minute},
			MinLiquidityUSD: 5_000,
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			RetentionDays: 30,
			Interval:      duration{6 * time.Hour},
		},
		Notify: NotifyConfig{
			Events: []string{"trade", "token"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"discover": true,
	"listen":   true,
	"bins":     true,
	"full":     true,
	"reset":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validCommitments enumerates the accepted Solana commitment levels.
var validCommitments = map[string]bool{
	"processed": true,
	"confirmed": true,
	"finalized": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: discover, listen, bins, full, reset)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Wallet — signing modes need all three keys from some source.
	needsWallet := c.Mode == "listen" || c.Mode == "full" || c.Mode == "discover"
	if needsWallet {
		fromEnv := c.Wallet.OperatorKey != "" && c.Wallet.PayerKey != "" && c.Wallet.VaultKey != ""
		if !fromEnv && c.Wallet.EncryptedKeyPath == "" {
			errs = append(errs, "wallet: either all of operator_key/payer_key/vault_key or encrypted_key_path must be set for mode "+c.Mode)
		}
		if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
			errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
		}
	}

	// Solana endpoints
	if c.Solana.RPCURL == "" {
		errs = append(errs, "solana: rpc_url must not be empty")
	}
	if c.Solana.WSURL == "" {
		errs = append(errs, "solana: ws_url must not be empty")
	}
	if !validCommitments[c.Solana.Commitment] {
		errs = append(errs, fmt.Sprintf("solana: commitment must be processed, confirmed, or finalized, got %q", c.Solana.Commitment))
	}
	if c.Solana.BlockhashInterval.Duration <= 0 {
		errs = append(errs, "solana: blockhash_interval must be > 0")
	}
	if c.Solana.BlockhashTTL.Duration <= c.Solana.BlockhashInterval.Duration {
		errs = append(errs, "solana: blockhash_ttl must exceed blockhash_interval")
	}

	// Jito
	if c.Jito.Enabled {
		if c.Jito.RelayURL == "" {
			errs = append(errs, "jito: relay_url must not be empty when enabled")
		}
		if c.Jito.TipAccount == "" {
			errs = append(errs, "jito: tip_account must not be empty when enabled")
		}
		if c.Jito.TipLamports == 0 {
			errs = append(errs, "jito: tip_lamports must be > 0 when enabled")
		}
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3 — only when archival runs.
	if c.Archive.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when archive is enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archive is enabled")
		}
	}

	// Graph
	if c.Graph.FeeFloorRatio < 0 {
		errs = append(errs, "graph: fee_floor_ratio must be >= 0")
	}

	// Reserves
	if c.Reserves.Debounce.Duration < 0 {
		errs = append(errs, "reserves: debounce must be >= 0")
	}
	if c.Reserves.MaxAge.Duration <= 0 {
		errs = append(errs, "reserves: max_age must be > 0")
	}
	if c.Reserves.SubscribesPerSecond < 1 {
		errs = append(errs, "reserves: subscribes_per_second must be >= 1")
	}

	// Liquidity
	if c.Liquidity.BinsLeft < 0 || c.Liquidity.BinsRight < 0 {
		errs = append(errs, "liquidity: bins_left and bins_right must be >= 0")
	}

	// Engine
	if c.Engine.BinsToTrade < 1 {
		errs = append(errs, "engine: bins_to_trade must be >= 1")
	}
	if c.Engine.ImpactThreshold <= 0 {
		errs = append(errs, "engine: impact_threshold must be > 0")
	}
	if c.Engine.MaxIterations < 1 {
		errs = append(errs, "engine: max_iterations must be >= 1")
	}
	if c.Engine.MinFraction <= 0 || c.Engine.MinFraction > 1 {
		errs = append(errs, "engine: min_fraction must be in (0, 1]")
	}
	if c.Engine.MaxSlippagePct < c.Engine.BaseSlippagePct {
		errs = append(errs, "engine: max_slippage_pct must be >= base_slippage_pct")
	}

	// Txn
	if c.Txn.ComputeUnitLimit == 0 {
		errs = append(errs, "txn: compute_unit_limit must be > 0")
	}

	// Scanner
	if c.Scanner.Enabled {
		if c.Scanner.MeteoraAPI == "" {
			errs = append(errs, "scanner: meteora_api must not be empty when enabled")
		}
		if c.Scanner.AggregatorAPI == "" {
			errs = append(errs, "scanner: aggregator_api must not be empty when enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
