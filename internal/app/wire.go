package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/quantfold/dexarb/internal/blob/s3"
	"github.com/quantfold/dexarb/internal/cache/redis"
	"github.com/quantfold/dexarb/internal/chain"
	"github.com/quantfold/dexarb/internal/config"
	"github.com/quantfold/dexarb/internal/domain"
	"github.com/quantfold/dexarb/internal/notify"
	"github.com/quantfold/dexarb/internal/signer"
	"github.com/quantfold/dexarb/internal/store/postgres"
)

// Dependencies bundles every shared dependency the operating modes need.
// It is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Stores
	TokenStore domain.TokenStore
	PoolStore  domain.PoolStore
	RouteStore domain.RouteStore
	LutStore   domain.LutStore
	TradeStore domain.TradeStore

	// Caches
	SignalBus      domain.SignalBus
	RateLimiter    domain.RateLimiter
	LockManager    domain.LockManager
	BlockhashCache domain.BlockhashCache
	BinCache       domain.BinCache

	// Chain access and signing
	Chain  *chain.Client
	Wallet *signer.Wallet

	// Blob storage
	BlobWriter domain.BlobWriter
	Archiver   domain.Archiver

	// Notifications
	Notifier *notify.Notifier
}

// needsWallet returns true for modes that sign transactions.
func needsWallet(mode string) bool {
	switch mode {
	case "discover", "listen", "full":
		return true
	default:
		return false
	}
}

// needsS3 returns true for modes that archive trades to object storage.
func needsS3(mode string) bool {
	switch mode {
	case "listen", "full":
		return true
	default:
		return false
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.TokenStore = postgres.NewTokenStore(pool)
	deps.PoolStore = postgres.NewPoolStore(pool)
	deps.RouteStore = postgres.NewRouteStore(pool)
	deps.LutStore = postgres.NewLutStore(pool)
	deps.TradeStore = postgres.NewTradeStore(pool)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.SignalBus = redis.NewSignalBus(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.BlockhashCache = redis.NewBlockhashCache(redisClient, cfg.Solana.BlockhashTTL.Duration)
	deps.BinCache = redis.NewBinCache(redisClient, cfg.Liquidity.CacheTTL.Duration)

	// --- Solana RPC ---
	deps.Chain = chain.NewClient(cfg.Solana.RPCURL, cfg.Solana.Commitment, logger)

	// --- Wallet (only for modes that sign) ---
	if needsWallet(cfg.Mode) {
		wallet, err := signer.NewWallet(cfg.Wallet)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: wallet: %w", err)
		}
		deps.Wallet = wallet
	}

	// --- S3 blob storage (only for modes that archive) ---
	if needsS3(cfg.Mode) && cfg.Archive.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.Archiver = s3blob.NewTradeArchiver(deps.BlobWriter, deps.TradeStore, logger)
	}

	// --- Notifications ---
	deps.Notifier = notify.NewFromConfig(cfg.Notify, logger)

	return deps, cleanup, nil
}
