// Package scanner discovers tradable tokens and their pools: Meteora pairs
// from the DLMM API, Raydium pools from the v3 API, with Dexscreener as
// the aggregate-liquidity gate for admitting new tokens.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/quantfold/dexarb/internal/chain"
	"github.com/quantfold/dexarb/internal/config"
	"github.com/quantfold/dexarb/internal/domain"
	"github.com/quantfold/dexarb/internal/platform/dexscreener"
	"github.com/quantfold/dexarb/internal/platform/meteora"
	"github.com/quantfold/dexarb/internal/platform/raydium"
	"github.com/quantfold/dexarb/internal/signer"
)

// Rate-limit keys for the public APIs; redis enforces them process-wide.
const (
	dexscreenerLimitKey = "dexscreener"
	raydiumAPILimitKey  = "raydium_api"
)

// raydiumPoolsPerToken caps how many AMM pools one mint contributes.
const raydiumPoolsPerToken = 5

// Notifier receives discovery events. Nil disables notifications.
type Notifier interface {
	TokenDiscovered(ctx context.Context, token domain.Token)
}

// Scanner runs the discovery loops.
type Scanner struct {
	chain      *chain.Client
	meteoraAPI *meteora.APIClient
	raydiumAPI *raydium.APIClient
	aggregator *dexscreener.Client
	tokens     domain.TokenStore
	pools      domain.PoolStore
	limiter    domain.RateLimiter
	wallet     *signer.Wallet
	notifier   Notifier
	cfg        config.ScannerConfig
	logger     *slog.Logger
}

// NewScanner creates a Scanner.
func NewScanner(
	chainClient *chain.Client,
	meteoraAPI *meteora.APIClient,
	raydiumAPI *raydium.APIClient,
	aggregator *dexscreener.Client,
	tokens domain.TokenStore,
	pools domain.PoolStore,
	limiter domain.RateLimiter,
	wallet *signer.Wallet,
	notifier Notifier,
	cfg config.ScannerConfig,
	logger *slog.Logger,
) *Scanner {
	return &Scanner{
		chain:      chainClient,
		meteoraAPI: meteoraAPI,
		raydiumAPI: raydiumAPI,
		aggregator: aggregator,
		tokens:     tokens,
		pools:      pools,
		limiter:    limiter,
		wallet:     wallet,
		notifier:   notifier,
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "scanner")),
	}
}

// Run drives both discovery loops until ctx is done.
func (s *Scanner) Run(ctx context.Context) error {
	pairTicker := time.NewTicker(s.cfg.PairInterval.Duration)
	defer pairTicker.Stop()
	poolTicker := time.NewTicker(s.cfg.PoolInterval.Duration)
	defer poolTicker.Stop()

	if err := s.ScanPairs(ctx); err != nil {
		s.logger.ErrorContext(ctx, "scanner: pair scan failed", slog.String("error", err.Error()))
	}
	if err := s.ScanPools(ctx); err != nil {
		s.logger.ErrorContext(ctx, "scanner: pool scan failed", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pairTicker.C:
			if err := s.ScanPairs(ctx); err != nil {
				s.logger.ErrorContext(ctx, "scanner: pair scan failed", slog.String("error", err.Error()))
			}
		case <-poolTicker.C:
			if err := s.ScanPools(ctx); err != nil {
				s.logger.ErrorContext(ctx, "scanner: pool scan failed", slog.String("error", err.Error()))
			}
		}
	}
}

// ScanPairs pulls the full DLMM pair listing and admits SOL-quoted pairs
// above the liquidity threshold, creating token records for new mints.
func (s *Scanner) ScanPairs(ctx context.Context) error {
	pairs, err := s.meteoraAPI.AllPairs(ctx)
	if err != nil {
		return fmt.Errorf("scanner: list dlmm pairs: %w", err)
	}

	var admitted, created int
	for i := range pairs {
		p := &pairs[i]
		if p.Hide || p.LiquidityUSD() < s.cfg.MinLiquidityUSD {
			continue
		}
		mintY, err := solana.PublicKeyFromBase58(p.MintY)
		if err != nil || !mintY.Equals(domain.WSOL) {
			continue
		}

		pool, err := p.ToDomainPool()
		if err != nil {
			continue
		}

		isNew, err := s.ensureToken(ctx, pool.BaseMint, p.Name)
		if err != nil {
			s.logger.WarnContext(ctx, "scanner: token admit failed",
				slog.String("mint", p.MintX),
				slog.String("error", err.Error()),
			)
			continue
		}
		if isNew {
			created++
		}

		if err := s.pools.Upsert(ctx, pool); err != nil {
			return fmt.Errorf("scanner: upsert dlmm pool %s: %w", pool.Address, err)
		}
		admitted++

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	s.logger.InfoContext(ctx, "scanner: pair scan complete",
		slog.Int("listed", len(pairs)),
		slog.Int("admitted", admitted),
		slog.Int("new_tokens", created),
	)
	return nil
}

// ScanPools finds Raydium AMM pools for every tradable token.
func (s *Scanner) ScanPools(ctx context.Context) error {
	tokens, err := s.tokens.ListTradable(ctx)
	if err != nil {
		return fmt.Errorf("scanner: list tradable: %w", err)
	}

	var found int
	for _, token := range tokens {
		if err := s.limiter.Wait(ctx, raydiumAPILimitKey); err != nil {
			return err
		}

		apiPools, err := s.raydiumAPI.PoolsByMintPair(ctx, token.Mint, domain.WSOL, raydiumPoolsPerToken)
		if err != nil {
			s.logger.WarnContext(ctx, "scanner: raydium pool query failed",
				slog.String("mint", token.Mint.String()),
				slog.String("error", err.Error()),
			)
			continue
		}

		var batch []domain.Pool
		for i := range apiPools {
			if apiPools[i].ProgramID != raydium.ProgramID.String() {
				continue
			}
			pool, err := apiPools[i].ToDomainPool()
			if err != nil {
				continue
			}
			batch = append(batch, pool)
		}
		if len(batch) == 0 {
			continue
		}
		if err := s.pools.UpsertBatch(ctx, batch); err != nil {
			return fmt.Errorf("scanner: upsert raydium pools for %s: %w", token.Mint, err)
		}
		found += len(batch)
	}

	s.logger.InfoContext(ctx, "scanner: pool scan complete",
		slog.Int("tokens", len(tokens)),
		slog.Int("pools", found),
	)
	return nil
}

// ensureToken admits a mint: on first sight it checks aggregate liquidity,
// resolves decimals on chain, creates the operator's token account, and
// persists the record. Returns whether a new token was created.
func (s *Scanner) ensureToken(ctx context.Context, mint solana.PublicKey, pairName string) (bool, error) {
	existing, err := s.tokens.GetByMint(ctx, mint)
	switch {
	case err == nil:
		if existing.ATA == nil {
			return false, s.ensureATA(ctx, mint)
		}
		return false, nil
	case !errors.Is(err, domain.ErrNotFound):
		return false, err
	}

	if err := s.limiter.Wait(ctx, dexscreenerLimitKey); err != nil {
		return false, err
	}
	listed, err := s.aggregator.TokenPairs(ctx, mint)
	if err != nil {
		return false, fmt.Errorf("aggregator check: %w", err)
	}
	if dexscreener.TotalLiquidityUSD(listed) < s.cfg.MinLiquidityUSD {
		return false, nil
	}

	decimals, err := s.chain.MintDecimals(ctx, mint)
	if err != nil {
		return false, fmt.Errorf("mint decimals: %w", err)
	}

	now := time.Now().UTC()
	token := domain.Token{
		Mint:      mint,
		Symbol:    symbolFromPairName(pairName),
		Decimals:  decimals,
		Tradable:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.tokens.Upsert(ctx, token); err != nil {
		return false, fmt.Errorf("upsert token: %w", err)
	}
	if err := s.ensureATA(ctx, mint); err != nil {
		return false, err
	}

	s.logger.InfoContext(ctx, "scanner: token admitted",
		slog.String("mint", mint.String()),
		slog.String("symbol", token.Symbol),
	)
	if s.notifier != nil {
		s.notifier.TokenDiscovered(ctx, token)
	}
	return true, nil
}

// ensureATA creates the operator's associated token account for the mint
// when it does not exist yet and records it on the token.
func (s *Scanner) ensureATA(ctx context.Context, mint solana.PublicKey) error {
	operator := s.wallet.OperatorPubkey()
	ata, _, err := solana.FindAssociatedTokenAddress(operator, mint)
	if err != nil {
		return fmt.Errorf("derive ata: %w", err)
	}

	_, _, err = s.chain.AccountData(ctx, ata)
	switch {
	case err == nil:
		// Exists already.
	case errors.Is(err, domain.ErrNotFound):
		if err := s.createATA(ctx, mint, ata); err != nil {
			return err
		}
	default:
		return fmt.Errorf("check ata: %w", err)
	}

	return s.tokens.SetATA(ctx, mint, ata)
}

func (s *Scanner) createATA(ctx context.Context, mint, ata solana.PublicKey) error {
	blockhash, _, err := s.chain.LatestBlockhash(ctx)
	if err != nil {
		return err
	}

	ix := chain.CreateAssociatedTokenAccount(s.wallet.PayerPubkey(), s.wallet.OperatorPubkey(), mint, ata)
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, blockhash, solana.TransactionPayer(s.wallet.PayerPubkey()))
	if err != nil {
		return fmt.Errorf("build ata transaction: %w", err)
	}
	if err := s.wallet.Sign(tx); err != nil {
		return err
	}
	if _, err := s.chain.SendTransaction(ctx, tx); err != nil {
		return fmt.Errorf("create ata: %w", err)
	}

	s.logger.InfoContext(ctx, "scanner: token account created",
		slog.String("mint", mint.String()),
		slog.String("ata", ata.String()),
	)
	return nil
}

// symbolFromPairName extracts the token symbol from a DLMM pair name like
// "BONK-SOL".
func symbolFromPairName(name string) string {
	if i := strings.IndexAny(name, "-/"); i > 0 {
		return name[:i]
	}
	return name
}
