package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/quantfold/dexarb/internal/config"
	"github.com/quantfold/dexarb/internal/domain"
	"github.com/quantfold/dexarb/internal/platform/meteora"
	"github.com/quantfold/dexarb/internal/platform/raydium"
	"github.com/quantfold/dexarb/internal/signer"
)

// rebuildLockKey serializes route rebuilds across processes.
const rebuildLockKey = "graph:rebuild"

// rebuildLockTTL bounds how long a crashed rebuild can hold the lock.
const rebuildLockTTL = 5 * time.Minute

// ChainClient is the on-chain access the builder needs. *chain.Client
// implements it.
type ChainClient interface {
	AccountData(ctx context.Context, account solana.PublicKey) ([]byte, solana.PublicKey, error)
	Slot(ctx context.Context) (uint64, error)
	LatestBlockhash(ctx context.Context) (solana.Hash, uint64, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// Builder assembles the route set from discovered pools and keeps it
// persisted, fee-filtered, and lookup-table-backed.
type Builder struct {
	chain  ChainClient
	tokens domain.TokenStore
	pools  domain.PoolStore
	routes domain.RouteStore
	luts   domain.LutStore
	bus    domain.SignalBus
	locks  domain.LockManager
	wallet *signer.Wallet
	cfg    config.GraphConfig
	jito   config.JitoConfig
	logger *slog.Logger
}

// NewBuilder creates a Builder with all required dependencies.
func NewBuilder(
	chainClient ChainClient,
	tokens domain.TokenStore,
	pools domain.PoolStore,
	routes domain.RouteStore,
	luts domain.LutStore,
	bus domain.SignalBus,
	locks domain.LockManager,
	wallet *signer.Wallet,
	cfg config.GraphConfig,
	jito config.JitoConfig,
	logger *slog.Logger,
) *Builder {
	return &Builder{
		chain:  chainClient,
		tokens: tokens,
		pools:  pools,
		routes: routes,
		luts:   luts,
		bus:    bus,
		locks:  locks,
		wallet: wallet,
		cfg:    cfg,
		jito:   jito,
		logger: logger.With(slog.String("component", "graph")),
	}
}

// Run rebuilds the route set on the configured interval until ctx is done.
// The first rebuild happens immediately.
func (b *Builder) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.cfg.RefreshInterval.Duration)
	defer ticker.Stop()

	for {
		if err := b.Rebuild(ctx); err != nil {
			b.logger.ErrorContext(ctx, "graph: rebuild failed",
				slog.String("error", err.Error()),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Rebuild recomputes routes for every tradable token: it pairs pools,
// validates both legs on chain, applies the fee floor, materializes missing
// lookup tables, and signals listeners when the set changed.
//
// Rebuilds are single-writer: when another process holds the rebuild lock
// this call is a no-op.
func (b *Builder) Rebuild(ctx context.Context) error {
	unlock, err := b.locks.Acquire(ctx, rebuildLockKey, rebuildLockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			b.logger.InfoContext(ctx, "graph: rebuild already in progress elsewhere")
			return nil
		}
		return fmt.Errorf("graph: acquire rebuild lock: %w", err)
	}
	defer unlock()

	tokens, err := b.tokens.ListTradable(ctx)
	if err != nil {
		return fmt.Errorf("graph: list tradable tokens: %w", err)
	}

	var changed, unchanged, failed int
	for _, token := range tokens {
		pools, err := b.pools.ListByMint(ctx, token.Mint)
		if err != nil {
			return fmt.Errorf("graph: list pools for %s: %w", token.Mint, err)
		}

		candidates := Candidates(pools)
		if len(candidates) == 0 {
			// No cross-venue pool pair exists for this mint; stop
			// rescanning it until discovery re-admits it.
			if err := b.tokens.SetTradable(ctx, token.Mint, false); err != nil {
				return fmt.Errorf("graph: disable token %s: %w", token.Mint, err)
			}
			b.logger.InfoContext(ctx, "graph: token has no routes, disabled",
				slog.String("mint", token.Mint.String()),
			)
			continue
		}

		for _, route := range candidates {
			routeChanged, err := b.buildRoute(ctx, route)
			switch {
			case err != nil:
				failed++
				b.logger.WarnContext(ctx, "graph: route build failed",
					slog.String("route", route.ID),
					slog.String("error", err.Error()),
				)
			case routeChanged:
				changed++
			default:
				unchanged++
			}
		}
	}

	b.logger.InfoContext(ctx, "graph: rebuild complete",
		slog.Int("changed", changed),
		slog.Int("unchanged", unchanged),
		slog.Int("failed", failed),
	)

	// Listeners tear down and rebuild their full subscription set on a
	// reload, so only an actual change to the route set may publish one.
	if changed > 0 {
		if err := b.bus.PublishReload(ctx, true); err != nil {
			return fmt.Errorf("graph: publish reload: %w", err)
		}
	}
	return nil
}

// buildRoute validates one candidate on chain and persists it. It returns
// (true, nil) only when this pass changed the enabled route set: a route
// was newly persisted, a lookup table newly materialized, or a previously
// enabled route was killed.
func (b *Builder) buildRoute(ctx context.Context, route domain.Route) (bool, error) {
	stored, err := b.routes.GetByID(ctx, route.ID)
	known := err == nil
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("load route: %w", err)
	}
	// Skips are terminal; dead routes are not revalidated.
	if known && stored.Status == domain.RouteStatusSkip {
		return false, nil
	}

	keys, err := raydium.FetchPoolKeys(ctx, b.chain, route.RaydiumPool)
	if err != nil {
		if errors.Is(err, domain.ErrProgramMismatch) || errors.Is(err, domain.ErrNotFound) {
			return known, b.skipRoute(ctx, route, "raydium leg invalid")
		}
		return false, err
	}

	pair, err := meteora.FetchPair(ctx, b.chain, route.MeteoraPool)
	if err != nil {
		if errors.Is(err, domain.ErrProgramMismatch) || errors.Is(err, domain.ErrNotFound) {
			return known, b.skipRoute(ctx, route, "meteora leg invalid")
		}
		return false, err
	}

	// Pricing assumes the quote asset sits on the pair's Y side.
	if !pair.TokenYMint.Equals(domain.WSOL) {
		return known, b.skipRoute(ctx, route, "quote mint not on y side")
	}

	// Fee floor: the dynamic leg's base fee must be at least the floor
	// multiple of the fixed leg's fee, or the route never clears costs.
	if pair.BaseFeeRate() < b.cfg.FeeFloorRatio*keys.FeeRate {
		return known, b.skipRoute(ctx, route, "below fee floor")
	}

	if !known {
		if err := b.routes.Upsert(ctx, route); err != nil {
			return false, fmt.Errorf("upsert route: %w", err)
		}
		stored = route
	}

	lutMade, err := b.ensureLut(ctx, stored, keys, pair)
	if err != nil {
		return false, fmt.Errorf("ensure lut: %w", err)
	}
	return !known || lutMade, nil
}

// skipRoute marks a route permanently dead. Skips are terminal; the store
// refuses to resurrect them on later upserts.
func (b *Builder) skipRoute(ctx context.Context, route domain.Route, reason string) error {
	route.Status = domain.RouteStatusSkip
	if err := b.routes.Upsert(ctx, route); err != nil {
		return fmt.Errorf("skip route %s: %w", route.ID, err)
	}
	b.logger.InfoContext(ctx, "graph: route skipped",
		slog.String("route", route.ID),
		slog.String("reason", reason),
	)
	return nil
}
