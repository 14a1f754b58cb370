package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quantfold/dexarb/internal/chain"
	"github.com/quantfold/dexarb/internal/engine"
	"github.com/quantfold/dexarb/internal/graph"
	"github.com/quantfold/dexarb/internal/liquidity"
	"github.com/quantfold/dexarb/internal/platform/dexscreener"
	"github.com/quantfold/dexarb/internal/platform/meteora"
	"github.com/quantfold/dexarb/internal/platform/raydium"
	"github.com/quantfold/dexarb/internal/relay"
	"github.com/quantfold/dexarb/internal/reserves"
	"github.com/quantfold/dexarb/internal/scanner"
	"github.com/quantfold/dexarb/internal/txn"
)

// DiscoverMode runs pool discovery and route-graph construction.
func (a *App) DiscoverMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting discover mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startDiscovery(ctx, g, deps)
	return g.Wait()
}

// ListenMode runs the hot path: reserve streaming, opportunity evaluation,
// and transaction dispatch over the routes already built.
func (a *App) ListenMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting listen mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startListening(ctx, g, deps)
	a.startArchiver(ctx, g, deps)
	return g.Wait()
}

// BinsMode keeps the shared bin-window cache warm for evaluators running
// elsewhere. It reloads its route set when the graph publishes a rebuild.
func (a *App) BinsMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting bins mode")

	cache := liquidity.NewCache(deps.Chain, deps.RouteStore, deps.TokenStore, deps.LutStore, a.logger)
	if err := cache.Load(ctx); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	refresher := liquidity.NewRefresher(deps.Chain, cache, deps.BinCache, a.cfg.Liquidity, a.logger)
	g.Go(func() error {
		return refresher.Run(ctx)
	})
	g.Go(func() error {
		return a.watchRouteReloads(ctx, deps, cache)
	})
	return g.Wait()
}

// FullMode runs discovery, bin refresh, and the hot path in one process.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startDiscovery(ctx, g, deps)
	cache := a.startListening(ctx, g, deps)
	a.startArchiver(ctx, g, deps)

	refresher := liquidity.NewRefresher(deps.Chain, cache, deps.BinCache, a.cfg.Liquidity, a.logger)
	g.Go(func() error {
		return refresher.Run(ctx)
	})
	return g.Wait()
}

// ResetMode is a one-shot maintenance pass: revive skipped routes, drop
// lookup-table references so they are rebuilt, and re-flag every token
// tradable. It publishes a reload so running listeners pick up the change.
func (a *App) ResetMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting reset mode")

	revived, err := deps.RouteStore.ReviveSkipped(ctx)
	if err != nil {
		return err
	}
	cleared, err := deps.RouteStore.ClearLuts(ctx)
	if err != nil {
		return err
	}
	tokens, err := deps.TokenStore.ResetTradable(ctx)
	if err != nil {
		return err
	}

	if err := deps.SignalBus.PublishReload(ctx, true); err != nil {
		a.logger.WarnContext(ctx, "reload publish failed", slog.String("error", err.Error()))
	}

	a.logger.InfoContext(ctx, "reset complete",
		slog.Int64("routes_revived", revived),
		slog.Int64("luts_cleared", cleared),
		slog.Int64("tokens_reset", tokens),
	)
	return nil
}

// startDiscovery adds the scanner (when enabled) and the graph builder to
// the given errgroup.
func (a *App) startDiscovery(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if a.cfg.Scanner.Enabled {
		sc := scanner.NewScanner(
			deps.Chain,
			meteora.NewAPIClient(a.cfg.Scanner.MeteoraAPI),
			raydium.NewAPIClient(a.cfg.Scanner.RaydiumAPI),
			dexscreener.NewClient(a.cfg.Scanner.AggregatorAPI),
			deps.TokenStore,
			deps.PoolStore,
			deps.RateLimiter,
			deps.Wallet,
			deps.Notifier,
			a.cfg.Scanner,
			a.logger,
		)
		g.Go(func() error {
			return sc.Run(ctx)
		})
	}

	builder := graph.NewBuilder(
		deps.Chain,
		deps.TokenStore,
		deps.PoolStore,
		deps.RouteStore,
		deps.LutStore,
		deps.SignalBus,
		deps.LockManager,
		deps.Wallet,
		a.cfg.Graph,
		a.cfg.Jito,
		a.logger,
	)
	g.Go(func() error {
		return builder.Run(ctx)
	})
}

// startListening wires the evaluation and dispatch chain and adds the
// blockhash poller and reserve synchronizer to the given errgroup. It
// returns the route-state cache so other goroutines can share it.
func (a *App) startListening(ctx context.Context, g *errgroup.Group, deps *Dependencies) *liquidity.Cache {
	cache := liquidity.NewCache(deps.Chain, deps.RouteStore, deps.TokenStore, deps.LutStore, a.logger)
	table := reserves.NewTable()

	evaluator := engine.NewEvaluator(table, deps.BinCache, a.cfg.Engine, a.cfg.Reserves.MaxAge.Duration)

	var jitoRelay txn.Relay
	if a.cfg.Jito.Enabled {
		jitoRelay = relay.NewJitoClient(a.cfg.Jito.RelayURL)
	}
	txBuilder := txn.NewBuilder(deps.Chain, deps.BlockhashCache, deps.BinCache, deps.Wallet, a.cfg.Txn, a.cfg.Jito)
	dispatcher := txn.NewDispatcher(
		txBuilder,
		deps.Chain,
		jitoRelay,
		deps.Wallet,
		deps.TradeStore,
		deps.Notifier,
		a.cfg.Jito,
		a.logger,
	)
	eng := engine.New(cache, evaluator, dispatcher, a.cfg.Engine.Cooldown.Duration, a.logger)

	poller := chain.NewBlockhashPoller(deps.Chain, deps.BlockhashCache, a.cfg.Solana.BlockhashInterval.Duration, a.logger)
	g.Go(func() error {
		return poller.Run(ctx)
	})

	sync := reserves.NewSynchronizer(
		deps.Chain,
		cache,
		table,
		eng,
		deps.SignalBus,
		a.cfg.Reserves,
		a.cfg.Solana.WSURL,
		a.cfg.Solana.Commitment,
		a.logger,
	)
	g.Go(func() error {
		return sync.Run(ctx)
	})

	return cache
}

// startArchiver adds the trade-archival loop when archival is configured.
func (a *App) startArchiver(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if deps.Archiver == nil {
		return
	}
	retention := time.Duration(a.cfg.Archive.RetentionDays) * 24 * time.Hour
	interval := a.cfg.Archive.Interval.Duration

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				cutoff := time.Now().Add(-retention)
				n, err := deps.Archiver.ArchiveTrades(ctx, cutoff)
				if err != nil {
					a.logger.WarnContext(ctx, "trade archival failed", slog.String("error", err.Error()))
					continue
				}
				if n > 0 {
					a.logger.InfoContext(ctx, "trades archived", slog.Int64("count", n))
				}
			}
		}
	})
}

// watchRouteReloads reloads the route-state cache whenever the graph
// publishes a rebuild.
func (a *App) watchRouteReloads(ctx context.Context, deps *Dependencies, cache *liquidity.Cache) error {
	reloads, err := deps.SignalBus.WatchReload(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-reloads:
			if !ok {
				return nil
			}
			if err := cache.Load(ctx); err != nil {
				a.logger.WarnContext(ctx, "route reload failed", slog.String("error", err.Error()))
			}
		}
	}
}
