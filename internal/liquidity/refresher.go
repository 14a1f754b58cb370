package liquidity

import (
	"context"
	"log/slog"
	"time"

	"github.com/quantfold/dexarb/internal/chain"
	"github.com/quantfold/dexarb/internal/config"
	"github.com/quantfold/dexarb/internal/domain"
	"github.com/quantfold/dexarb/internal/platform/meteora"
)

// Refresher keeps the shared bin cache warm: on every tick it re-reads each
// route's DLMM pair state and bin window and publishes the window so the
// evaluator never fetches bins on the hot path.
type Refresher struct {
	chain  *chain.Client
	cache  *Cache
	bins   domain.BinCache
	cfg    config.LiquidityConfig
	logger *slog.Logger
}

// NewRefresher creates a Refresher over the given route-state cache.
func NewRefresher(
	chainClient *chain.Client,
	cache *Cache,
	bins domain.BinCache,
	cfg config.LiquidityConfig,
	logger *slog.Logger,
) *Refresher {
	return &Refresher{
		chain:  chainClient,
		cache:  cache,
		bins:   bins,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "bin_refresher")),
	}
}

// Run refreshes all routes on the configured interval until ctx is done.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.RefreshInterval.Duration)
	defer ticker.Stop()

	for {
		r.RefreshAll(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RefreshAll refreshes every loaded route. Per-route failures are logged
// and skipped; a stale window in the cache beats no window at all.
func (r *Refresher) RefreshAll(ctx context.Context) {
	for _, state := range r.cache.All() {
		if err := r.refreshRoute(ctx, state); err != nil {
			r.logger.WarnContext(ctx, "bin_refresher: refresh failed",
				slog.String("route", state.Route.ID),
				slog.String("error", err.Error()),
			)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// refreshRoute re-reads the pair (the active bin moves with every swap)
// and then the bin window around it.
func (r *Refresher) refreshRoute(ctx context.Context, state *RouteState) error {
	pair, err := meteora.FetchPair(ctx, r.chain, state.Route.MeteoraPool)
	if err != nil {
		return err
	}
	r.cache.UpdatePair(state.Route.ID, pair)

	window, err := meteora.FetchWindow(ctx, r.chain, pair,
		r.cfg.BinsLeft, r.cfg.BinsRight,
		state.XDecimals(), state.YDecimals(),
	)
	if err != nil {
		return err
	}

	return r.bins.SetWindow(ctx, window)
}
