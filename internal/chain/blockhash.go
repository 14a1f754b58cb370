package chain

import (
	"context"
	"log/slog"
	"time"

	"github.com/quantfold/dexarb/internal/domain"
)

// BlockhashPoller keeps the shared blockhash cache warm so transaction
// builds never wait on an RPC round trip.
type BlockhashPoller struct {
	client   *Client
	cache    domain.BlockhashCache
	interval time.Duration
	logger   *slog.Logger
}

// NewBlockhashPoller creates a poller writing into cache every interval.
func NewBlockhashPoller(client *Client, cache domain.BlockhashCache, interval time.Duration, logger *slog.Logger) *BlockhashPoller {
	return &BlockhashPoller{
		client:   client,
		cache:    cache,
		interval: interval,
		logger:   logger.With(slog.String("component", "blockhash_poller")),
	}
}

// Run polls until the context is cancelled. Individual fetch failures are
// logged and retried on the next tick; the cache TTL turns a sustained
// outage into ErrNoBlockhash for dispatchers.
func (p *BlockhashPoller) Run(ctx context.Context) error {
	p.logger.Info("blockhash poller started", slog.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("blockhash poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.refresh(ctx)
		}
	}
}

func (p *BlockhashPoller) refresh(ctx context.Context) {
	hash, slot, err := p.client.LatestBlockhash(ctx)
	if err != nil {
		p.logger.Warn("blockhash fetch failed", slog.String("error", err.Error()))
		return
	}
	if err := p.cache.Set(ctx, hash, slot); err != nil {
		p.logger.Warn("blockhash cache write failed", slog.String("error", err.Error()))
	}
}
