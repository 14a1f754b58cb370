package reserves

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/quantfold/dexarb/internal/chain"
	"github.com/quantfold/dexarb/internal/config"
	"github.com/quantfold/dexarb/internal/domain"
	"github.com/quantfold/dexarb/internal/liquidity"
)

// reconnectDelay is the pause before redialing a dropped stream.
const reconnectDelay = 2 * time.Second

// Handler receives account changes after they are folded into the table.
// The engine implements it; calls are synchronous so evaluation follows
// arrival order.
type Handler interface {
	HandleAccount(ctx context.Context, account solana.PublicKey)
}

// Synchronizer owns the account stream: it subscribes every watched vault,
// folds updates into the table, relays them on the bus, and drives the
// handler. A reload signal tears the session down so the next one picks up
// the new route set.
type Synchronizer struct {
	chain      *chain.Client
	cache      *liquidity.Cache
	table      *Table
	handler    Handler
	bus        domain.SignalBus
	cfg        config.ReservesConfig
	wsURL      string
	commitment string
	logger     *slog.Logger

	mu     sync.Mutex
	cur    *stream
	reload bool

	// lastEval is only touched from the session goroutine.
	lastEval map[solana.PublicKey]time.Time
}

// NewSynchronizer creates a Synchronizer.
func NewSynchronizer(
	chainClient *chain.Client,
	cache *liquidity.Cache,
	table *Table,
	handler Handler,
	bus domain.SignalBus,
	cfg config.ReservesConfig,
	wsURL, commitment string,
	logger *slog.Logger,
) *Synchronizer {
	return &Synchronizer{
		chain:      chainClient,
		cache:      cache,
		table:      table,
		handler:    handler,
		bus:        bus,
		cfg:        cfg,
		wsURL:      wsURL,
		commitment: commitment,
		logger:     logger.With(slog.String("component", "reserves")),
		lastEval:   make(map[solana.PublicKey]time.Time),
	}
}

// Run drives sessions until ctx is done, reconnecting on stream loss and
// restarting with a fresh route load on reload signals.
func (s *Synchronizer) Run(ctx context.Context) error {
	reloads, err := s.bus.WatchReload(ctx)
	if err != nil {
		return fmt.Errorf("reserves: watch reload: %w", err)
	}
	go s.watchReloads(ctx, reloads)

	for {
		err := s.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			s.logger.WarnContext(ctx, "reserves: session ended, reconnecting",
				slog.String("error", err.Error()),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

// watchReloads marks the reload flag and kills the live stream so the
// session loop rebuilds from the store.
func (s *Synchronizer) watchReloads(ctx context.Context, reloads <-chan bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case flag, ok := <-reloads:
			if !ok {
				return
			}
			if !flag {
				continue
			}
			s.mu.Lock()
			s.reload = true
			if s.cur != nil {
				s.cur.close()
			}
			s.mu.Unlock()
			s.logger.InfoContext(ctx, "reserves: reload signal received")
		}
	}
}

// session loads the route set, seeds the table, subscribes every watched
// account, and pumps updates until the stream drops.
func (s *Synchronizer) session(ctx context.Context) error {
	if err := s.cache.Load(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.reload = false
	s.mu.Unlock()

	accounts := s.cache.WatchedAccounts()
	if len(accounts) == 0 {
		s.logger.InfoContext(ctx, "reserves: no accounts to watch")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
			return nil
		}
	}

	s.seed(ctx, accounts)

	conn, err := dialStream(ctx, s.wsURL)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cur = conn
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.cur = nil
		s.mu.Unlock()
		conn.close()
	}()

	limiter := rate.NewLimiter(rate.Limit(s.cfg.SubscribesPerSecond), 1)
	for _, acc := range accounts {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if err := conn.subscribe(acc, s.commitment); err != nil {
			return err
		}
	}
	s.logger.InfoContext(ctx, "reserves: subscribed",
		slog.Int("accounts", len(accounts)),
	)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		upd, err := conn.next()
		if err != nil {
			if s.takeReload() {
				// Deliberate teardown; restart immediately with new routes.
				return nil
			}
			if errors.Is(err, domain.ErrWSDisconnect) {
				return err
			}
			s.logger.WarnContext(ctx, "reserves: dropped frame",
				slog.String("error", err.Error()),
			)
			continue
		}

		s.apply(ctx, upd)

		if s.takeReload() {
			return nil
		}
	}
}

// apply folds one update and, debounce permitting, runs the handler.
func (s *Synchronizer) apply(ctx context.Context, upd domain.AccountUpdate) {
	// Vault balances pass through zero mid-swap; folding those would make
	// every quote divide by nothing.
	if upd.Amount == 0 {
		return
	}
	if !s.table.Apply(upd) {
		return
	}

	if err := s.bus.PublishAccountUpdate(ctx, upd); err != nil {
		s.logger.WarnContext(ctx, "reserves: relay failed",
			slog.String("account", upd.Account.String()),
			slog.String("error", err.Error()),
		)
	}

	now := time.Now()
	if last, ok := s.lastEval[upd.Account]; ok && now.Sub(last) < s.cfg.Debounce.Duration {
		return
	}
	s.lastEval[upd.Account] = now

	s.handler.HandleAccount(ctx, upd.Account)
}

// seedConcurrency bounds parallel RPC fetches during a table seed.
const seedConcurrency = 8

// seed warms the table over RPC so the first evaluation does not wait for
// the stream's first notification per account. Fetches run in parallel;
// a failed account is logged and left for the stream to fill in.
func (s *Synchronizer) seed(ctx context.Context, accounts []solana.PublicKey) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(seedConcurrency)
	for _, acc := range accounts {
		g.Go(func() error {
			snap, err := s.chain.TokenBalance(ctx, acc)
			if err != nil {
				s.logger.WarnContext(ctx, "reserves: seed failed",
					slog.String("account", acc.String()),
					slog.String("error", err.Error()),
				)
				return nil
			}
			s.table.Seed(snap)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Synchronizer) takeReload() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.reload
	s.reload = false
	return r
}
