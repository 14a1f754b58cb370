package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/quantfold/dexarb/internal/domain"
	"github.com/quantfold/dexarb/internal/liquidity"
)

// Dispatcher turns an evaluated opportunity into a signed, submitted
// transaction. The transaction builder implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, state *liquidity.RouteState, opp domain.Opportunity) error
}

// Engine wires account updates to evaluation and dispatch. It is invoked
// synchronously from the account stream so evaluation order follows
// arrival order.
type Engine struct {
	cache      *liquidity.Cache
	evaluator  *Evaluator
	dispatcher Dispatcher
	cooldown   time.Duration
	logger     *slog.Logger

	mu       sync.Mutex
	lastFire map[string]time.Time
}

// New creates an Engine.
func New(
	cache *liquidity.Cache,
	evaluator *Evaluator,
	dispatcher Dispatcher,
	cooldown time.Duration,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		cache:      cache,
		evaluator:  evaluator,
		dispatcher: dispatcher,
		cooldown:   cooldown,
		logger:     logger.With(slog.String("component", "engine")),
		lastFire:   make(map[string]time.Time),
	}
}

// HandleAccount evaluates every route watching the updated account.
func (e *Engine) HandleAccount(ctx context.Context, account solana.PublicKey) {
	for _, state := range e.cache.ByAccount(account) {
		e.evaluateRoute(ctx, state)
	}
}

func (e *Engine) evaluateRoute(ctx context.Context, state *liquidity.RouteState) {
	if e.onCooldown(state.Route.ID) {
		return
	}

	opp, err := e.evaluator.Evaluate(ctx, state)
	if err != nil {
		// Stale or missing inputs are routine while caches warm up.
		level := slog.LevelWarn
		if errors.Is(err, domain.ErrStaleReserves) || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrNoLiquidity) {
			level = slog.LevelDebug
		}
		e.logger.Log(ctx, level, "engine: evaluation failed",
			slog.String("route", state.Route.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	if opp == nil {
		return
	}

	e.logger.InfoContext(ctx, "engine: opportunity detected",
		slog.String("route", opp.RouteID),
		slog.String("opportunity", opp.ID),
		slog.Float64("diff_pct", opp.DiffPct),
		slog.Float64("est_profit", opp.EstProfitUI),
		slog.Int("bins", opp.BinsUsed),
	)

	if !state.Executable() {
		e.logger.InfoContext(ctx, "engine: route not executable, dropping",
			slog.String("route", opp.RouteID),
		)
		return
	}

	e.markFired(state.Route.ID)
	if err := e.dispatcher.Dispatch(ctx, state, *opp); err != nil {
		e.logger.ErrorContext(ctx, "engine: dispatch failed",
			slog.String("route", opp.RouteID),
			slog.String("opportunity", opp.ID),
			slog.String("error", err.Error()),
		)
	}
}

// onCooldown reports whether the route fired within the cooldown window.
func (e *Engine) onCooldown(routeID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	last, ok := e.lastFire[routeID]
	return ok && time.Since(last) < e.cooldown
}

func (e *Engine) markFired(routeID string) {
	e.mu.Lock()
	e.lastFire[routeID] = time.Now()
	e.mu.Unlock()
}
