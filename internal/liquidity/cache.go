// Package liquidity maintains the in-memory per-route state the hot path
// reads: assembled pool keys for both legs, token metadata, the route's
// lookup table, and the index from watched vault accounts back to routes.
package liquidity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/quantfold/dexarb/internal/chain"
	"github.com/quantfold/dexarb/internal/domain"
	"github.com/quantfold/dexarb/internal/platform/meteora"
	"github.com/quantfold/dexarb/internal/platform/raydium"
)

// RouteState is everything the evaluator and transaction builder need for
// one route, assembled once per reload instead of per trade.
type RouteState struct {
	Route   domain.Route
	Token   domain.Token
	Raydium raydium.PoolKeys
	Meteora meteora.Pair
	// Lut is zero-valued when the route's table is not yet materialized;
	// such routes are evaluated but never executed.
	Lut domain.LookupTable
}

// XDecimals returns the decimals of the DLMM pair's token X side.
func (s *RouteState) XDecimals() uint8 {
	if s.Meteora.TokenXMint.Equals(domain.WSOL) {
		return 9
	}
	return s.Token.Decimals
}

// YDecimals returns the decimals of the DLMM pair's token Y side.
func (s *RouteState) YDecimals() uint8 {
	if s.Meteora.TokenYMint.Equals(domain.WSOL) {
		return 9
	}
	return s.Token.Decimals
}

// WatchedAccounts returns the vault accounts whose balances drive this
// route's evaluation: both Raydium vaults and both DLMM reserves.
func (s *RouteState) WatchedAccounts() []solana.PublicKey {
	return []solana.PublicKey{
		s.Raydium.BaseVault,
		s.Raydium.QuoteVault,
		s.Meteora.ReserveX,
		s.Meteora.ReserveY,
	}
}

// Executable reports whether the route can be turned into a transaction.
func (s *RouteState) Executable() bool {
	return !s.Lut.Address.IsZero() && s.Route.Status == domain.RouteStatusEnabled
}

// Cache is the reloadable route-state snapshot. Load swaps the whole set
// atomically; readers never see a half-built view.
type Cache struct {
	chain  *chain.Client
	routes domain.RouteStore
	tokens domain.TokenStore
	luts   domain.LutStore
	logger *slog.Logger

	mu        sync.RWMutex
	states    map[string]*RouteState
	byAccount map[solana.PublicKey][]string
}

// NewCache creates an empty route-state cache.
func NewCache(
	chainClient *chain.Client,
	routes domain.RouteStore,
	tokens domain.TokenStore,
	luts domain.LutStore,
	logger *slog.Logger,
) *Cache {
	return &Cache{
		chain:     chainClient,
		routes:    routes,
		tokens:    tokens,
		luts:      luts,
		logger:    logger.With(slog.String("component", "liquidity")),
		states:    make(map[string]*RouteState),
		byAccount: make(map[solana.PublicKey][]string),
	}
}

// Load rebuilds the snapshot from every enabled route. Routes whose
// on-chain state cannot be fetched are logged and left out rather than
// failing the whole reload.
func (c *Cache) Load(ctx context.Context) error {
	enabled, err := c.routes.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("liquidity: list enabled routes: %w", err)
	}

	states := make(map[string]*RouteState, len(enabled))
	byAccount := make(map[solana.PublicKey][]string)

	for _, route := range enabled {
		state, err := c.buildState(ctx, route)
		if err != nil {
			c.logger.WarnContext(ctx, "liquidity: route state load failed",
				slog.String("route", route.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		states[route.ID] = state
		for _, acc := range state.WatchedAccounts() {
			byAccount[acc] = append(byAccount[acc], route.ID)
		}
	}

	c.mu.Lock()
	c.states = states
	c.byAccount = byAccount
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "liquidity: route states loaded",
		slog.Int("routes", len(states)),
		slog.Int("accounts", len(byAccount)),
	)
	return nil
}

func (c *Cache) buildState(ctx context.Context, route domain.Route) (*RouteState, error) {
	token, err := c.tokens.GetByMint(ctx, route.Mint)
	if err != nil {
		return nil, fmt.Errorf("token %s: %w", route.Mint, err)
	}
	keys, err := raydium.FetchPoolKeys(ctx, c.chain, route.RaydiumPool)
	if err != nil {
		return nil, err
	}
	pair, err := meteora.FetchPair(ctx, c.chain, route.MeteoraPool)
	if err != nil {
		return nil, err
	}

	state := &RouteState{
		Route:   route,
		Token:   token,
		Raydium: keys,
		Meteora: pair,
	}

	lut, err := c.luts.GetByRoute(ctx, route.ID)
	switch {
	case err == nil:
		state.Lut = lut
	case errors.Is(err, domain.ErrNotFound):
		// Route not yet materialized; evaluate-only.
	default:
		return nil, fmt.Errorf("lut for %s: %w", route.ID, err)
	}

	return state, nil
}

// Get returns the state for one route.
func (c *Cache) Get(routeID string) (*RouteState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.states[routeID]
	return s, ok
}

// All returns every loaded route state.
func (c *Cache) All() []*RouteState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*RouteState, 0, len(c.states))
	for _, s := range c.states {
		out = append(out, s)
	}
	return out
}

// ByAccount returns the routes whose evaluation depends on the given vault
// account.
func (c *Cache) ByAccount(account solana.PublicKey) []*RouteState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := c.byAccount[account]
	out := make([]*RouteState, 0, len(ids))
	for _, id := range ids {
		if s, ok := c.states[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// WatchedAccounts returns every vault account across all loaded routes.
func (c *Cache) WatchedAccounts() []solana.PublicKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]solana.PublicKey, 0, len(c.byAccount))
	for acc := range c.byAccount {
		out = append(out, acc)
	}
	return out
}

// UpdatePair replaces a route's DLMM pair state. The refresher calls this
// so fee and active-bin reads stay current between reloads. The state is
// swapped as a copy; pointers handed to readers stay immutable.
func (c *Cache) UpdatePair(routeID string, pair meteora.Pair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.states[routeID]; ok {
		next := *s
		next.Meteora = pair
		c.states[routeID] = &next
	}
}

// Len returns the number of loaded routes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.states)
}
