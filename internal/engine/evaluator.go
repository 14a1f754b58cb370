// Package engine evaluates routes for executable price dislocations and
// hands profitable ones to the dispatcher.
package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/quantfold/dexarb/internal/config"
	"github.com/quantfold/dexarb/internal/domain"
	"github.com/quantfold/dexarb/internal/liquidity"
	"github.com/quantfold/dexarb/internal/platform/meteora"
	"github.com/quantfold/dexarb/internal/platform/raydium"
)

// ReserveSource exposes the latest observed vault balances. The account
// stream synchronizer implements it.
type ReserveSource interface {
	Latest(account solana.PublicKey) (domain.ReserveSnapshot, bool)
}

// Evaluator prices one route at a time against current reserves and the
// cached bin window.
type Evaluator struct {
	reserves ReserveSource
	bins     domain.BinCache
	cfg      config.EngineConfig
	maxAge   time.Duration
}

// NewEvaluator creates an Evaluator. maxAge is the staleness budget for
// both reserve snapshots and bin windows.
func NewEvaluator(reserves ReserveSource, bins domain.BinCache, cfg config.EngineConfig, maxAge time.Duration) *Evaluator {
	return &Evaluator{
		reserves: reserves,
		bins:     bins,
		cfg:      cfg,
		maxAge:   maxAge,
	}
}

// Evaluate prices the route. It returns (nil, nil) when there is simply no
// profitable opportunity right now, and an error when the inputs are
// missing or stale.
func (e *Evaluator) Evaluate(ctx context.Context, state *liquidity.RouteState) (*domain.Opportunity, error) {
	now := time.Now()

	res, err := e.raydiumReserves(state, now)
	if err != nil {
		return nil, err
	}
	spot := res.SpotPrice()
	if spot <= 0 {
		return nil, domain.ErrNoLiquidity
	}

	window, err := e.bins.GetWindow(ctx, state.Route.MeteoraPool)
	if err != nil {
		return nil, fmt.Errorf("engine: bin window for %s: %w", state.Route.ID, err)
	}
	if now.Sub(window.FetchedAt) > e.maxAge {
		return nil, fmt.Errorf("engine: bin window for %s: %w", state.Route.ID, domain.ErrStaleReserves)
	}
	active, ok := window.Active()
	if !ok || active.Price <= 0 {
		return nil, domain.ErrNoLiquidity
	}

	diffPct := (spot - active.Price) / active.Price * 100
	direction := domain.DirectionAToB
	if diffPct >= 0 {
		// Raydium is the expensive leg; the reverse direction is never
		// executed, so stop before sizing.
		return nil, nil
	}
	if e.cfg.MaxDiffPct > 0 && math.Abs(diffPct) > e.cfg.MaxDiffPct {
		// A spread this wide is stale or corrupt data, not the market.
		return nil, nil
	}

	plan, err := meteora.AggregateSell(window, e.cfg.BinsToTrade)
	if err != nil {
		return nil, fmt.Errorf("engine: aggregate bins for %s: %w", state.Route.ID, err)
	}

	totalYUI := float64(plan.TotalY) / math.Pow10(int(state.YDecimals()))
	if totalYUI < e.cfg.MinTradeSizeUI {
		return nil, nil
	}

	tokenDec := state.Token.Decimals
	capacityUI := float64(plan.TokenX) / math.Pow10(int(tokenDec))
	if capacityUI <= 0 {
		return nil, domain.ErrNoLiquidity
	}
	// Size against working capital: never borrow more WSOL than the vault
	// holds, scaling the token capacity by the same proportion.
	if e.cfg.MaxTradeSizeUI > 0 && totalYUI > e.cfg.MaxTradeSizeUI {
		capacityUI *= e.cfg.MaxTradeSizeUI / totalYUI
	}

	sized, wsolIn, quote, err := raydium.SmartQuote(res, capacityUI, state.Raydium.FeeRate, raydium.QuoteConfig{
		ImpactThreshold: e.cfg.ImpactThreshold,
		MaxIterations:   e.cfg.MaxIterations,
		MinFraction:     e.cfg.MinFraction,
		BaseSlippagePct: e.cfg.BaseSlippagePct,
		MaxSlippagePct:  e.cfg.MaxSlippagePct,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: quote buy leg for %s: %w", state.Route.ID, err)
	}

	yOut, binsUsed := meteora.SellOut(window, sized, e.cfg.BinsToTrade, state.YDecimals())
	yNet := yOut * (1 - state.Meteora.TotalFeeRate())

	if wsolIn < e.cfg.MinTradeSizeUI {
		// Too small to clear the tip and compute price.
		return nil, nil
	}

	profit := yNet - wsolIn
	if profit <= e.cfg.MinProfitUI {
		return nil, nil
	}

	quote.AmountIn = raydium.RawAmount(wsolIn, 9)
	quote.MinAmountOut = raydium.RawAmount(sized, tokenDec)

	return &domain.Opportunity{
		ID:           uuid.NewString(),
		RouteID:      state.Route.ID,
		Direction:    direction,
		RaydiumPrice: spot,
		MeteoraPrice: active.Price,
		DiffPct:      diffPct,
		TokenAmount:  quote.MinAmountOut,
		ExpectedYOut: raydium.RawAmount(yNet, 9),
		Buy:          quote,
		EstProfitUI:  profit,
		BinsUsed:     binsUsed,
		DetectedAt:   now,
	}, nil
}

// raydiumReserves folds the two vault snapshots into oriented reserves,
// enforcing freshness on both legs.
func (e *Evaluator) raydiumReserves(state *liquidity.RouteState, now time.Time) (raydium.Reserves, error) {
	base, ok := e.reserves.Latest(state.Raydium.BaseVault)
	if !ok {
		return raydium.Reserves{}, fmt.Errorf("engine: no snapshot for %s: %w", state.Raydium.BaseVault, domain.ErrStaleReserves)
	}
	quote, ok := e.reserves.Latest(state.Raydium.QuoteVault)
	if !ok {
		return raydium.Reserves{}, fmt.Errorf("engine: no snapshot for %s: %w", state.Raydium.QuoteVault, domain.ErrStaleReserves)
	}
	if !base.Fresh(now, e.maxAge) || !quote.Fresh(now, e.maxAge) {
		return raydium.Reserves{}, fmt.Errorf("engine: vaults for %s: %w", state.Route.ID, domain.ErrStaleReserves)
	}

	if state.Raydium.BaseMint.Equals(state.Route.Mint) {
		return raydium.Reserves{TokenUI: base.UIAmount, WSOLUI: quote.UIAmount}, nil
	}
	return raydium.Reserves{TokenUI: quote.UIAmount, WSOLUI: base.UIAmount}, nil
}
