package raydium

import (
	"fmt"
	"math"

	"github.com/quantfold/dexarb/internal/domain"
)

// Reserves is the pool's current depth in display units, oriented so Token
// is the non-WSOL side regardless of which side the pool stores it on.
type Reserves struct {
	TokenUI float64
	WSOLUI  float64
}

// SpotPrice returns the marginal WSOL price per token.
func (r Reserves) SpotPrice() float64 {
	if r.TokenUI == 0 {
		return 0
	}
	return r.WSOLUI / r.TokenUI
}

// ExactInForOut computes the WSOL input needed to receive tokenOut tokens
// from a constant-product pool with the given fee, before slippage padding.
// The depletion term makes this strictly superlinear in tokenOut.
func ExactInForOut(r Reserves, tokenOut, fee float64) (float64, error) {
	if tokenOut <= 0 {
		return 0, fmt.Errorf("raydium: token out must be positive, got %f", tokenOut)
	}
	if tokenOut >= r.TokenUI {
		return 0, domain.ErrNoLiquidity
	}
	if fee < 0 || fee >= 1 {
		return 0, fmt.Errorf("raydium: fee %f out of range", fee)
	}
	return r.WSOLUI * tokenOut / ((r.TokenUI - tokenOut) * (1 - fee)), nil
}

// Impact returns the price-impact fraction of buying tokenOut: how far the
// effective price deviates from spot.
func Impact(r Reserves, tokenOut, fee float64) (float64, error) {
	in, err := ExactInForOut(r, tokenOut, fee)
	if err != nil {
		return 0, err
	}
	spot := r.SpotPrice()
	if spot == 0 {
		return 0, domain.ErrNoLiquidity
	}
	effective := in / tokenOut
	// Remove the fee's share so impact measures depth consumption only.
	effective *= 1 - fee
	return effective/spot - 1, nil
}

// QuoteConfig tunes SmartQuote's sizing search.
type QuoteConfig struct {
	ImpactThreshold float64
	MaxIterations   int
	MinFraction     float64
	BaseSlippagePct float64
	MaxSlippagePct  float64
}

// SmartQuote sizes the buy leg. It starts at the requested token amount and
// bisects downward while the price impact exceeds the threshold, flooring at
// MinFraction of the request. Slippage grows with the final impact so thin
// pools get wider protection, capped at MaxSlippagePct.
//
// The returned token amount may be smaller than requested; callers must
// shrink the sell leg to match.
func SmartQuote(r Reserves, tokenOut float64, fee float64, cfg QuoteConfig) (sizedOut, amountIn float64, q domain.Quote, err error) {
	if tokenOut >= r.TokenUI {
		// Never ask a pool for more than it holds; start just inside.
		tokenOut = r.TokenUI * 0.99
	}

	floor := tokenOut * cfg.MinFraction
	size := tokenOut
	lo, hi := floor, tokenOut

	impact, err := Impact(r, size, fee)
	if err != nil {
		return 0, 0, domain.Quote{}, err
	}

	if impact > cfg.ImpactThreshold {
		for i := 0; i < cfg.MaxIterations; i++ {
			mid := (lo + hi) / 2
			midImpact, err := Impact(r, mid, fee)
			if err != nil {
				return 0, 0, domain.Quote{}, err
			}
			if midImpact > cfg.ImpactThreshold {
				hi = mid
			} else {
				lo = mid
			}
			size, impact = mid, midImpact
		}
		if size < floor {
			size = floor
			if impact, err = Impact(r, size, fee); err != nil {
				return 0, 0, domain.Quote{}, err
			}
		}
	}

	in, err := ExactInForOut(r, size, fee)
	if err != nil {
		return 0, 0, domain.Quote{}, err
	}

	slippage := cfg.BaseSlippagePct + impact*100
	if slippage > cfg.MaxSlippagePct {
		slippage = cfg.MaxSlippagePct
	}
	padded := in * (1 + slippage/100)

	q = domain.Quote{
		Impact:      impact,
		SlippagePct: slippage,
	}
	return size, padded, q, nil
}

// RawAmount converts a display amount to lamports at the given decimals,
// rounding up so the swap never underfunds.
func RawAmount(ui float64, decimals uint8) uint64 {
	return uint64(math.Ceil(ui * math.Pow10(int(decimals))))
}
