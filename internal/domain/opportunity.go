package domain

import "time"

// TradeDirection names which leg is bought first. Only AToB (buy on the
// cheaper Raydium leg, sell into Meteora bins) is ever executed; BToA is
// recorded and dropped.
type TradeDirection string

const (
	DirectionAToB TradeDirection = "a_to_b"
	DirectionBToA TradeDirection = "b_to_a"
)

// Quote is the sized result of pricing the Raydium leg for a target
// token amount.
type Quote struct {
	// AmountIn is the WSOL input in raw lamports, slippage included.
	AmountIn uint64
	// MinAmountOut is the token amount the swap must deliver.
	MinAmountOut uint64
	// Impact is the price impact fraction of the sized trade.
	Impact float64
	// SlippagePct is the dynamic slippage applied, in percent.
	SlippagePct float64
}

// Opportunity is a fully evaluated, ready-to-build arbitrage.
type Opportunity struct {
	ID            string // UUID for dedup and trade linkage
	RouteID       string
	Direction     TradeDirection
	RaydiumPrice  float64
	MeteoraPrice  float64
	// DiffPct is (raydium - meteora) / meteora * 100; negative means the
	// Raydium leg is cheaper.
	DiffPct       float64
	TokenAmount   uint64 // raw token size aggregated from bins
	ExpectedYOut  uint64 // raw WSOL the Meteora leg should return
	Buy           Quote
	EstProfitUI   float64 // expected WSOL profit in display units
	BinsUsed      int
	DetectedAt    time.Time
}
