package domain

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// Venue identifies which AMM program a pool belongs to.
type Venue string

const (
	// VenueRaydium is the constant-product AMM with a flat swap fee.
	VenueRaydium Venue = "raydium"
	// VenueMeteora is the bin-based DLMM with a variable swap fee.
	VenueMeteora Venue = "meteora"
)

// Pool is a single two-sided liquidity pool on one venue.
type Pool struct {
	Address   solana.PublicKey
	Venue     Venue
	BaseMint  solana.PublicKey
	QuoteMint solana.PublicKey
	// FeeRate is the pool's swap fee as a fraction (0.0025 = 25 bps).
	// For Meteora this is the base fee at discovery time; the live fee
	// is read from the pair account when quoting.
	FeeRate   float64
	BinStep   uint16 // Meteora only, zero for Raydium
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SharesPair reports whether two pools trade the same unordered mint pair.
func SharesPair(a, b Pool) bool {
	if a.BaseMint.Equals(b.BaseMint) && a.QuoteMint.Equals(b.QuoteMint) {
		return true
	}
	return a.BaseMint.Equals(b.QuoteMint) && a.QuoteMint.Equals(b.BaseMint)
}
