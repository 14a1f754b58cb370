package domain

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// WSOL is the wrapped-SOL mint, the working-capital token every route
// trades against.
var WSOL = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

// Token is an SPL mint the engine is willing to route through.
type Token struct {
	Mint      solana.PublicKey
	Symbol    string
	Decimals  uint8
	Tradable  bool
	// ATA is the operator's associated token account for this mint,
	// cached once created so route building never re-derives it.
	ATA       *solana.PublicKey
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UIAmount converts a raw lamport amount of this token to display units.
func (t Token) UIAmount(raw uint64) float64 {
	div := 1.0
	for i := uint8(0); i < t.Decimals; i++ {
		div *= 10
	}
	return float64(raw) / div
}

// RawAmount converts a display amount back to raw lamports, truncating.
func (t Token) RawAmount(ui float64) uint64 {
	mul := 1.0
	for i := uint8(0); i < t.Decimals; i++ {
		mul *= 10
	}
	return uint64(ui * mul)
}
