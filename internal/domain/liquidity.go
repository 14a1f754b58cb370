package domain

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// Bin is one price bin of a Meteora DLMM pool. Price is the per-token rate
// already scaled for the mint decimal difference; RawPrice is the unscaled
// lamport-per-lamport rate used when converting raw amounts.
type Bin struct {
	ID       int32
	AmountX  uint64
	AmountY  uint64
	Price    float64
	RawPrice float64
}

// BinWindow is a snapshot of the bins surrounding a pool's active bin.
// Bins are ordered by ascending bin ID.
type BinWindow struct {
	Pool      solana.PublicKey
	ActiveBin int32
	Bins      []Bin
	FetchedAt time.Time
}

// Active returns the active bin, or false when the window does not
// contain it (liquidity moved since the snapshot).
func (w BinWindow) Active() (Bin, bool) {
	for _, b := range w.Bins {
		if b.ID == w.ActiveBin {
			return b, true
		}
	}
	return Bin{}, false
}
