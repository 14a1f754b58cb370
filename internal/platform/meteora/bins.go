package meteora

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/quantfold/dexarb/internal/chain"
	"github.com/quantfold/dexarb/internal/domain"
)

// BinArrayPDA derives the address of the bin array at the given index.
func BinArrayPDA(pair solana.PublicKey, index int64) (solana.PublicKey, error) {
	idxSeed := make([]byte, 8)
	binary.LittleEndian.PutUint64(idxSeed, uint64(index))
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("bin_array"), pair.Bytes(), idxSeed},
		ProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("meteora: derive bin array %d for %s: %w", index, pair, err)
	}
	return addr, nil
}

// OraclePDA derives the pair's oracle account.
func OraclePDA(pair solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("oracle"), pair.Bytes()},
		ProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("meteora: derive oracle for %s: %w", pair, err)
	}
	return addr, nil
}

// EventAuthorityPDA derives the program's anchor event authority.
func EventAuthorityPDA() (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("__event_authority")},
		ProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("meteora: derive event authority: %w", err)
	}
	return addr, nil
}

// WindowArrayIndexes returns the bin-array indexes covering
// [activeID-left, activeID+right], in ascending order without duplicates.
func WindowArrayIndexes(activeID int32, left, right int) []int64 {
	loIdx := binArrayIndex(activeID - int32(left))
	hiIdx := binArrayIndex(activeID + int32(right))

	indexes := make([]int64, 0, hiIdx-loIdx+1)
	for i := loIdx; i <= hiIdx; i++ {
		indexes = append(indexes, i)
	}
	return indexes
}

// FetchWindow reads every bin array covering the window around the pair's
// active bin and returns the scaled snapshot. xDecimals/yDecimals are the
// mint decimals used to scale the Q64.64 raw price to display units.
func FetchWindow(ctx context.Context, c *chain.Client, p Pair, left, right int, xDecimals, yDecimals uint8) (domain.BinWindow, error) {
	indexes := WindowArrayIndexes(p.ActiveID, left, right)

	addrs := make([]solana.PublicKey, len(indexes))
	for i, idx := range indexes {
		addr, err := BinArrayPDA(p.Address, idx)
		if err != nil {
			return domain.BinWindow{}, err
		}
		addrs[i] = addr
	}

	datas, err := c.AccountsData(ctx, addrs)
	if err != nil {
		return domain.BinWindow{}, fmt.Errorf("meteora: fetch bin arrays for %s: %w", p.Address, err)
	}

	scale := math.Pow10(int(xDecimals) - int(yDecimals))
	lowID := p.ActiveID - int32(left)
	highID := p.ActiveID + int32(right)

	window := domain.BinWindow{
		Pool:      p.Address,
		ActiveBin: p.ActiveID,
		FetchedAt: time.Now(),
	}

	for i, data := range datas {
		if data == nil {
			// Arrays are created lazily; an absent array simply has no bins.
			continue
		}
		arrayIdx, bins, err := decodeBinArray(data)
		if err != nil {
			return domain.BinWindow{}, err
		}
		if arrayIdx != indexes[i] {
			return domain.BinWindow{}, fmt.Errorf("meteora: bin array %s has index %d, want %d", addrs[i], arrayIdx, indexes[i])
		}

		base := lowerBinID(arrayIdx)
		for j, b := range bins {
			id := base + int32(j)
			if id < lowID || id > highID {
				continue
			}
			window.Bins = append(window.Bins, domain.Bin{
				ID:       id,
				AmountX:  b.amountX,
				AmountY:  b.amountY,
				Price:    b.priceRaw * scale,
				RawPrice: b.priceRaw,
			})
		}
	}

	return window, nil
}

// SellPlan is the result of aggregating Y-side liquidity for a token sale.
type SellPlan struct {
	// TokenX is the raw token amount the bins will absorb.
	TokenX uint64
	// TotalY is the raw WSOL the consumed bins hold.
	TotalY uint64
	// BinsUsed counts how many bins the plan touches.
	BinsUsed int
	// ArrayIndexes are the bin-array indexes the swap must pass as
	// remaining accounts, ascending.
	ArrayIndexes []int64
}

// AggregateSell walks bins from the active bin downward (the direction a
// token-for-Y swap consumes them), taking every bin holding Y liquidity
// until maxBins are consumed. Bins with zero Y are passed over without
// counting against the budget.
func AggregateSell(w domain.BinWindow, maxBins int) (SellPlan, error) {
	if maxBins < 1 {
		return SellPlan{}, fmt.Errorf("meteora: max bins must be >= 1, got %d", maxBins)
	}

	var plan SellPlan
	seen := make(map[int64]bool)
	var tokenX float64

	for i := len(w.Bins) - 1; i >= 0; i-- {
		b := w.Bins[i]
		if b.ID > w.ActiveBin {
			continue
		}
		if b.AmountY == 0 {
			continue
		}
		if b.RawPrice <= 0 {
			continue
		}
		if plan.BinsUsed == maxBins {
			break
		}

		plan.TotalY += b.AmountY
		tokenX += float64(b.AmountY) / b.RawPrice
		plan.BinsUsed++

		idx := binArrayIndex(b.ID)
		if !seen[idx] {
			seen[idx] = true
			plan.ArrayIndexes = append(plan.ArrayIndexes, idx)
		}
	}

	if plan.BinsUsed == 0 {
		return SellPlan{}, domain.ErrNoLiquidity
	}

	plan.TokenX = uint64(tokenX)
	sortInt64s(plan.ArrayIndexes)
	return plan, nil
}

// SellOut prices a sized token sale against the window: it fills bins from
// the active bin downward at each bin's display price until tokenXUI is
// exhausted or maxBins are consumed. Returns the Y received in display
// units, before fees.
func SellOut(w domain.BinWindow, tokenXUI float64, maxBins int, yDecimals uint8) (yOutUI float64, binsUsed int) {
	if tokenXUI <= 0 {
		return 0, 0
	}
	yScale := math.Pow10(int(yDecimals))
	remaining := tokenXUI

	for i := len(w.Bins) - 1; i >= 0 && remaining > 0; i-- {
		b := w.Bins[i]
		if b.ID > w.ActiveBin || b.AmountY == 0 || b.Price <= 0 {
			continue
		}
		if binsUsed == maxBins {
			break
		}

		yUI := float64(b.AmountY) / yScale
		capacity := yUI / b.Price
		fill := math.Min(remaining, capacity)
		yOutUI += fill * b.Price
		remaining -= fill
		binsUsed++
	}
	return yOutUI, binsUsed
}

func sortInt64s(s []int64) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
