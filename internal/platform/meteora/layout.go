// Package meteora decodes DLMM pair and bin-array accounts and builds swap
// instructions for the dynamic-fee bin venue.
package meteora

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"

	"github.com/quantfold/dexarb/internal/domain"
)

// AccountSource reads raw account data. The chain client implements it.
type AccountSource interface {
	AccountData(ctx context.Context, account solana.PublicKey) ([]byte, solana.PublicKey, error)
}

// ProgramID is the DLMM program.
var ProgramID = solana.MustPublicKeyFromBase58("LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo")

// binsPerArray is the fixed bin count of one BinArray account.
const binsPerArray = 70

// feePrecision scales on-chain fee rates.
const feePrecision = 1_000_000_000

// maxFeeRate caps the total swap fee at 10%.
const maxFeeRate = 0.10

// LbPair account layout offsets (after the 8-byte anchor discriminator).
const (
	lbPairMinSize = 632

	offBaseFactor            = 8
	offVariableFeeControl    = 16
	offVolatilityAccumulator = 40
	offActiveID              = 76
	offBinStep               = 80
	offTokenXMint            = 88
	offTokenYMint            = 120
	offReserveX              = 152
	offReserveY              = 184
	offOracle                = 600
)

// BinArray account layout offsets.
const (
	binArrayHeaderSize = 56
	binSize            = 144
	binArraySize       = binArrayHeaderSize + binsPerArray*binSize

	offBinArrayIndex = 8
	offBinArrayPair  = 24
	offBinArrayBins  = 56
)

// Pair is the decoded state of one DLMM pool.
type Pair struct {
	Address               solana.PublicKey
	TokenXMint            solana.PublicKey
	TokenYMint            solana.PublicKey
	ReserveX              solana.PublicKey
	ReserveY              solana.PublicKey
	Oracle                solana.PublicKey
	ActiveID              int32
	BinStep               uint16
	BaseFactor            uint16
	VariableFeeControl    uint32
	VolatilityAccumulator uint32
}

func pubkeyAt(data []byte, off int) solana.PublicKey {
	var pk solana.PublicKey
	copy(pk[:], data[off:off+32])
	return pk
}

// FetchPair reads and decodes a DLMM pair account. It returns
// domain.ErrProgramMismatch when the account is not owned by the DLMM
// program.
func FetchPair(ctx context.Context, c AccountSource, address solana.PublicKey) (Pair, error) {
	data, owner, err := c.AccountData(ctx, address)
	if err != nil {
		return Pair{}, fmt.Errorf("meteora: fetch pair %s: %w", address, err)
	}
	if !owner.Equals(ProgramID) {
		return Pair{}, fmt.Errorf("meteora: pair %s owned by %s: %w", address, owner, domain.ErrProgramMismatch)
	}
	return DecodePair(address, data)
}

// DecodePair decodes raw LbPair account data.
func DecodePair(address solana.PublicKey, data []byte) (Pair, error) {
	if len(data) < lbPairMinSize {
		return Pair{}, fmt.Errorf("meteora: pair %s truncated: %d bytes", address, len(data))
	}

	p := Pair{
		Address:               address,
		TokenXMint:            pubkeyAt(data, offTokenXMint),
		TokenYMint:            pubkeyAt(data, offTokenYMint),
		ReserveX:              pubkeyAt(data, offReserveX),
		ReserveY:              pubkeyAt(data, offReserveY),
		ActiveID:              int32(binary.LittleEndian.Uint32(data[offActiveID:])),
		BinStep:               binary.LittleEndian.Uint16(data[offBinStep:]),
		BaseFactor:            binary.LittleEndian.Uint16(data[offBaseFactor:]),
		VariableFeeControl:    binary.LittleEndian.Uint32(data[offVariableFeeControl:]),
		VolatilityAccumulator: binary.LittleEndian.Uint32(data[offVolatilityAccumulator:]),
	}
	if len(data) >= offOracle+32 {
		p.Oracle = pubkeyAt(data, offOracle)
	}
	return p, nil
}

// BaseFeeRate returns the pair's base swap fee as a fraction.
func (p Pair) BaseFeeRate() float64 {
	return float64(uint64(p.BinStep)*uint64(p.BaseFactor)*10) / feePrecision
}

// TotalFeeRate returns base plus variable fee as a fraction, capped at the
// program's 10% ceiling. The variable part mirrors the on-chain rounding.
func (p Pair) TotalFeeRate() float64 {
	base := uint64(p.BinStep) * uint64(p.BaseFactor) * 10

	vb := uint64(p.VolatilityAccumulator) * uint64(p.BinStep)
	variable := (vb*vb*uint64(p.VariableFeeControl) + 99_999_999_999) / 100_000_000_000

	rate := float64(base+variable) / feePrecision
	if rate > maxFeeRate {
		return maxFeeRate
	}
	return rate
}

// decodedBin is one raw bin before decimal scaling.
type decodedBin struct {
	amountX  uint64
	amountY  uint64
	priceRaw float64 // Q64.64 converted to float
}

// decodeBinArray decodes a BinArray account, returning its index and bins.
func decodeBinArray(data []byte) (int64, []decodedBin, error) {
	if len(data) < binArraySize {
		return 0, nil, fmt.Errorf("meteora: bin array truncated: %d bytes", len(data))
	}
	index := int64(binary.LittleEndian.Uint64(data[offBinArrayIndex:]))

	bins := make([]decodedBin, binsPerArray)
	for i := range bins {
		off := offBinArrayBins + i*binSize
		bins[i] = decodedBin{
			amountX:  binary.LittleEndian.Uint64(data[off:]),
			amountY:  binary.LittleEndian.Uint64(data[off+8:]),
			priceRaw: q64ToFloat(data[off+16 : off+32]),
		}
	}
	return index, bins, nil
}

// q64ToFloat converts a little-endian Q64.64 fixed-point value to float64.
func q64ToFloat(raw []byte) float64 {
	lo := binary.LittleEndian.Uint64(raw[0:8])
	hi := binary.LittleEndian.Uint64(raw[8:16])
	return float64(hi) + float64(lo)/math.Pow(2, 64)
}

// binArrayIndex returns the array index holding binID, flooring toward
// negative infinity for bins below zero.
func binArrayIndex(binID int32) int64 {
	idx := int64(binID) / binsPerArray
	if int64(binID)%binsPerArray < 0 {
		idx--
	}
	return idx
}

// lowerBinID returns the first bin ID of an array.
func lowerBinID(arrayIndex int64) int32 {
	return int32(arrayIndex * binsPerArray)
}
