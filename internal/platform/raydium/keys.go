// Package raydium decodes AMM v4 pool state and builds swap instructions
// for the fixed-fee constant-product venue.
package raydium

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/quantfold/dexarb/internal/domain"
)

// AccountSource reads raw account data. The chain client implements it.
type AccountSource interface {
	AccountData(ctx context.Context, account solana.PublicKey) ([]byte, solana.PublicKey, error)
}

// Program IDs involved in an AMM v4 swap.
var (
	ProgramID       = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	AuthorityV4     = solana.MustPublicKeyFromBase58("5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1")
	OpenBookProgram = solana.MustPublicKeyFromBase58("srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX")
)

// AMM v4 state layout offsets. The account is a packed sequence of u64
// fields followed by pubkeys.
const (
	ammAccountSize = 752

	offSwapFeeNumerator   = 176
	offSwapFeeDenominator = 184
	offBaseDecimals       = 32
	offQuoteDecimals      = 40
	offBaseVault          = 336
	offQuoteVault         = 368
	offBaseMint           = 400
	offQuoteMint          = 432
	offOpenOrders         = 496
	offMarketID           = 528
	offMarketProgram      = 560
	offTargetOrders       = 592
)

// OpenBook market state layout offsets (after the 5-byte "serum" padding).
const (
	marketAccountSize = 388

	offMarketVaultSignerNonce = 45
	offMarketBaseVault        = 117
	offMarketQuoteVault       = 165
	offMarketEventQueue       = 253
	offMarketBids             = 285
	offMarketAsks             = 317
)

// PoolKeys is everything the swap instruction and the lookup table need
// about one AMM v4 pool.
type PoolKeys struct {
	AmmID            solana.PublicKey
	BaseMint         solana.PublicKey
	QuoteMint        solana.PublicKey
	BaseDecimals     uint8
	QuoteDecimals    uint8
	BaseVault        solana.PublicKey
	QuoteVault       solana.PublicKey
	OpenOrders       solana.PublicKey
	TargetOrders     solana.PublicKey
	MarketID         solana.PublicKey
	MarketBids       solana.PublicKey
	MarketAsks       solana.PublicKey
	MarketEventQueue solana.PublicKey
	MarketBaseVault  solana.PublicKey
	MarketQuoteVault solana.PublicKey
	MarketAuthority  solana.PublicKey
	// FeeRate is the flat swap fee as a fraction, from the pool state.
	FeeRate float64
}

func pubkeyAt(data []byte, off int) solana.PublicKey {
	var pk solana.PublicKey
	copy(pk[:], data[off:off+32])
	return pk
}

// FetchPoolKeys reads the AMM account and its OpenBook market and assembles
// the full key set. It returns domain.ErrProgramMismatch when the pool
// account is not owned by the AMM v4 program.
func FetchPoolKeys(ctx context.Context, c AccountSource, ammID solana.PublicKey) (PoolKeys, error) {
	data, owner, err := c.AccountData(ctx, ammID)
	if err != nil {
		return PoolKeys{}, fmt.Errorf("raydium: fetch pool %s: %w", ammID, err)
	}
	if !owner.Equals(ProgramID) {
		return PoolKeys{}, fmt.Errorf("raydium: pool %s owned by %s: %w", ammID, owner, domain.ErrProgramMismatch)
	}
	if len(data) < ammAccountSize {
		return PoolKeys{}, fmt.Errorf("raydium: pool %s truncated: %d bytes", ammID, len(data))
	}

	keys := PoolKeys{
		AmmID:         ammID,
		BaseMint:      pubkeyAt(data, offBaseMint),
		QuoteMint:     pubkeyAt(data, offQuoteMint),
		BaseDecimals:  uint8(binary.LittleEndian.Uint64(data[offBaseDecimals:])),
		QuoteDecimals: uint8(binary.LittleEndian.Uint64(data[offQuoteDecimals:])),
		BaseVault:     pubkeyAt(data, offBaseVault),
		QuoteVault:    pubkeyAt(data, offQuoteVault),
		OpenOrders:    pubkeyAt(data, offOpenOrders),
		TargetOrders:  pubkeyAt(data, offTargetOrders),
		MarketID:      pubkeyAt(data, offMarketID),
	}

	feeNum := binary.LittleEndian.Uint64(data[offSwapFeeNumerator:])
	feeDen := binary.LittleEndian.Uint64(data[offSwapFeeDenominator:])
	if feeDen != 0 {
		keys.FeeRate = float64(feeNum) / float64(feeDen)
	}

	marketProgram := pubkeyAt(data, offMarketProgram)

	mdata, mowner, err := c.AccountData(ctx, keys.MarketID)
	if err != nil {
		return PoolKeys{}, fmt.Errorf("raydium: fetch market %s: %w", keys.MarketID, err)
	}
	if !mowner.Equals(marketProgram) {
		return PoolKeys{}, fmt.Errorf("raydium: market %s owned by %s: %w", keys.MarketID, mowner, domain.ErrProgramMismatch)
	}
	if len(mdata) < marketAccountSize {
		return PoolKeys{}, fmt.Errorf("raydium: market %s truncated: %d bytes", keys.MarketID, len(mdata))
	}

	keys.MarketBaseVault = pubkeyAt(mdata, offMarketBaseVault)
	keys.MarketQuoteVault = pubkeyAt(mdata, offMarketQuoteVault)
	keys.MarketEventQueue = pubkeyAt(mdata, offMarketEventQueue)
	keys.MarketBids = pubkeyAt(mdata, offMarketBids)
	keys.MarketAsks = pubkeyAt(mdata, offMarketAsks)

	nonce := binary.LittleEndian.Uint64(mdata[offMarketVaultSignerNonce:])
	nonceSeed := make([]byte, 8)
	binary.LittleEndian.PutUint64(nonceSeed, nonce)
	authority, err := solana.CreateProgramAddress(
		[][]byte{keys.MarketID.Bytes(), nonceSeed},
		marketProgram,
	)
	if err != nil {
		return PoolKeys{}, fmt.Errorf("raydium: derive market authority for %s: %w", keys.MarketID, err)
	}
	keys.MarketAuthority = authority

	return keys, nil
}

// LutAddresses returns the pool-side account list for lookup-table
// materialization, in the order the swap instruction references them.
func (k PoolKeys) LutAddresses() []solana.PublicKey {
	return []solana.PublicKey{
		k.AmmID, AuthorityV4, k.OpenOrders, k.TargetOrders,
		k.BaseVault, k.QuoteVault, OpenBookProgram, k.MarketID,
		k.MarketBids, k.MarketAsks, k.MarketEventQueue,
		k.MarketBaseVault, k.MarketQuoteVault, k.MarketAuthority,
	}
}
