package raydium

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// swapInstruction is the AMM v4 swap-base-in discriminator.
const swapInstruction byte = 9

// SwapInstruction builds the AMM v4 swap. The 18 non-data accounts are in
// the order the program requires; tokenAccountIn/Out are the owner's source
// and destination token accounts.
func SwapInstruction(keys PoolKeys, tokenAccountIn, tokenAccountOut, owner solana.PublicKey, amountIn, minAmountOut uint64) solana.Instruction {
	data := make([]byte, 17)
	data[0] = swapInstruction
	binary.LittleEndian.PutUint64(data[1:], amountIn)
	binary.LittleEndian.PutUint64(data[9:], minAmountOut)

	return solana.NewInstruction(ProgramID, solana.AccountMetaSlice{
		solana.Meta(solana.TokenProgramID),
		solana.Meta(keys.AmmID).WRITE(),
		solana.Meta(AuthorityV4),
		solana.Meta(keys.OpenOrders).WRITE(),
		solana.Meta(keys.TargetOrders).WRITE(),
		solana.Meta(keys.BaseVault).WRITE(),
		solana.Meta(keys.QuoteVault).WRITE(),
		solana.Meta(OpenBookProgram),
		solana.Meta(keys.MarketID).WRITE(),
		solana.Meta(keys.MarketBids).WRITE(),
		solana.Meta(keys.MarketAsks).WRITE(),
		solana.Meta(keys.MarketEventQueue).WRITE(),
		solana.Meta(keys.MarketBaseVault).WRITE(),
		solana.Meta(keys.MarketQuoteVault).WRITE(),
		solana.Meta(keys.MarketAuthority),
		solana.Meta(tokenAccountIn).WRITE(),
		solana.Meta(tokenAccountOut).WRITE(),
		solana.Meta(owner).SIGNER(),
	}, data)
}
