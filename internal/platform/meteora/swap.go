package meteora

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// swapDiscriminator is the anchor sighash of the global swap instruction.
var swapDiscriminator = [8]byte{0xf8, 0xc6, 0x9e, 0x91, 0xe1, 0x75, 0x87, 0xc8}

// SwapAccounts carries the per-swap account set the pair state alone cannot
// provide.
type SwapAccounts struct {
	UserTokenIn  solana.PublicKey
	UserTokenOut solana.PublicKey
	User         solana.PublicKey
	// BinArrays are the remaining accounts, ascending by array index.
	BinArrays []solana.PublicKey
}

// SwapInstruction builds the DLMM swap. Unused optional accounts (bitmap
// extension, host fee) are passed as the program ID per anchor convention.
func SwapInstruction(p Pair, eventAuthority solana.PublicKey, acc SwapAccounts, amountIn, minAmountOut uint64) solana.Instruction {
	data := make([]byte, 24)
	copy(data, swapDiscriminator[:])
	binary.LittleEndian.PutUint64(data[8:], amountIn)
	binary.LittleEndian.PutUint64(data[16:], minAmountOut)

	metas := solana.AccountMetaSlice{
		solana.Meta(p.Address).WRITE(),
		solana.Meta(ProgramID), // bin array bitmap extension: unused
		solana.Meta(p.ReserveX).WRITE(),
		solana.Meta(p.ReserveY).WRITE(),
		solana.Meta(acc.UserTokenIn).WRITE(),
		solana.Meta(acc.UserTokenOut).WRITE(),
		solana.Meta(p.TokenXMint),
		solana.Meta(p.TokenYMint),
		solana.Meta(p.Oracle).WRITE(),
		solana.Meta(ProgramID), // host fee account: unused
		solana.Meta(acc.User).SIGNER(),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(eventAuthority),
		solana.Meta(ProgramID),
	}
	for _, ba := range acc.BinArrays {
		metas = append(metas, solana.Meta(ba).WRITE())
	}

	return solana.NewInstruction(ProgramID, metas, data)
}
