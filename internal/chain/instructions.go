package chain

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Program IDs not exported by the SDK.
var (
	ComputeBudgetProgramID       = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")
	AddressLookupTableProgramID  = solana.MustPublicKeyFromBase58("AddressLookupTab1e1111111111111111111111111")
	AssociatedTokenProgramID     = solana.MustPublicKeyFromBase58("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

// SPL token instruction discriminators.
const (
	tokenInitializeAccount byte = 1
	tokenTransfer          byte = 3
	tokenCloseAccount      byte = 9
)

// System program instruction indexes (bincode u32).
const (
	systemCreateAccountWithSeed uint32 = 3
	systemTransfer              uint32 = 2
)

// Compute budget discriminators.
const (
	computeSetUnitLimit byte = 2
	computeSetUnitPrice byte = 3
)

// SetComputeUnitLimit builds a compute-budget instruction capping the
// transaction's compute units.
func SetComputeUnitLimit(units uint32) solana.Instruction {
	data := make([]byte, 5)
	data[0] = computeSetUnitLimit
	binary.LittleEndian.PutUint32(data[1:], units)
	return solana.NewInstruction(ComputeBudgetProgramID, solana.AccountMetaSlice{}, data)
}

// SetComputeUnitPrice builds a compute-budget instruction setting the
// priority fee in micro-lamports per compute unit.
func SetComputeUnitPrice(microLamports uint64) solana.Instruction {
	data := make([]byte, 9)
	data[0] = computeSetUnitPrice
	binary.LittleEndian.PutUint64(data[1:], microLamports)
	return solana.NewInstruction(ComputeBudgetProgramID, solana.AccountMetaSlice{}, data)
}

// SystemTransfer builds a native SOL transfer.
func SystemTransfer(from, to solana.PublicKey, lamports uint64) solana.Instruction {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:], systemTransfer)
	binary.LittleEndian.PutUint64(data[4:], lamports)
	return solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{
		solana.Meta(from).WRITE().SIGNER(),
		solana.Meta(to).WRITE(),
	}, data)
}

// CreateAccountWithSeed builds a system instruction creating an account at
// an address derived from base+seed. The temporary WSOL account is created
// this way so its address is recomputable without storing keypairs.
func CreateAccountWithSeed(from, created, base solana.PublicKey, seed string, lamports, space uint64, owner solana.PublicKey) solana.Instruction {
	data := make([]byte, 0, 4+32+8+len(seed)+8+8+32)
	data = binary.LittleEndian.AppendUint32(data, systemCreateAccountWithSeed)
	data = append(data, base.Bytes()...)
	data = binary.LittleEndian.AppendUint64(data, uint64(len(seed)))
	data = append(data, []byte(seed)...)
	data = binary.LittleEndian.AppendUint64(data, lamports)
	data = binary.LittleEndian.AppendUint64(data, space)
	data = append(data, owner.Bytes()...)

	metas := solana.AccountMetaSlice{
		solana.Meta(from).WRITE().SIGNER(),
		solana.Meta(created).WRITE(),
	}
	if !base.Equals(from) {
		metas = append(metas, solana.Meta(base).SIGNER())
	}
	return solana.NewInstruction(solana.SystemProgramID, metas, data)
}

// TokenTransfer builds an SPL token transfer.
func TokenTransfer(source, dest, owner solana.PublicKey, amount uint64) solana.Instruction {
	data := make([]byte, 9)
	data[0] = tokenTransfer
	binary.LittleEndian.PutUint64(data[1:], amount)
	return solana.NewInstruction(solana.TokenProgramID, solana.AccountMetaSlice{
		solana.Meta(source).WRITE(),
		solana.Meta(dest).WRITE(),
		solana.Meta(owner).SIGNER(),
	}, data)
}

// InitializeTokenAccount builds the SPL initialize-account instruction.
func InitializeTokenAccount(account, mint, owner solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(solana.TokenProgramID, solana.AccountMetaSlice{
		solana.Meta(account).WRITE(),
		solana.Meta(mint),
		solana.Meta(owner),
		solana.Meta(solana.SysVarRentPubkey),
	}, []byte{tokenInitializeAccount})
}

// CloseTokenAccount builds the SPL close-account instruction, sweeping the
// remaining lamports to dest.
func CloseTokenAccount(account, dest, owner solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(solana.TokenProgramID, solana.AccountMetaSlice{
		solana.Meta(account).WRITE(),
		solana.Meta(dest).WRITE(),
		solana.Meta(owner).SIGNER(),
	}, []byte{tokenCloseAccount})
}

// CreateAssociatedTokenAccount builds the ATA create instruction for the
// wallet/mint pair. The ATA address itself comes from
// solana.FindAssociatedTokenAddress.
func CreateAssociatedTokenAccount(payer, wallet, mint, ata solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(AssociatedTokenProgramID, solana.AccountMetaSlice{
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(ata).WRITE(),
		solana.Meta(wallet),
		solana.Meta(mint),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.TokenProgramID),
	}, []byte{})
}
