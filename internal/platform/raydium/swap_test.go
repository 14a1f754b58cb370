package raydium

import (
	"bytes"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func TestSwapInstructionShape(t *testing.T) {
	var keys PoolKeys
	keys.AmmID = solana.SystemProgramID

	owner := solana.SysVarRentPubkey
	in := SwapInstruction(keys, solana.TokenProgramID, solana.TokenProgramID, owner, 1_000_000, 990_000)

	if !in.ProgramID().Equals(ProgramID) {
		t.Errorf("program = %s", in.ProgramID())
	}
	if got := len(in.Accounts()); got != 18 {
		t.Errorf("accounts = %d, want 18", got)
	}

	last := in.Accounts()[len(in.Accounts())-1]
	if !last.PublicKey.Equals(owner) || !last.IsSigner {
		t.Errorf("last account = %s signer=%v, want owner as signer", last.PublicKey, last.IsSigner)
	}

	data, err := in.Data()
	if err != nil {
		t.Fatalf("data: %v", err)
	}
	want := []byte{
		0x09,
		0x40, 0x42, 0x0f, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x30, 0x1b, 0x0f, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	if !bytes.Equal(data, want) {
		t.Errorf("data = %x, want %x", data, want)
	}
}
