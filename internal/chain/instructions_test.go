package chain

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func ixData(t *testing.T, ix solana.Instruction) []byte {
	t.Helper()
	data, err := ix.Data()
	if err != nil {
		t.Fatalf("instruction data: %v", err)
	}
	return data
}

func TestSetComputeUnitLimitEncoding(t *testing.T) {
	ix := SetComputeUnitLimit(400_000)
	if !ix.ProgramID().Equals(ComputeBudgetProgramID) {
		t.Errorf("program = %s, want compute budget", ix.ProgramID())
	}
	want := []byte{0x02, 0x80, 0x1a, 0x06, 0x00}
	if got := ixData(t, ix); !bytes.Equal(got, want) {
		t.Errorf("data = %x, want %x", got, want)
	}
	if len(ix.Accounts()) != 0 {
		t.Errorf("accounts = %d, want 0", len(ix.Accounts()))
	}
}

func TestSetComputeUnitPriceEncoding(t *testing.T) {
	ix := SetComputeUnitPrice(50_000)
	want := []byte{0x03, 0x50, 0xc3, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	if got := ixData(t, ix); !bytes.Equal(got, want) {
		t.Errorf("data = %x, want %x", got, want)
	}
}

func TestSystemTransferEncoding(t *testing.T) {
	from := solana.NewWallet().PublicKey()
	to := solana.NewWallet().PublicKey()
	ix := SystemTransfer(from, to, 1_000_000)

	if !ix.ProgramID().Equals(solana.SystemProgramID) {
		t.Errorf("program = %s, want system", ix.ProgramID())
	}
	want := []byte{0x02, 0x00, 0x00, 0x00, 0x40, 0x42, 0x0f, 0x00, 0x00, 0x00, 0x00, 0x00}
	if got := ixData(t, ix); !bytes.Equal(got, want) {
		t.Errorf("data = %x, want %x", got, want)
	}

	accs := ix.Accounts()
	if len(accs) != 2 {
		t.Fatalf("accounts = %d, want 2", len(accs))
	}
	if !accs[0].PublicKey.Equals(from) || !accs[0].IsSigner || !accs[0].IsWritable {
		t.Error("source must be a writable signer")
	}
	if !accs[1].PublicKey.Equals(to) || accs[1].IsSigner || !accs[1].IsWritable {
		t.Error("destination must be writable, not a signer")
	}
}

func TestCreateAccountWithSeedEncoding(t *testing.T) {
	from := solana.NewWallet().PublicKey()
	created := solana.NewWallet().PublicKey()
	const seed = "abcd1234efgh5678"

	ix := CreateAccountWithSeed(from, created, from, seed, 2_039_280, 165, solana.TokenProgramID)

	data := ixData(t, ix)
	if got := binary.LittleEndian.Uint32(data[0:4]); got != systemCreateAccountWithSeed {
		t.Errorf("discriminator = %d, want %d", got, systemCreateAccountWithSeed)
	}
	if !bytes.Equal(data[4:36], from.Bytes()) {
		t.Error("base key mismatch")
	}
	if got := binary.LittleEndian.Uint64(data[36:44]); got != uint64(len(seed)) {
		t.Errorf("seed length = %d, want %d", got, len(seed))
	}
	if string(data[44:44+len(seed)]) != seed {
		t.Error("seed bytes mismatch")
	}
	rest := data[44+len(seed):]
	if got := binary.LittleEndian.Uint64(rest[0:8]); got != 2_039_280 {
		t.Errorf("lamports = %d, want 2039280", got)
	}
	if got := binary.LittleEndian.Uint64(rest[8:16]); got != 165 {
		t.Errorf("space = %d, want 165", got)
	}
	if !bytes.Equal(rest[16:48], solana.TokenProgramID.Bytes()) {
		t.Error("owner mismatch")
	}

	// base == from: no third account meta.
	if got := len(ix.Accounts()); got != 2 {
		t.Errorf("accounts = %d, want 2 when base is the funder", got)
	}
}

func TestTokenInstructionEncodings(t *testing.T) {
	src := solana.NewWallet().PublicKey()
	dst := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	transfer := TokenTransfer(src, dst, owner, 123_456)
	want := []byte{0x03, 0x40, 0xe2, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00}
	if got := ixData(t, transfer); !bytes.Equal(got, want) {
		t.Errorf("transfer data = %x, want %x", got, want)
	}

	closeIx := CloseTokenAccount(src, dst, owner)
	if got := ixData(t, closeIx); !bytes.Equal(got, []byte{0x09}) {
		t.Errorf("close data = %x, want 09", got)
	}
	accs := closeIx.Accounts()
	if len(accs) != 3 || !accs[2].IsSigner {
		t.Error("close must carry account, dest, signer owner")
	}

	initIx := InitializeTokenAccount(src, dst, owner)
	if got := ixData(t, initIx); !bytes.Equal(got, []byte{0x01}) {
		t.Errorf("initialize data = %x, want 01", got)
	}
	if got := initIx.Accounts()[3].PublicKey; !got.Equals(solana.SysVarRentPubkey) {
		t.Errorf("fourth account = %s, want rent sysvar", got)
	}
}

func TestCreateAssociatedTokenAccountMetas(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	wallet := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	ata, _, err := solana.FindAssociatedTokenAddress(wallet, mint)
	if err != nil {
		t.Fatalf("derive ata: %v", err)
	}

	ix := CreateAssociatedTokenAccount(payer, wallet, mint, ata)
	if !ix.ProgramID().Equals(AssociatedTokenProgramID) {
		t.Errorf("program = %s, want associated token", ix.ProgramID())
	}
	if got := ixData(t, ix); len(got) != 0 {
		t.Errorf("data = %x, want empty", got)
	}
	accs := ix.Accounts()
	if len(accs) != 6 {
		t.Fatalf("accounts = %d, want 6", len(accs))
	}
	if !accs[0].PublicKey.Equals(payer) || !accs[0].IsSigner || !accs[0].IsWritable {
		t.Error("payer must be a writable signer")
	}
	if !accs[1].PublicKey.Equals(ata) || accs[1].IsSigner || !accs[1].IsWritable {
		t.Error("ata must be writable, not a signer")
	}
}
