package signer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/quantfold/dexarb/internal/config"
)

func walletConfigWith(operator, payer, vault string) config.WalletConfig {
	return config.WalletConfig{OperatorKey: operator, PayerKey: payer, VaultKey: vault}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := solana.NewWallet().PrivateKey.String()

	blob, err := EncryptKey(key, "correct horse battery staple")
	if err != nil {
		t.Fatalf("EncryptKey failed: %v", err)
	}

	got, err := DecryptKey(blob, "correct horse battery staple")
	if err != nil {
		t.Fatalf("DecryptKey failed: %v", err)
	}
	if got != key {
		t.Error("round trip did not preserve the key")
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	key := solana.NewWallet().PrivateKey.String()

	blob, err := EncryptKey(key, "right")
	if err != nil {
		t.Fatalf("EncryptKey failed: %v", err)
	}
	if _, err := DecryptKey(blob, "wrong"); err == nil {
		t.Error("wrong password should fail authentication")
	}
}

func TestEncryptRejectsInvalidKey(t *testing.T) {
	if _, err := EncryptKey("not-a-base58-key", "pw"); err == nil {
		t.Error("invalid private key should be rejected")
	}
}

func TestEncryptionsDiffer(t *testing.T) {
	key := solana.NewWallet().PrivateKey.String()

	a, err := EncryptKey(key, "pw")
	if err != nil {
		t.Fatalf("EncryptKey failed: %v", err)
	}
	b, err := EncryptKey(key, "pw")
	if err != nil {
		t.Fatalf("EncryptKey failed: %v", err)
	}
	if string(a) == string(b) {
		t.Error("fresh salt and nonce should make ciphertexts differ")
	}
}

func TestLoadKeyResolution(t *testing.T) {
	wallet := solana.NewWallet()
	raw := wallet.PrivateKey.String()

	// Raw key wins.
	key, err := LoadKey(KeyConfig{RawPrivateKey: raw})
	if err != nil {
		t.Fatalf("LoadKey raw failed: %v", err)
	}
	if key.String() != raw {
		t.Error("raw key not returned verbatim")
	}

	// Encrypted file path.
	blob, err := EncryptKey(raw, "pw")
	if err != nil {
		t.Fatalf("EncryptKey failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "key.json")
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		t.Fatalf("write keyfile: %v", err)
	}
	key, err = LoadKey(KeyConfig{EncryptedKeyPath: path, KeyPassword: "pw"})
	if err != nil {
		t.Fatalf("LoadKey encrypted failed: %v", err)
	}
	if key.String() != raw {
		t.Error("encrypted file did not resolve to the original key")
	}

	// No source configured.
	if _, err := LoadKey(KeyConfig{}); err == nil {
		t.Error("empty config should fail")
	}
}

func TestNewWalletFallsBackToOperator(t *testing.T) {
	op := solana.NewWallet().PrivateKey.String()

	w, err := NewWallet(walletConfigWith(op, "", ""))
	if err != nil {
		t.Fatalf("NewWallet failed: %v", err)
	}
	if !w.PayerPubkey().Equals(w.OperatorPubkey()) {
		t.Error("payer should default to operator")
	}
	if !w.VaultPubkey().Equals(w.OperatorPubkey()) {
		t.Error("vault should default to operator")
	}

	payer := solana.NewWallet().PrivateKey.String()
	w, err = NewWallet(walletConfigWith(op, payer, ""))
	if err != nil {
		t.Fatalf("NewWallet failed: %v", err)
	}
	if w.PayerPubkey().Equals(w.OperatorPubkey()) {
		t.Error("explicit payer should differ from operator")
	}
}
