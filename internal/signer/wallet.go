package signer

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/quantfold/dexarb/internal/config"
)

// Wallet holds the resolved keypairs the engine signs with.
//
// Operator owns the token accounts and authorises swaps. Payer funds
// transaction fees and rent (defaults to the operator when unset).
// Vault owns the WSOL float the executor borrows per trade.
type Wallet struct {
	Operator solana.PrivateKey
	Payer    solana.PrivateKey
	Vault    solana.PrivateKey
}

// NewWallet resolves all configured keys. The operator key is mandatory;
// payer and vault fall back to the operator when not configured.
func NewWallet(cfg config.WalletConfig) (*Wallet, error) {
	operator, err := LoadKey(KeyConfig{
		RawPrivateKey:    cfg.OperatorKey,
		EncryptedKeyPath: cfg.EncryptedKeyPath,
		KeyPassword:      cfg.KeyPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("signer: operator key: %w", err)
	}

	w := &Wallet{Operator: operator, Payer: operator, Vault: operator}

	if cfg.PayerKey != "" {
		payer, err := solana.PrivateKeyFromBase58(cfg.PayerKey)
		if err != nil {
			return nil, fmt.Errorf("signer: payer key: %w", err)
		}
		w.Payer = payer
	}
	if cfg.VaultKey != "" {
		vault, err := solana.PrivateKeyFromBase58(cfg.VaultKey)
		if err != nil {
			return nil, fmt.Errorf("signer: vault key: %w", err)
		}
		w.Vault = vault
	}

	return w, nil
}

// OperatorPubkey returns the operator's public key.
func (w *Wallet) OperatorPubkey() solana.PublicKey {
	return w.Operator.PublicKey()
}

// PayerPubkey returns the fee payer's public key.
func (w *Wallet) PayerPubkey() solana.PublicKey {
	return w.Payer.PublicKey()
}

// VaultPubkey returns the vault's public key.
func (w *Wallet) VaultPubkey() solana.PublicKey {
	return w.Vault.PublicKey()
}

// Sign signs the transaction with every wallet key that appears among
// its required signers.
func (w *Wallet) Sign(tx *solana.Transaction) error {
	keys := map[solana.PublicKey]*solana.PrivateKey{
		w.Operator.PublicKey(): &w.Operator,
		w.Payer.PublicKey():    &w.Payer,
		w.Vault.PublicKey():    &w.Vault,
	}
	if _, err := tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		return keys[pk]
	}); err != nil {
		return fmt.Errorf("signer: sign transaction: %w", err)
	}
	return nil
}
