// Package chain wraps the Solana JSON-RPC client and provides the low-level
// instruction encodings shared by both venue packages.
package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/quantfold/dexarb/internal/domain"
)

// Client is a thin wrapper over rpc.Client pinned to one commitment level.
type Client struct {
	rpc        *rpc.Client
	commitment rpc.CommitmentType
	logger     *slog.Logger
}

// NewClient creates a Client for the given RPC endpoint.
func NewClient(rpcURL, commitment string, logger *slog.Logger) *Client {
	return &Client{
		rpc:        rpc.New(rpcURL),
		commitment: rpc.CommitmentType(commitment),
		logger:     logger.With(slog.String("component", "chain")),
	}
}

// Commitment returns the commitment level the client operates at.
func (c *Client) Commitment() rpc.CommitmentType {
	return c.commitment
}

// AccountData fetches one account's raw data and owner. It returns
// domain.ErrNotFound when the account does not exist.
func (c *Client) AccountData(ctx context.Context, account solana.PublicKey) ([]byte, solana.PublicKey, error) {
	res, err := c.rpc.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, solana.PublicKey{}, domain.ErrNotFound
		}
		return nil, solana.PublicKey{}, fmt.Errorf("chain: get account %s: %w", account, err)
	}
	if res.Value == nil {
		return nil, solana.PublicKey{}, domain.ErrNotFound
	}
	return res.Value.Data.GetBinary(), res.Value.Owner, nil
}

// AccountsData fetches raw data for a batch of accounts in one call. The
// result slice is positional; missing accounts yield nil entries.
func (c *Client) AccountsData(ctx context.Context, accounts []solana.PublicKey) ([][]byte, error) {
	res, err := c.rpc.GetMultipleAccountsWithOpts(ctx, accounts, &rpc.GetMultipleAccountsOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
	})
	if err != nil {
		return nil, fmt.Errorf("chain: get multiple accounts: %w", err)
	}
	out := make([][]byte, len(accounts))
	for i, acc := range res.Value {
		if acc == nil {
			continue
		}
		out[i] = acc.Data.GetBinary()
	}
	return out, nil
}

// TokenBalance reads an SPL token account balance.
func (c *Client) TokenBalance(ctx context.Context, account solana.PublicKey) (domain.ReserveSnapshot, error) {
	res, err := c.rpc.GetTokenAccountBalance(ctx, account, c.commitment)
	if err != nil {
		return domain.ReserveSnapshot{}, fmt.Errorf("chain: token balance %s: %w", account, err)
	}
	if res.Value == nil {
		return domain.ReserveSnapshot{}, domain.ErrNotFound
	}

	var amount uint64
	if _, err := fmt.Sscan(res.Value.Amount, &amount); err != nil {
		return domain.ReserveSnapshot{}, fmt.Errorf("chain: parse token amount %q: %w", res.Value.Amount, err)
	}
	var ui float64
	if res.Value.UiAmount != nil {
		ui = *res.Value.UiAmount
	}
	return domain.ReserveSnapshot{
		Account:    account,
		Amount:     amount,
		UIAmount:   ui,
		Decimals:   res.Value.Decimals,
		Slot:       res.Context.Slot,
		ObservedAt: time.Now(),
	}, nil
}

// MintDecimals returns a mint's decimal count via its token supply.
func (c *Client) MintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	res, err := c.rpc.GetTokenSupply(ctx, mint, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("chain: token supply %s: %w", mint, err)
	}
	if res.Value == nil {
		return 0, domain.ErrNotFound
	}
	return res.Value.Decimals, nil
}

// LatestBlockhash fetches the current blockhash and its slot.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, uint64, error) {
	res, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Hash{}, 0, fmt.Errorf("chain: latest blockhash: %w", err)
	}
	return res.Value.Blockhash, res.Context.Slot, nil
}

// Slot returns the current slot at the client's commitment.
func (c *Client) Slot(ctx context.Context) (uint64, error) {
	slot, err := c.rpc.GetSlot(ctx, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("chain: get slot: %w", err)
	}
	return slot, nil
}

// RentExemptBalance returns the minimum lamports for rent exemption at the
// given account size.
func (c *Client) RentExemptBalance(ctx context.Context, size uint64) (uint64, error) {
	lamports, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, size, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("chain: rent exempt balance: %w", err)
	}
	return lamports, nil
}

// SendTransaction broadcasts a signed transaction with preflight skipped;
// the engine's own evaluation is the preflight.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	maxRetries := uint(0)
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight: true,
		MaxRetries:    &maxRetries,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("chain: send transaction: %w", err)
	}
	return sig, nil
}
