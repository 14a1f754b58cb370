// Package txn assembles, signs, and dispatches the two-leg arbitrage
// transaction.
package txn

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/quantfold/dexarb/internal/chain"
	"github.com/quantfold/dexarb/internal/config"
	"github.com/quantfold/dexarb/internal/domain"
	"github.com/quantfold/dexarb/internal/liquidity"
	"github.com/quantfold/dexarb/internal/platform/meteora"
	"github.com/quantfold/dexarb/internal/platform/raydium"
	"github.com/quantfold/dexarb/internal/signer"
)

// tokenAccountSize is the serialized size of an SPL token account.
const tokenAccountSize = 165

// seedLen is how much of the opportunity ID becomes the temp account seed.
const seedLen = 16

// Builder turns an opportunity into a single v0 transaction:
//
//	compute budget, create+init seeded WSOL account, borrow from the
//	vault, buy tokens on Raydium, sell them into Meteora bins, repay the
//	vault, close the temp account, tip.
//
// Profit stays in the temp WSOL account and lands on the operator as
// lamports when it closes. The Meteora leg's minimum out equals the
// borrowed amount, so an unprofitable fill reverts the whole transaction.
type Builder struct {
	chain  *chain.Client
	bh     domain.BlockhashCache
	bins   domain.BinCache
	wallet *signer.Wallet
	cfg    config.TxnConfig
	jito   config.JitoConfig

	rentMu sync.Mutex
	rent   uint64
}

// NewBuilder creates a Builder.
func NewBuilder(
	chainClient *chain.Client,
	bh domain.BlockhashCache,
	bins domain.BinCache,
	wallet *signer.Wallet,
	cfg config.TxnConfig,
	jito config.JitoConfig,
) *Builder {
	return &Builder{
		chain:  chainClient,
		bh:     bh,
		bins:   bins,
		wallet: wallet,
		cfg:    cfg,
		jito:   jito,
	}
}

// Build assembles the unsigned transaction for one opportunity.
func (b *Builder) Build(ctx context.Context, state *liquidity.RouteState, opp domain.Opportunity) (*solana.Transaction, error) {
	if opp.Direction != domain.DirectionAToB {
		return nil, fmt.Errorf("txn: direction %s is never executed", opp.Direction)
	}

	operator := b.wallet.OperatorPubkey()
	payer := b.wallet.PayerPubkey()
	vault := b.wallet.VaultPubkey()

	rent, err := b.rentExempt(ctx)
	if err != nil {
		return nil, err
	}

	seed := tempSeed(opp.ID)
	wsolTemp, err := solana.CreateWithSeed(operator, seed, solana.TokenProgramID)
	if err != nil {
		return nil, fmt.Errorf("txn: derive temp account: %w", err)
	}

	vaultWSOL, _, err := solana.FindAssociatedTokenAddress(vault, domain.WSOL)
	if err != nil {
		return nil, fmt.Errorf("txn: derive vault wsol ata: %w", err)
	}
	tokenATA, _, err := solana.FindAssociatedTokenAddress(operator, state.Route.Mint)
	if err != nil {
		return nil, fmt.Errorf("txn: derive token ata: %w", err)
	}

	binArrays, err := b.binArrays(ctx, state)
	if err != nil {
		return nil, err
	}
	eventAuthority, err := meteora.EventAuthorityPDA()
	if err != nil {
		return nil, fmt.Errorf("txn: derive event authority: %w", err)
	}

	ixs := []solana.Instruction{
		chain.SetComputeUnitLimit(b.cfg.ComputeUnitLimit),
		chain.SetComputeUnitPrice(b.cfg.ComputeUnitPrice),
		chain.CreateAccountWithSeed(payer, wsolTemp, operator, seed, rent, tokenAccountSize, solana.TokenProgramID),
		chain.InitializeTokenAccount(wsolTemp, domain.WSOL, operator),
		chain.TokenTransfer(vaultWSOL, wsolTemp, vault, opp.Buy.AmountIn),
		raydium.SwapInstruction(state.Raydium, wsolTemp, tokenATA, operator, opp.Buy.AmountIn, opp.Buy.MinAmountOut),
		meteora.SwapInstruction(state.Meteora, eventAuthority, meteora.SwapAccounts{
			UserTokenIn:  tokenATA,
			UserTokenOut: wsolTemp,
			User:         operator,
			BinArrays:    binArrays,
		}, opp.TokenAmount, opp.Buy.AmountIn),
		chain.TokenTransfer(wsolTemp, vaultWSOL, operator, opp.Buy.AmountIn),
		chain.CloseTokenAccount(wsolTemp, operator, operator),
	}

	if b.jito.Enabled && b.jito.TipAccount != "" {
		tip, err := solana.PublicKeyFromBase58(b.jito.TipAccount)
		if err != nil {
			return nil, fmt.Errorf("txn: tip account: %w", err)
		}
		ixs = append(ixs, chain.SystemTransfer(payer, tip, b.jito.TipLamports))
	}

	blockhash, _, err := b.bh.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("txn: blockhash: %w", err)
	}

	opts := []solana.TransactionOption{solana.TransactionPayer(payer)}
	if !state.Lut.Address.IsZero() {
		opts = append(opts, solana.TransactionAddressTables(map[solana.PublicKey]solana.PublicKeySlice{
			state.Lut.Address: state.Lut.Addresses,
		}))
	}

	tx, err := solana.NewTransaction(ixs, blockhash, opts...)
	if err != nil {
		return nil, fmt.Errorf("txn: assemble transaction: %w", err)
	}
	return tx, nil
}

// binArrays resolves the remaining accounts for the Meteora leg from the
// current cached window.
func (b *Builder) binArrays(ctx context.Context, state *liquidity.RouteState) ([]solana.PublicKey, error) {
	window, err := b.bins.GetWindow(ctx, state.Route.MeteoraPool)
	if err != nil {
		return nil, fmt.Errorf("txn: bin window: %w", err)
	}
	plan, err := meteora.AggregateSell(window, len(window.Bins))
	if err != nil {
		return nil, fmt.Errorf("txn: aggregate bins: %w", err)
	}

	arrays := make([]solana.PublicKey, 0, len(plan.ArrayIndexes))
	for _, idx := range plan.ArrayIndexes {
		pda, err := meteora.BinArrayPDA(state.Route.MeteoraPool, idx)
		if err != nil {
			return nil, fmt.Errorf("txn: bin array pda: %w", err)
		}
		arrays = append(arrays, pda)
	}
	return arrays, nil
}

// rentExempt caches the minimum balance for a token account; it changes
// only with cluster config, so one successful fetch lasts the process.
func (b *Builder) rentExempt(ctx context.Context) (uint64, error) {
	b.rentMu.Lock()
	defer b.rentMu.Unlock()
	if b.rent != 0 {
		return b.rent, nil
	}
	rent, err := b.chain.RentExemptBalance(ctx, tokenAccountSize)
	if err != nil {
		return 0, fmt.Errorf("txn: rent exempt balance: %w", err)
	}
	b.rent = rent
	return rent, nil
}

// tempSeed derives the per-trade seed from the opportunity ID.
func tempSeed(oppID string) string {
	s := strings.ReplaceAll(oppID, "-", "")
	if len(s) > seedLen {
		s = s[:seedLen]
	}
	return s
}
