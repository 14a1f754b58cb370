package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/quantfold/dexarb/internal/chain"
	"github.com/quantfold/dexarb/internal/domain"
	"github.com/quantfold/dexarb/internal/platform/meteora"
	"github.com/quantfold/dexarb/internal/platform/raydium"
)

// extendChunk caps addresses per extend instruction so each transaction
// stays under the packet size limit.
const extendChunk = 20

// ensureLut makes sure the route has a materialized lookup table, creating
// and extending one on chain when missing. It reports whether the route's
// table reference changed.
func (b *Builder) ensureLut(ctx context.Context, route domain.Route, keys raydium.PoolKeys, pair meteora.Pair) (bool, error) {
	if route.Lut != nil {
		return false, nil
	}

	// A table may exist from a previous run that died before SetLut.
	if existing, err := b.luts.GetByRoute(ctx, route.ID); err == nil {
		return true, b.routes.SetLut(ctx, route.ID, existing.Address)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("graph: load lut for %s: %w", route.ID, err)
	}

	addrs, err := b.routeAddresses(route, keys, pair)
	if err != nil {
		return false, err
	}

	table, err := b.materializeLut(ctx, addrs)
	if err != nil {
		return false, err
	}

	if err := b.luts.Upsert(ctx, domain.LookupTable{
		Address:   table,
		RouteID:   route.ID,
		Addresses: addrs,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return false, fmt.Errorf("graph: persist lut: %w", err)
	}
	if err := b.routes.SetLut(ctx, route.ID, table); err != nil {
		return false, fmt.Errorf("graph: set route lut: %w", err)
	}

	b.logger.InfoContext(ctx, "graph: lookup table materialized",
		slog.String("route", route.ID),
		slog.String("table", table.String()),
		slog.Int("addresses", len(addrs)),
	)
	return true, nil
}

// routeAddresses assembles the deduplicated address list for one route's
// lookup table: both pool account sets, the operator's token accounts, and
// the static programs every trade references.
func (b *Builder) routeAddresses(route domain.Route, keys raydium.PoolKeys, pair meteora.Pair) ([]solana.PublicKey, error) {
	operator := b.wallet.OperatorPubkey()

	tokenATA, _, err := solana.FindAssociatedTokenAddress(operator, route.Mint)
	if err != nil {
		return nil, fmt.Errorf("graph: derive token ata: %w", err)
	}
	eventAuthority, err := meteora.EventAuthorityPDA()
	if err != nil {
		return nil, fmt.Errorf("graph: derive event authority: %w", err)
	}

	addrs := keys.LutAddresses()
	addrs = append(addrs,
		pair.Address, pair.ReserveX, pair.ReserveY, pair.Oracle,
		pair.TokenXMint, pair.TokenYMint, eventAuthority, meteora.ProgramID,
		raydium.ProgramID,
		operator, tokenATA,
		solana.TokenProgramID, solana.SystemProgramID,
		chain.ComputeBudgetProgramID,
	)

	if b.jito.Enabled && b.jito.TipAccount != "" {
		tip, err := solana.PublicKeyFromBase58(b.jito.TipAccount)
		if err != nil {
			return nil, fmt.Errorf("graph: tip account: %w", err)
		}
		addrs = append(addrs, tip)
	}

	// Dedup preserving first-seen order; v0 compaction indexes by position.
	seen := make(map[solana.PublicKey]struct{}, len(addrs))
	out := addrs[:0]
	for _, a := range addrs {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out, nil
}

// materializeLut creates the table on chain and extends it with addrs in
// chunks, one transaction each. Returns the table address.
func (b *Builder) materializeLut(ctx context.Context, addrs []solana.PublicKey) (solana.PublicKey, error) {
	authority := b.wallet.OperatorPubkey()
	payer := b.wallet.PayerPubkey()

	slot, err := b.chain.Slot(ctx)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("graph: fetch slot: %w", err)
	}

	createIx, table, err := chain.CreateLookupTable(authority, payer, slot)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if err := b.sendInstructions(ctx, createIx); err != nil {
		return solana.PublicKey{}, fmt.Errorf("graph: create lut: %w", err)
	}

	for start := 0; start < len(addrs); start += extendChunk {
		end := min(start+extendChunk, len(addrs))
		ix := chain.ExtendLookupTable(table, authority, payer, addrs[start:end])
		if err := b.sendInstructions(ctx, ix); err != nil {
			return solana.PublicKey{}, fmt.Errorf("graph: extend lut [%d:%d]: %w", start, end, err)
		}
	}

	return table, nil
}

// sendInstructions wraps instructions in a signed legacy transaction and
// submits it. Table maintenance is not latency sensitive, so a fresh
// blockhash per transaction is fine.
func (b *Builder) sendInstructions(ctx context.Context, ixs ...solana.Instruction) error {
	blockhash, _, err := b.chain.LatestBlockhash(ctx)
	if err != nil {
		return err
	}

	tx, err := solana.NewTransaction(ixs, blockhash, solana.TransactionPayer(b.wallet.PayerPubkey()))
	if err != nil {
		return fmt.Errorf("build transaction: %w", err)
	}
	if err := b.wallet.Sign(tx); err != nil {
		return err
	}
	if _, err := b.chain.SendTransaction(ctx, tx); err != nil {
		return err
	}
	return nil
}
