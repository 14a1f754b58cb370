package postgres

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/dexarb/internal/domain"
)

// PoolStore implements domain.PoolStore using PostgreSQL.
type PoolStore struct {
	pool *pgxpool.Pool
}

// NewPoolStore creates a new PoolStore backed by the given connection pool.
func NewPoolStore(pool *pgxpool.Pool) *PoolStore {
	return &PoolStore{pool: pool}
}

const poolUpsertQuery = `
	INSERT INTO pools (address, venue, base_mint, quote_mint, fee_rate, bin_step, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	ON CONFLICT (address) DO UPDATE SET
		fee_rate   = EXCLUDED.fee_rate,
		bin_step   = EXCLUDED.bin_step,
		updated_at = NOW()`

// Upsert inserts or updates a single pool.
func (s *PoolStore) Upsert(ctx context.Context, p domain.Pool) error {
	_, err := s.pool.Exec(ctx, poolUpsertQuery,
		p.Address.String(), string(p.Venue),
		p.BaseMint.String(), p.QuoteMint.String(),
		p.FeeRate, int32(p.BinStep),
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert pool %s: %w", p.Address, err)
	}
	return nil
}

// UpsertBatch inserts or updates multiple pools in a single batch operation.
func (s *PoolStore) UpsertBatch(ctx context.Context, pools []domain.Pool) error {
	if len(pools) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range pools {
		batch.Queue(poolUpsertQuery,
			p.Address.String(), string(p.Venue),
			p.BaseMint.String(), p.QuoteMint.String(),
			p.FeeRate, int32(p.BinStep),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range pools {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert pool batch item %d: %w", i, err)
		}
	}
	return nil
}

const poolCols = `address, venue, base_mint, quote_mint, fee_rate, bin_step, created_at, updated_at`

// scanPool scans a single pool row into a domain.Pool.
func scanPool(row pgx.Row) (domain.Pool, error) {
	var p domain.Pool
	var address, venue, baseMint, quoteMint string
	var binStep int32
	err := row.Scan(&address, &venue, &baseMint, &quoteMint, &p.FeeRate, &binStep, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Pool{}, err
	}
	if p.Address, err = solana.PublicKeyFromBase58(address); err != nil {
		return domain.Pool{}, fmt.Errorf("invalid pool address %q: %w", address, err)
	}
	if p.BaseMint, err = solana.PublicKeyFromBase58(baseMint); err != nil {
		return domain.Pool{}, fmt.Errorf("invalid base mint %q: %w", baseMint, err)
	}
	if p.QuoteMint, err = solana.PublicKeyFromBase58(quoteMint); err != nil {
		return domain.Pool{}, fmt.Errorf("invalid quote mint %q: %w", quoteMint, err)
	}
	p.Venue = domain.Venue(venue)
	p.BinStep = uint16(binStep)
	return p, nil
}

// GetByAddress retrieves a pool by its on-chain address.
func (s *PoolStore) GetByAddress(ctx context.Context, addr solana.PublicKey) (domain.Pool, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+poolCols+` FROM pools WHERE address = $1`, addr.String())
	p, err := scanPool(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Pool{}, domain.ErrNotFound
		}
		return domain.Pool{}, fmt.Errorf("postgres: get pool %s: %w", addr, err)
	}
	return p, nil
}

// ListByMint returns every pool that has the mint on either side.
func (s *PoolStore) ListByMint(ctx context.Context, mint solana.PublicKey) ([]domain.Pool, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+poolCols+` FROM pools WHERE base_mint = $1 OR quote_mint = $1 ORDER BY created_at`,
		mint.String())
	if err != nil {
		return nil, fmt.Errorf("postgres: list pools by mint %s: %w", mint, err)
	}
	defer rows.Close()

	var pools []domain.Pool
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan pool: %w", err)
		}
		pools = append(pools, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list pools rows: %w", err)
	}
	return pools, nil
}

// Count returns the total number of pools in the database.
func (s *PoolStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM pools").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: count pools: %w", err)
	}
	return count, nil
}
