package postgres

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/dexarb/internal/domain"
)

// LutStore implements domain.LutStore using PostgreSQL.
type LutStore struct {
	pool *pgxpool.Pool
}

// NewLutStore creates a new LutStore backed by the given connection pool.
func NewLutStore(pool *pgxpool.Pool) *LutStore {
	return &LutStore{pool: pool}
}

// Upsert records a materialized lookup table and its ordered address list.
func (s *LutStore) Upsert(ctx context.Context, l domain.LookupTable) error {
	const query = `
		INSERT INTO luts (address, route_id, addresses, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (route_id) DO UPDATE SET
			address   = EXCLUDED.address,
			addresses = EXCLUDED.addresses`

	addrs := make([]string, len(l.Addresses))
	for i, a := range l.Addresses {
		addrs[i] = a.String()
	}
	_, err := s.pool.Exec(ctx, query, l.Address.String(), l.RouteID, addrs)
	if err != nil {
		return fmt.Errorf("postgres: upsert lut %s: %w", l.Address, err)
	}
	return nil
}

// GetByRoute retrieves the lookup table materialized for a route.
func (s *LutStore) GetByRoute(ctx context.Context, routeID string) (domain.LookupTable, error) {
	var l domain.LookupTable
	var address string
	var addrs []string
	err := s.pool.QueryRow(ctx,
		`SELECT address, route_id, addresses, created_at FROM luts WHERE route_id = $1`,
		routeID,
	).Scan(&address, &l.RouteID, &addrs, &l.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.LookupTable{}, domain.ErrNotFound
		}
		return domain.LookupTable{}, fmt.Errorf("postgres: get lut for route %s: %w", routeID, err)
	}
	if l.Address, err = solana.PublicKeyFromBase58(address); err != nil {
		return domain.LookupTable{}, fmt.Errorf("invalid lut address %q: %w", address, err)
	}
	l.Addresses = make([]solana.PublicKey, len(addrs))
	for i, a := range addrs {
		if l.Addresses[i], err = solana.PublicKeyFromBase58(a); err != nil {
			return domain.LookupTable{}, fmt.Errorf("invalid lut entry %q: %w", a, err)
		}
	}
	return l, nil
}
