package postgres

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/dexarb/internal/domain"
)

// RouteStore implements domain.RouteStore using PostgreSQL.
type RouteStore struct {
	pool *pgxpool.Pool
}

// NewRouteStore creates a new RouteStore backed by the given connection pool.
func NewRouteStore(pool *pgxpool.Pool) *RouteStore {
	return &RouteStore{pool: pool}
}

// Upsert inserts or updates a route. The status of an existing skipped route
// is never overwritten; skip is terminal.
func (s *RouteStore) Upsert(ctx context.Context, r domain.Route) error {
	const query = `
		INSERT INTO routes (id, raydium_pool, meteora_pool, mint, status, lut, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			status = CASE WHEN routes.status = 'skip' THEN routes.status ELSE EXCLUDED.status END,
			lut        = COALESCE(EXCLUDED.lut, routes.lut),
			updated_at = NOW()`

	var lut *string
	if r.Lut != nil {
		v := r.Lut.String()
		lut = &v
	}
	_, err := s.pool.Exec(ctx, query,
		r.ID, r.RaydiumPool.String(), r.MeteoraPool.String(),
		r.Mint.String(), string(r.Status), lut,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert route %s: %w", r.ID, err)
	}
	return nil
}

const routeCols = `id, raydium_pool, meteora_pool, mint, status, lut, created_at, updated_at`

// scanRoute scans a single route row into a domain.Route.
func scanRoute(row pgx.Row) (domain.Route, error) {
	var r domain.Route
	var raydium, meteora, mint, status string
	var lut *string
	err := row.Scan(&r.ID, &raydium, &meteora, &mint, &status, &lut, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return domain.Route{}, err
	}
	if r.RaydiumPool, err = solana.PublicKeyFromBase58(raydium); err != nil {
		return domain.Route{}, fmt.Errorf("invalid raydium pool %q: %w", raydium, err)
	}
	if r.MeteoraPool, err = solana.PublicKeyFromBase58(meteora); err != nil {
		return domain.Route{}, fmt.Errorf("invalid meteora pool %q: %w", meteora, err)
	}
	if r.Mint, err = solana.PublicKeyFromBase58(mint); err != nil {
		return domain.Route{}, fmt.Errorf("invalid mint %q: %w", mint, err)
	}
	r.Status = domain.RouteStatus(status)
	if lut != nil {
		pk, err := solana.PublicKeyFromBase58(*lut)
		if err != nil {
			return domain.Route{}, fmt.Errorf("invalid lut %q: %w", *lut, err)
		}
		r.Lut = &pk
	}
	return r, nil
}

// GetByID retrieves a route by its canonical pool-pair key.
func (s *RouteStore) GetByID(ctx context.Context, id string) (domain.Route, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+routeCols+` FROM routes WHERE id = $1`, id)
	r, err := scanRoute(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Route{}, domain.ErrNotFound
		}
		return domain.Route{}, fmt.Errorf("postgres: get route %s: %w", id, err)
	}
	return r, nil
}

// GetByRaydiumPool retrieves the single route bound to a Raydium pool.
func (s *RouteStore) GetByRaydiumPool(ctx context.Context, pool solana.PublicKey) (domain.Route, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+routeCols+` FROM routes WHERE raydium_pool = $1`, pool.String())
	r, err := scanRoute(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Route{}, domain.ErrNotFound
		}
		return domain.Route{}, fmt.Errorf("postgres: get route by raydium pool %s: %w", pool, err)
	}
	return r, nil
}

// ListEnabled returns every route currently eligible for trading.
func (s *RouteStore) ListEnabled(ctx context.Context) ([]domain.Route, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+routeCols+` FROM routes WHERE status = 'enabled' ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list enabled routes: %w", err)
	}
	defer rows.Close()

	var routes []domain.Route
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan route: %w", err)
		}
		routes = append(routes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list enabled routes rows: %w", err)
	}
	return routes, nil
}

// SetStatus moves a route to the given status, refusing transitions out of
// the terminal skip state.
func (s *RouteStore) SetStatus(ctx context.Context, id string, status domain.RouteStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE routes SET status = $2, updated_at = NOW()
		 WHERE id = $1 AND (status != 'skip' OR $2 = 'skip')`,
		id, string(status))
	if err != nil {
		return fmt.Errorf("postgres: set route status %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		// Either the route does not exist or it is skip-locked.
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM routes WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("postgres: set route status %s: %w", id, err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrRouteSkipped
	}
	return nil
}

// SetLut records the materialized lookup table address on a route.
func (s *RouteStore) SetLut(ctx context.Context, id string, lut solana.PublicKey) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE routes SET lut = $2, updated_at = NOW() WHERE id = $1`,
		id, lut.String())
	if err != nil {
		return fmt.Errorf("postgres: set route lut %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ReviveSkipped re-enables every skipped route. Reset tooling only.
func (s *RouteStore) ReviveSkipped(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE routes SET status = 'enabled', updated_at = NOW() WHERE status = 'skip'`)
	if err != nil {
		return 0, fmt.Errorf("postgres: revive skipped routes: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ClearLuts drops every route's lookup-table reference. Reset tooling only.
func (s *RouteStore) ClearLuts(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE routes SET lut = NULL, updated_at = NOW() WHERE lut IS NOT NULL`)
	if err != nil {
		return 0, fmt.Errorf("postgres: clear route luts: %w", err)
	}
	return tag.RowsAffected(), nil
}
