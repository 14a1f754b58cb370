package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/dexarb/internal/domain"
)

// TradeStore implements domain.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *pgxpool.Pool
}

// NewTradeStore creates a new TradeStore backed by the given connection pool.
func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Insert appends a dispatch record.
func (s *TradeStore) Insert(ctx context.Context, t domain.Trade) error {
	const query = `
		INSERT INTO trades (
			opportunity_id, route_id, signature, outcome, relay,
			amount_in_ui, est_profit_ui, tip_lamports, error, dispatched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.pool.Exec(ctx, query,
		t.OpportunityID, t.RouteID, t.Signature, string(t.Outcome), t.Relay,
		t.AmountInUI, t.EstProfitUI, int64(t.TipLamports), t.Error, t.DispatchedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert trade %s: %w", t.OpportunityID, err)
	}
	return nil
}

// ListBefore returns trades dispatched before the cutoff, oldest first.
func (s *TradeStore) ListBefore(ctx context.Context, before time.Time, limit int) ([]domain.Trade, error) {
	const query = `
		SELECT id, opportunity_id, route_id, signature, outcome, relay,
		       amount_in_ui, est_profit_ui, tip_lamports, error, dispatched_at
		FROM trades WHERE dispatched_at < $1
		ORDER BY dispatched_at
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, before, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades before %s: %w", before, err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var outcome string
		var tip int64
		if err := rows.Scan(
			&t.ID, &t.OpportunityID, &t.RouteID, &t.Signature, &outcome, &t.Relay,
			&t.AmountInUI, &t.EstProfitUI, &tip, &t.Error, &t.DispatchedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan trade: %w", err)
		}
		t.Outcome = domain.TradeOutcome(outcome)
		t.TipLamports = uint64(tip)
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list trades rows: %w", err)
	}
	return trades, nil
}

// DeleteBefore removes trades dispatched before the cutoff and returns the
// number deleted.
func (s *TradeStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM trades WHERE dispatched_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete trades before %s: %w", before, err)
	}
	return tag.RowsAffected(), nil
}
