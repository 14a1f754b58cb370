package postgres

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/dexarb/internal/domain"
)

// TokenStore implements domain.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *pgxpool.Pool
}

// NewTokenStore creates a new TokenStore backed by the given connection pool.
func NewTokenStore(pool *pgxpool.Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Upsert inserts or updates a single token.
func (s *TokenStore) Upsert(ctx context.Context, t domain.Token) error {
	const query = `
		INSERT INTO tokens (mint, symbol, decimals, tradable, ata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (mint) DO UPDATE SET
			symbol     = EXCLUDED.symbol,
			decimals   = EXCLUDED.decimals,
			tradable   = EXCLUDED.tradable,
			ata        = COALESCE(EXCLUDED.ata, tokens.ata),
			updated_at = NOW()`

	var ata *string
	if t.ATA != nil {
		v := t.ATA.String()
		ata = &v
	}
	_, err := s.pool.Exec(ctx, query, t.Mint.String(), t.Symbol, int16(t.Decimals), t.Tradable, ata)
	if err != nil {
		return fmt.Errorf("postgres: upsert token %s: %w", t.Mint, err)
	}
	return nil
}

const tokenCols = `mint, symbol, decimals, tradable, ata, created_at, updated_at`

// scanToken scans a single token row into a domain.Token.
func scanToken(row pgx.Row) (domain.Token, error) {
	var t domain.Token
	var mint string
	var decimals int16
	var ata *string
	err := row.Scan(&mint, &t.Symbol, &decimals, &t.Tradable, &ata, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.Token{}, err
	}
	t.Mint, err = solana.PublicKeyFromBase58(mint)
	if err != nil {
		return domain.Token{}, fmt.Errorf("invalid mint %q: %w", mint, err)
	}
	t.Decimals = uint8(decimals)
	if ata != nil {
		pk, err := solana.PublicKeyFromBase58(*ata)
		if err != nil {
			return domain.Token{}, fmt.Errorf("invalid ata %q: %w", *ata, err)
		}
		t.ATA = &pk
	}
	return t, nil
}

// GetByMint retrieves a token by its mint address.
func (s *TokenStore) GetByMint(ctx context.Context, mint solana.PublicKey) (domain.Token, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+tokenCols+` FROM tokens WHERE mint = $1`, mint.String())
	t, err := scanToken(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Token{}, domain.ErrNotFound
		}
		return domain.Token{}, fmt.Errorf("postgres: get token %s: %w", mint, err)
	}
	return t, nil
}

// ListTradable returns all tokens currently flagged tradable.
func (s *TokenStore) ListTradable(ctx context.Context) ([]domain.Token, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tokenCols+` FROM tokens WHERE tradable ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tradable tokens: %w", err)
	}
	defer rows.Close()

	var tokens []domain.Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan tradable token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list tradable tokens rows: %w", err)
	}
	return tokens, nil
}

// SetTradable flips the tradable flag for a mint.
func (s *TokenStore) SetTradable(ctx context.Context, mint solana.PublicKey, tradable bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tokens SET tradable = $2, updated_at = NOW() WHERE mint = $1`,
		mint.String(), tradable)
	if err != nil {
		return fmt.Errorf("postgres: set tradable %s: %w", mint, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetATA records the operator's associated token account for a mint.
func (s *TokenStore) SetATA(ctx context.Context, mint, ata solana.PublicKey) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tokens SET ata = $2, updated_at = NOW() WHERE mint = $1`,
		mint.String(), ata.String())
	if err != nil {
		return fmt.Errorf("postgres: set ata %s: %w", mint, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ResetTradable re-flags every token tradable and returns the number touched.
func (s *TokenStore) ResetTradable(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tokens SET tradable = TRUE, updated_at = NOW() WHERE NOT tradable`)
	if err != nil {
		return 0, fmt.Errorf("postgres: reset tradable: %w", err)
	}
	return tag.RowsAffected(), nil
}
