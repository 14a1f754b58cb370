package domain

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
)

// TokenStore persists tradable mint metadata.
type TokenStore interface {
	Upsert(ctx context.Context, token Token) error
	GetByMint(ctx context.Context, mint solana.PublicKey) (Token, error)
	ListTradable(ctx context.Context) ([]Token, error)
	SetTradable(ctx context.Context, mint solana.PublicKey, tradable bool) error
	SetATA(ctx context.Context, mint, ata solana.PublicKey) error
	ResetTradable(ctx context.Context) (int64, error)
}

// PoolStore persists discovered pools across both venues.
type PoolStore interface {
	Upsert(ctx context.Context, pool Pool) error
	UpsertBatch(ctx context.Context, pools []Pool) error
	GetByAddress(ctx context.Context, addr solana.PublicKey) (Pool, error)
	ListByMint(ctx context.Context, mint solana.PublicKey) ([]Pool, error)
	Count(ctx context.Context) (int64, error)
}

// RouteStore persists the route set the engine trades.
type RouteStore interface {
	Upsert(ctx context.Context, route Route) error
	GetByID(ctx context.Context, id string) (Route, error)
	GetByRaydiumPool(ctx context.Context, pool solana.PublicKey) (Route, error)
	ListEnabled(ctx context.Context) ([]Route, error)
	SetStatus(ctx context.Context, id string, status RouteStatus) error
	SetLut(ctx context.Context, id string, lut solana.PublicKey) error
	ReviveSkipped(ctx context.Context) (int64, error)
	ClearLuts(ctx context.Context) (int64, error)
}

// LutStore persists materialized lookup tables.
type LutStore interface {
	Upsert(ctx context.Context, lut LookupTable) error
	GetByRoute(ctx context.Context, routeID string) (LookupTable, error)
}

// TradeStore persists dispatch records.
type TradeStore interface {
	Insert(ctx context.Context, trade Trade) error
	ListBefore(ctx context.Context, before time.Time, limit int) ([]Trade, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
