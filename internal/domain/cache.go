package domain

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
)

// BlockhashCache holds the recent blockhash maintained by the poller so
// transaction builders never block on an RPC round trip.
type BlockhashCache interface {
	Set(ctx context.Context, hash solana.Hash, slot uint64) error
	Get(ctx context.Context) (solana.Hash, uint64, error)
}

// BinCache shares bin-window snapshots between the refresher process and
// the evaluator.
type BinCache interface {
	SetWindow(ctx context.Context, window BinWindow) error
	GetWindow(ctx context.Context, pool solana.PublicKey) (BinWindow, error)
}

// ReloadFlag is the payload carried on the coordination channel. A set
// flag tells listeners the route set changed and caches must rebuild.
type ReloadFlag struct {
	Reload int `json:"reload"`
}

// SignalBus provides the pub/sub coordination between processes: the
// reload channel plus the account-update relay.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	PublishReload(ctx context.Context, reload bool) error
	WatchReload(ctx context.Context) (<-chan bool, error)
	PublishAccountUpdate(ctx context.Context, upd AccountUpdate) error
}

// RateLimiter provides distributed rate limiting for venue HTTP APIs.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string) error
}

// LockManager provides distributed locking, used to keep concurrent route
// rebuilds single-writer across processes.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}
