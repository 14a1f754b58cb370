package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/redis/go-redis/v9"

	"github.com/quantfold/dexarb/internal/domain"
)

// BinCache implements domain.BinCache using per-pool SETEX'd JSON blobs. The
// short TTL makes a stale window read impossible: either the refresher wrote
// recently or the key is gone.
type BinCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewBinCache creates a BinCache backed by the given Client.
func NewBinCache(c *Client, ttl time.Duration) *BinCache {
	return &BinCache{rdb: c.Underlying(), ttl: ttl}
}

func binKey(pool solana.PublicKey) string {
	return "dexarb:bins:" + pool.String()
}

// SetWindow stores a bin-window snapshot for a pool.
func (bc *BinCache) SetWindow(ctx context.Context, window domain.BinWindow) error {
	payload, err := json.Marshal(window)
	if err != nil {
		return fmt.Errorf("redis: marshal bin window %s: %w", window.Pool, err)
	}
	if err := bc.rdb.Set(ctx, binKey(window.Pool), payload, bc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set bin window %s: %w", window.Pool, err)
	}
	return nil
}

// GetWindow returns the cached bin window for a pool, or domain.ErrNotFound
// when no fresh snapshot exists.
func (bc *BinCache) GetWindow(ctx context.Context, pool solana.PublicKey) (domain.BinWindow, error) {
	payload, err := bc.rdb.Get(ctx, binKey(pool)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return domain.BinWindow{}, domain.ErrNotFound
		}
		return domain.BinWindow{}, fmt.Errorf("redis: get bin window %s: %w", pool, err)
	}

	var window domain.BinWindow
	if err := json.Unmarshal(payload, &window); err != nil {
		return domain.BinWindow{}, fmt.Errorf("redis: unmarshal bin window %s: %w", pool, err)
	}
	return window, nil
}

// Compile-time interface check.
var _ domain.BinCache = (*BinCache)(nil)
