package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/redis/go-redis/v9"

	"github.com/quantfold/dexarb/internal/domain"
)

const blockhashKey = "dexarb:blockhash"

// BlockhashCache implements domain.BlockhashCache with a single SETEX'd key.
// The poller refreshes it faster than the TTL; a missing key therefore means
// the poller is down and dispatch must not proceed on a guess.
type BlockhashCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewBlockhashCache creates a BlockhashCache backed by the given Client.
func NewBlockhashCache(c *Client, ttl time.Duration) *BlockhashCache {
	return &BlockhashCache{rdb: c.Underlying(), ttl: ttl}
}

// Set stores the hash and the slot it was fetched at.
func (bc *BlockhashCache) Set(ctx context.Context, hash solana.Hash, slot uint64) error {
	val := hash.String() + ":" + strconv.FormatUint(slot, 10)
	if err := bc.rdb.Set(ctx, blockhashKey, val, bc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set blockhash: %w", err)
	}
	return nil
}

// Get returns the cached blockhash and slot, or domain.ErrNoBlockhash when
// the key expired.
func (bc *BlockhashCache) Get(ctx context.Context) (solana.Hash, uint64, error) {
	val, err := bc.rdb.Get(ctx, blockhashKey).Result()
	if err != nil {
		if err == redis.Nil {
			return solana.Hash{}, 0, domain.ErrNoBlockhash
		}
		return solana.Hash{}, 0, fmt.Errorf("redis: get blockhash: %w", err)
	}

	hashStr, slotStr, ok := strings.Cut(val, ":")
	if !ok {
		return solana.Hash{}, 0, fmt.Errorf("redis: malformed blockhash entry %q", val)
	}
	hash, err := solana.HashFromBase58(hashStr)
	if err != nil {
		return solana.Hash{}, 0, fmt.Errorf("redis: parse blockhash %q: %w", hashStr, err)
	}
	slot, err := strconv.ParseUint(slotStr, 10, 64)
	if err != nil {
		return solana.Hash{}, 0, fmt.Errorf("redis: parse blockhash slot %q: %w", slotStr, err)
	}
	return hash, slot, nil
}

// Compile-time interface check.
var _ domain.BlockhashCache = (*BlockhashCache)(nil)
