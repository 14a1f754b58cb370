package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/quantfold/dexarb/internal/domain"
)

// Channel names shared between the engine's processes.
const (
	// ReloadChannel carries {"reload":0|1} flags after the route set changes.
	ReloadChannel = "dexarb:routes:reload"
	// AccountChannel relays parsed reserve updates to split-process readers.
	AccountChannel = "dexarb:reserves:accounts"
)

// SignalBus implements domain.SignalBus using Redis Pub/Sub.
type SignalBus struct {
	rdb *redis.Client
}

// NewSignalBus creates a SignalBus backed by the given Client.
func NewSignalBus(c *Client) *SignalBus {
	return &SignalBus{rdb: c.Underlying()}
}

// Publish sends a raw byte payload to a Redis Pub/Sub channel.
func (sb *SignalBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := sb.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe creates a Redis Pub/Sub subscription and returns a read-only
// channel that emits raw byte payloads. The subscription is automatically
// closed when the context is cancelled; the returned channel is closed at
// that point as well.
func (sb *SignalBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	var pubsub *redis.PubSub
	if hasPattern(channel) {
		pubsub = sb.rdb.PSubscribe(ctx, channel)
	} else {
		pubsub = sb.rdb.Subscribe(ctx, channel)
	}

	// Verify the subscription is established by receiving the confirmation.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", channel, err)
	}

	out := make(chan []byte, 128)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// hasPattern returns true when the Redis channel includes glob-style
// wildcards, in which case PSubscribe must be used instead of Subscribe.
func hasPattern(channel string) bool {
	return strings.ContainsAny(channel, "*?[")
}

// PublishReload broadcasts a reload flag on the coordination channel.
func (sb *SignalBus) PublishReload(ctx context.Context, reload bool) error {
	flag := domain.ReloadFlag{}
	if reload {
		flag.Reload = 1
	}
	payload, err := json.Marshal(flag)
	if err != nil {
		return fmt.Errorf("redis: marshal reload flag: %w", err)
	}
	return sb.Publish(ctx, ReloadChannel, payload)
}

// WatchReload subscribes to the coordination channel and emits the decoded
// reload flag for every message. Malformed payloads are dropped.
func (sb *SignalBus) WatchReload(ctx context.Context) (<-chan bool, error) {
	raw, err := sb.Subscribe(ctx, ReloadChannel)
	if err != nil {
		return nil, err
	}

	out := make(chan bool, 8)
	go func() {
		defer close(out)
		for payload := range raw {
			var flag domain.ReloadFlag
			if err := json.Unmarshal(payload, &flag); err != nil {
				continue
			}
			select {
			case out <- flag.Reload == 1:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// PublishAccountUpdate relays a parsed reserve update for other processes.
func (sb *SignalBus) PublishAccountUpdate(ctx context.Context, upd domain.AccountUpdate) error {
	payload, err := json.Marshal(upd)
	if err != nil {
		return fmt.Errorf("redis: marshal account update: %w", err)
	}
	return sb.Publish(ctx, AccountChannel, payload)
}

// Compile-time interface check.
var _ domain.SignalBus = (*SignalBus)(nil)
