package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pkordes/wanderlust/backend/internal/repo"
)

// RedisBus publishes changes on a Redis pub/sub channel so every API instance
// sharing the database refreshes its own subscribers.
type RedisBus struct {
	log     *slog.Logger
	rdb     *goredis.Client
	channel string
}

// NewRedisBus connects to addr and verifies the connection with PING.
func NewRedisBus(ctx context.Context, addr, channel string, log *slog.Logger) (*RedisBus, error) {
	if addr == "" {
		return nil, fmt.Errorf("realtime.NewRedisBus: missing redis address")
	}
	if channel == "" {
		channel = "record-changes"
	}
	if log == nil {
		log = slog.Default()
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("realtime.NewRedisBus: ping: %w", err)
	}

	return &RedisBus{
		log:     log.With("component", "redis_bus"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *RedisBus) Publish(ctx context.Context, c repo.Change) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("realtime.RedisBus.Publish: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("realtime.RedisBus.Publish: %w", err)
	}
	return nil
}

func (b *RedisBus) StartForwarder(ctx context.Context, onChange func(repo.Change)) error {
	if onChange == nil {
		return fmt.Errorf("realtime.RedisBus.StartForwarder: onChange callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)

	// Wait for the subscription confirmation so no change published after
	// StartForwarder returns is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("realtime.RedisBus.StartForwarder: subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var c repo.Change
				if err := json.Unmarshal([]byte(m.Payload), &c); err != nil {
					b.log.Warn("bad change payload", "error", err)
					continue
				}
				onChange(c)
			}
		}
	}()

	return nil
}

func (b *RedisBus) Close() error {
	return b.rdb.Close()
}

var _ Bus = (*RedisBus)(nil)
