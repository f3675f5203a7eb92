// Package redisstore keeps drafts in Redis so several service instances
// can edit the same draft.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	maintnotifications "github.com/redis/go-redis/v9/maintnotifications"

	"github.com/mohammed-shakir/gridform/internal/core/observability"
	"github.com/mohammed-shakir/gridform/internal/draft"
)

const keyPrefix = "gridform:draft:"

func Key(id string) string { return keyPrefix + id }

type Option func(*redis.Options)

func WithPoolSize(n int) Option {
	return func(o *redis.Options) { o.PoolSize = n }
}

func WithDialTimeout(d time.Duration) Option {
	return func(o *redis.Options) { o.DialTimeout = d }
}

func WithReadTimeout(d time.Duration) Option {
	return func(o *redis.Options) { o.ReadTimeout = d }
}

func WithWriteTimeout(d time.Duration) Option {
	return func(o *redis.Options) { o.WriteTimeout = d }
}

type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ draft.Store = (*Client)(nil)

// New connects and pings. Drafts expire ttl after their last edit; zero
// keeps them forever.
func New(ctx context.Context, addr string, ttl time.Duration, opts ...Option) (*Client, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}

	ro := &redis.Options{
		Addr:         addr,
		PoolSize:     16,
		MinIdleConns: 2,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	}
	for _, f := range opts {
		f(ro)
	}

	c := &Client{rdb: redis.NewClient(ro), ttl: ttl}
	if err := c.Ping(ctx); err != nil {
		_ = c.rdb.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) Ping(ctx context.Context) error {
	start := time.Now()
	err := c.rdb.Ping(ctx).Err()
	observability.ObserveStoreOp("redis", "ping", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, id string) (draft.Draft, error) {
	start := time.Now()
	b, err := c.rdb.Get(ctx, Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.ObserveStoreOp("redis", "get", nil, time.Since(start).Seconds())
		return draft.Draft{}, draft.ErrNotFound
	}
	observability.ObserveStoreOp("redis", "get", err, time.Since(start).Seconds())
	if err != nil {
		return draft.Draft{}, fmt.Errorf("redis GET %q: %w", Key(id), err)
	}
	return draft.Decode(b)
}

func (c *Client) Put(ctx context.Context, d draft.Draft) error {
	b, err := draft.Encode(d)
	if err != nil {
		return err
	}
	start := time.Now()
	err = c.rdb.Set(ctx, Key(d.ID), b, c.ttl).Err()
	observability.ObserveStoreOp("redis", "put", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("redis SET %q: %w", Key(d.ID), err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := c.rdb.Del(ctx, Key(id)).Err()
	observability.ObserveStoreOp("redis", "del", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("redis DEL %q: %w", Key(id), err)
	}
	return nil
}

func (c *Client) Close() error {
	if err := c.rdb.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}
