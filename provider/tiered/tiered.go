// Package tiered is a Redis provider with an in-process TinyLFU in front of it
// (go-redis/cache). Reads of hot keys are served locally; writes and deletes go
// to both tiers. Other processes writing the same keys are only observed once
// the local copy expires, so keep LocalTTL short.
package tiered

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/cache/v9"
	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/writebehind/provider"
)

var ErrNilClient = errors.New("tiered provider: nil client")

type Provider struct {
	c           *cache.Cache
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool
	LocalSize   int           // 0 => 10000
	LocalTTL    time.Duration // 0 => 1m
}

func New(cfg Config) (*Provider, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	size := cfg.LocalSize
	if size <= 0 {
		size = 10_000
	}
	ttl := cfg.LocalTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	c := cache.New(&cache.Options{
		Redis:      cfg.Client,
		LocalCache: cache.NewTinyLFU(size, ttl),
	})
	return &Provider{c: c, rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

func (p *Provider) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var b []byte
	err := p.c.Get(ctx, key, &b)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set stores raw bytes; go-redis/cache passes []byte through without msgpack
// framing, so Redis holds exactly value.
func (p *Provider) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	switch {
	case ttl <= 0:
		// cache.Item treats 0 as its 1h default; negative keeps the key without expiry.
		ttl = -1
	case ttl < time.Second:
		// sub-second TTLs are also replaced by the default.
		ttl = time.Second
	}
	err := p.c.Set(&cache.Item{
		Ctx:   ctx,
		Key:   key,
		Value: value,
		TTL:   ttl,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) Del(ctx context.Context, key string) error {
	err := p.c.Delete(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil
	}
	return err
}

func (p *Provider) Close(context.Context) error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
