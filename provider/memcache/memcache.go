package memcache

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	pr "github.com/unkn0wn-root/writebehind/provider"
)

var ErrNoServers = errors.New("memcache provider: no servers")

// Provider stores entries in memcached. Memcached expirations are whole
// seconds, so sub-second TTLs are rounded up to one second.
type Provider struct {
	mc *memcache.Client
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	Servers      []string
	Timeout      time.Duration // 0 => gomemcache default
	MaxIdleConns int           // 0 => gomemcache default
}

func New(cfg Config) (*Provider, error) {
	if len(cfg.Servers) == 0 {
		return nil, ErrNoServers
	}
	mc := memcache.New(cfg.Servers...)
	if cfg.Timeout > 0 {
		mc.Timeout = cfg.Timeout
	}
	if cfg.MaxIdleConns > 0 {
		mc.MaxIdleConns = cfg.MaxIdleConns
	}
	return &Provider{mc: mc}, nil
}

// gomemcache has no context support; ctx is ignored and the client's own
// Timeout bounds every call.
func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	it, err := p.mc.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return it.Value, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	err := p.mc.Set(&memcache.Item{Key: key, Value: value, Expiration: expiration(ttl)})
	if errors.Is(err, memcache.ErrNotStored) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	err := p.mc.Delete(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return err
}

func (p *Provider) Close(_ context.Context) error {
	return p.mc.Close()
}

// expiration converts ttl to memcached's relative-seconds form.
// Values above 30 days are interpreted by memcached as unix timestamps, so
// long TTLs are sent as absolute times.
func expiration(ttl time.Duration) int32 {
	if ttl <= 0 {
		return 0
	}
	secs := int64(math.Ceil(ttl.Seconds()))
	const relativeMax = 30 * 24 * 60 * 60
	if secs > relativeMax {
		abs := time.Now().Unix() + secs
		if abs > math.MaxInt32 {
			return math.MaxInt32
		}
		return int32(abs)
	}
	return int32(secs)
}
