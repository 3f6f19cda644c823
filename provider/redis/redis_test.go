package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	p, err := New(Config{Client: goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), CloseClient: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p, mr
}

func TestNilClient(t *testing.T) {
	_, err := New(Config{})
	require.ErrorIs(t, err, ErrNilClient)
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	p, _ := newTestProvider(t)

	_, ok, err := p.Get(ctx, "GUILD:1")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = p.Set(ctx, "GUILD:1", []byte(`{"name":"a"}`), 1, 0)
	require.NoError(t, err)
	require.True(t, ok)

	b, ok, err := p.Get(ctx, "GUILD:1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"name":"a"}`, string(b))

	require.NoError(t, p.Del(ctx, "GUILD:1"))
	require.NoError(t, p.Del(ctx, "GUILD:1")) // missing key is fine
	_, ok, err = p.Get(ctx, "GUILD:1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTTL(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestProvider(t)

	_, err := p.Set(ctx, "ROLE:1", []byte("x"), 1, 30*time.Second)
	require.NoError(t, err)
	_, err = p.Set(ctx, "ROLE:2", []byte("y"), 1, 0)
	require.NoError(t, err)

	require.Equal(t, 30*time.Second, mr.TTL("ROLE:1"))
	require.Equal(t, time.Duration(0), mr.TTL("ROLE:2"))

	mr.FastForward(31 * time.Second)
	_, ok, err := p.Get(ctx, "ROLE:1")
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = p.Get(ctx, "ROLE:2")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDial(t *testing.T) {
	mr := miniredis.RunT(t)
	p, err := Dial(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	require.NoError(t, p.Close(context.Background()))
	require.NoError(t, p.Close(context.Background()))
}
