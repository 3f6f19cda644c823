package tiered

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestTiered(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	p, err := New(Config{Client: goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), CloseClient: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(ctx) })

	_, ok, err := p.Get(ctx, "GUILD:7")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = p.Set(ctx, "GUILD:7", []byte(`{"id":"7"}`), 1, 0)
	require.NoError(t, err)
	require.True(t, ok)

	// redis holds the raw payload with no expiry
	raw, err := mr.Get("GUILD:7")
	require.NoError(t, err)
	require.Equal(t, `{"id":"7"}`, raw)
	require.Equal(t, time.Duration(0), mr.TTL("GUILD:7"))

	b, ok, err := p.Get(ctx, "GUILD:7")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"id":"7"}`, string(b))

	_, err = p.Set(ctx, "GUILD:8", []byte("x"), 1, 45*time.Second)
	require.NoError(t, err)
	require.Equal(t, 45*time.Second, mr.TTL("GUILD:8"))

	require.NoError(t, p.Del(ctx, "GUILD:7"))
	require.NoError(t, p.Del(ctx, "GUILD:7"))
	require.False(t, mr.Exists("GUILD:7"))
	_, ok, err = p.Get(ctx, "GUILD:7")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNilClient(t *testing.T) {
	_, err := New(Config{})
	require.ErrorIs(t, err, ErrNilClient)
}
