package ristretto

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInvalidConfig(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	p, err := New(Config{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(ctx) })

	ok, err := p.Set(ctx, "STICKER:9", []byte("v"), 1, 0)
	require.NoError(t, err)
	require.True(t, ok)
	p.Wait()

	b, ok, err := p.Get(ctx, "STICKER:9")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), b)

	require.NoError(t, p.Del(ctx, "STICKER:9"))
	_, ok, err = p.Get(ctx, "STICKER:9")
	require.NoError(t, err)
	require.False(t, ok)
}
