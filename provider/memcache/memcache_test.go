package memcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNoServers(t *testing.T) {
	_, err := New(Config{})
	require.ErrorIs(t, err, ErrNoServers)
}

func TestExpiration(t *testing.T) {
	require.Equal(t, int32(0), expiration(0))
	require.Equal(t, int32(0), expiration(-time.Second))
	require.Equal(t, int32(1), expiration(10*time.Millisecond))
	require.Equal(t, int32(90), expiration(90*time.Second))
	require.Equal(t, int32(30*24*60*60), expiration(30*24*time.Hour))

	long := 60 * 24 * time.Hour
	got := int64(expiration(long))
	want := time.Now().Unix() + int64(long.Seconds())
	require.InDelta(t, want, got, 2)
}
