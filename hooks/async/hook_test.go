package asynchook

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/unkn0wn-root/writebehind"
)

type counting struct {
	writebehind.NopHooks
	mu      sync.Mutex
	applied []string
	block   chan struct{}
}

func (c *counting) Applied(q, k string) {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	c.applied = append(c.applied, q+"/"+k)
	c.mu.Unlock()
}

func TestForwardsAndFlushesOnClose(t *testing.T) {
	inner := &counting{}
	h := New(inner, 1, 16)
	h.Applied(writebehind.QueueWrites, "GUILD:1")
	h.Applied(writebehind.QueueEvictions, "ROLE:2")
	h.Close()

	require.Equal(t, []string{"writes/GUILD:1", "evictions/ROLE:2"}, inner.applied)
	require.Zero(t, h.Dropped())
}

func TestDropsWhenFull(t *testing.T) {
	inner := &counting{block: make(chan struct{})}
	h := New(inner, 1, 1)

	// first event occupies the worker, second fills the buffer
	h.Applied(writebehind.QueueWrites, "A:1")
	require.Eventually(t, func() bool { return len(h.q) == 0 }, time.Second, time.Millisecond)
	h.Applied(writebehind.QueueWrites, "A:2")
	h.Applied(writebehind.QueueWrites, "A:3")

	require.Equal(t, uint64(1), h.Dropped())
	close(inner.block)
	h.Close()
	require.Len(t, inner.applied, 2)
}

func TestEventsAfterCloseAreDropped(t *testing.T) {
	inner := &counting{}
	h := New(inner, 1, 4)
	h.Close()

	require.NotPanics(t, func() {
		h.Applied(writebehind.QueueWrites, "A:1")
		h.StoreError(writebehind.QueueEvictions, "A:2", nil)
	})
	require.Equal(t, uint64(2), h.Dropped())
	require.Empty(t, inner.applied)
	h.Close() // idempotent
}
