// Package asynchook moves Hooks calls off the producer and consumer paths.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    NotRunningEvery: 100, // sample: ~every 100th enqueue without a consumer
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	cache, _ := writebehind.New(writebehind.Options[struct{}]{
//	    Provider: provider,
//	    Hooks:    hooks, // or `raw` if you don't want async
//	})
//
// Events are dropped when the buffer is full; Dropped reports how many.
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/writebehind"
)

type Hooks struct {
	inner   writebehind.Hooks
	q       chan func()
	wg      sync.WaitGroup
	mu      sync.RWMutex // guards closed and sends on q
	closed  bool
	dropped atomic.Uint64
}

var _ writebehind.Hooks = (*Hooks)(nil)

func New(inner writebehind.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close stops accepting events and waits for queued ones to run. Events
// arriving afterwards are counted as dropped.
func (h *Hooks) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.q)
	h.mu.Unlock()
	h.wg.Wait()
}

func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) ConsumerNotRunning(q string) { h.try(func() { h.inner.ConsumerNotRunning(q) }) }
func (h *Hooks) ConsumerDuplicate(q string)  { h.try(func() { h.inner.ConsumerDuplicate(q) }) }
func (h *Hooks) QueueOverflow(q, k string, dropped bool) {
	h.try(func() { h.inner.QueueOverflow(q, k, dropped) })
}
func (h *Hooks) Applied(q, k string) { h.try(func() { h.inner.Applied(q, k) }) }
func (h *Hooks) StoreError(q, k string, err error) {
	h.try(func() { h.inner.StoreError(q, k, err) })
}
func (h *Hooks) StoreRejected(k string)             { h.try(func() { h.inner.StoreRejected(k) }) }
func (h *Hooks) Superseded(q, k string)             { h.try(func() { h.inner.Superseded(q, k) }) }
func (h *Hooks) CorruptPayload(k string, err error) { h.try(func() { h.inner.CorruptPayload(k, err) }) }
