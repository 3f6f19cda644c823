package writebehind

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/writebehind/codec"
	gen "github.com/unkn0wn-root/writebehind/genstore"
	pr "github.com/unkn0wn-root/writebehind/provider"
)

// SetCostFunc computes the provider cost of a write (used by cost-aware
// providers such as Ristretto).
type SetCostFunc func(key string, payload []byte) int64

// OverflowPolicy decides what a bounded queue does when it is full.
type OverflowPolicy int

const (
	// OverflowReject makes the producer call fail with ErrQueueFull.
	OverflowReject OverflowPolicy = iota
	// OverflowDropOldest discards the oldest queued entry.
	OverflowDropOldest
)

// Cache is the write-behind API. B is the type of the binding handed to
// reconstructors on the read path (e.g. a live session); use struct{} or any
// when there is none.
type Cache[B any] interface {
	Enabled() bool

	// Producers. They never block and never touch the store.
	Write(v any, ttl time.Duration) error
	WriteRecord(key string, rec Record, ttl time.Duration) error
	Evict(v any) error

	// Consumers. Each loop runs until ctx is done or Stop is called.
	RunWriter(ctx context.Context) error
	RunEvictor(ctx context.Context) error
	Run(ctx context.Context) error
	Stop()
	// Running reports whether a consumer is currently draining each queue.
	Running() (writer, evictor bool)

	// Pending returns queued plus in-flight entries per queue.
	Pending() (writes, evictions int)
	// Drain blocks until both queues are empty and idle, or ctx is done.
	Drain(ctx context.Context) error

	// Read path
	GetRecord(ctx context.Context, key string) (rec Record, ok bool, err error)
	Binding() B
	Key(e Entity) string

	Close(context.Context) error
}

// Options configure a Cache.
// Only Provider is required; others have sensible defaults.
type Options[B any] struct {
	// Required
	Provider pr.Provider

	Codec    c.Codec[Record] // nil => JSON
	Registry *Registry       // nil => records only; copied by New
	Binding  B               // threaded into reconstructors

	Logger         Logger        // if nil, NopLogger is used
	Hooks          Hooks         // if nil, NopHooks is used
	WarnInterval   time.Duration // liveness warning throttle per queue; 0 => 10s
	ComputeSetCost SetCostFunc   // default 1
	Disabled       bool          // producers no-op, reads miss

	MaxQueueDepth int            // per queue; 0 => unbounded
	Overflow      OverflowPolicy // used when MaxQueueDepth > 0

	// Sequencer orders writes and evictions for the same key across the two
	// queues: only the most recently enqueued operation per key is applied.
	// nil => queues are independent.
	Sequencer gen.GenStore
}

func New[B any](opts Options[B]) (Cache[B], error) {
	cc, err := newCache[B](opts)
	if err != nil {
		return nil, err
	}
	return cc, nil
}
