package writebehind

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	c "github.com/unkn0wn-root/writebehind/codec"
	gen "github.com/unkn0wn-root/writebehind/genstore"
	"github.com/unkn0wn-root/writebehind/internal/queue"
	pr "github.com/unkn0wn-root/writebehind/provider"
)

const (
	defaultWarnInterval = 10 * time.Second
	drainPoll           = 5 * time.Millisecond

	// keyStripes is the number of per-key locks shared by the two consumers
	// when a Sequencer is set.
	keyStripes = 64

	// recordKeyField names the key of a pre-serialized record passed to Write.
	recordKeyField = "key"
)

// writeEntry is fully encoded at enqueue time; it never points back at the
// producer's object.
type writeEntry struct {
	key     string
	payload []byte
	ttl     time.Duration // 0 => no expiry
	gen     uint64        // Sequencer generation at enqueue; 0 without Sequencer
}

type evictEntry struct {
	key string
	gen uint64
}

type cache[B any] struct {
	provider       pr.Provider
	codec          c.Codec[Record]
	registry       *Registry
	binding        B
	log            Logger
	hooks          Hooks
	enabled        bool
	computeSetCost SetCostFunc
	seq            gen.GenStore
	keyMu          *keyLocks // non-nil iff seq is set

	writes    *queue.Queue[writeEntry]
	evictions *queue.Queue[evictEntry]
	guard     *guard

	// stopCh is the shared "keep consuming" flag; closed by Stop.
	stopCh    chan struct{}
	stopOnce  sync.Once
	loops     sync.WaitGroup
	closeOnce sync.Once
}

func newCache[B any](opts Options[B]) (*cache[B], error) {
	if opts.Provider == nil {
		return nil, ErrProviderRequired
	}

	cc := &cache[B]{
		provider: opts.Provider,
		registry: opts.Registry.clone(),
		binding:  opts.Binding,
		enabled:  !opts.Disabled,
		seq:      opts.Sequencer,
		stopCh:   make(chan struct{}),
	}
	if cc.seq != nil {
		cc.keyMu = new(keyLocks)
	}

	// defaults
	cc.codec = coalesce[c.Codec[Record]](opts.Codec, c.JSON[Record]{})
	cc.log = coalesce[Logger](opts.Logger, NopLogger{})
	cc.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	if opts.ComputeSetCost != nil {
		cc.computeSetCost = opts.ComputeSetCost
	} else {
		cc.computeSetCost = func(string, []byte) int64 { return 1 }
	}

	overflow := queue.Reject
	if opts.Overflow == OverflowDropOldest {
		overflow = queue.DropOldest
	}
	cc.writes = queue.New[writeEntry](opts.MaxQueueDepth, overflow)
	cc.evictions = queue.New[evictEntry](opts.MaxQueueDepth, overflow)
	cc.guard = newGuard(cc.log, cc.hooks, coalesce(opts.WarnInterval, defaultWarnInterval))

	return cc, nil
}

func (cc *cache[B]) Enabled() bool { return cc.enabled }
func (cc *cache[B]) Binding() B    { return cc.binding }

// Key returns the store key of e, honoring custom registered tags.
func (cc *cache[B]) Key(e Entity) string { return cc.registry.Key(e) }

// Write enqueues v for a store SET. v is either a registered Entity or a
// Record carrying its store key in a string "key" field (the field is not
// stored). ttl <= 0 means no expiry.
func (cc *cache[B]) Write(v any, ttl time.Duration) error {
	if !cc.enabled {
		return nil
	}
	cc.guard.produced(qWrites)

	var (
		key string
		rec Record
		err error
	)
	if r, ok := v.(Record); ok {
		key, rec, err = splitRecordKey(r)
	} else {
		key, rec, err = cc.registry.Resolve(v)
	}
	if err != nil {
		return err
	}
	return cc.enqueueWrite(key, rec, ttl)
}

// WriteRecord enqueues rec under key.
func (cc *cache[B]) WriteRecord(key string, rec Record, ttl time.Duration) error {
	if !cc.enabled {
		return nil
	}
	cc.guard.produced(qWrites)
	if key == "" {
		return ErrEmptyKey
	}
	return cc.enqueueWrite(key, rec, ttl)
}

func (cc *cache[B]) enqueueWrite(key string, rec Record, ttl time.Duration) error {
	payload, err := cc.codec.Encode(rec)
	if err != nil {
		return fmt.Errorf("writebehind: encode %q: %w", key, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	g, err := cc.bump(key)
	if err != nil {
		return err
	}
	dropped, didDrop, err := cc.writes.Push(writeEntry{key: key, payload: payload, ttl: ttl, gen: g})
	return cc.pushed(QueueWrites, key, dropped.key, didDrop, err)
}

// Evict enqueues a store DELETE for a key string or an Entity.
func (cc *cache[B]) Evict(v any) error {
	if !cc.enabled {
		return nil
	}
	cc.guard.produced(qEvictions)

	var key string
	switch t := v.(type) {
	case string:
		key = t
	case Entity:
		key = cc.registry.Key(t)
	default:
		return &UnsupportedVariantError{Variant: fmt.Sprintf("%T", v)}
	}
	if key == "" {
		return ErrEmptyKey
	}
	g, err := cc.bump(key)
	if err != nil {
		return err
	}
	dropped, didDrop, err := cc.evictions.Push(evictEntry{key: key, gen: g})
	return cc.pushed(QueueEvictions, key, dropped.key, didDrop, err)
}

func (cc *cache[B]) pushed(q, key, droppedKey string, didDrop bool, err error) error {
	if errors.Is(err, queue.ErrFull) {
		cc.hooks.QueueOverflow(q, key, false)
		return ErrQueueFull
	}
	if err != nil {
		return err
	}
	if didDrop {
		cc.hooks.QueueOverflow(q, droppedKey, true)
		cc.log.Warn("queue full; dropped oldest entry", Fields{"queue": q, "key": droppedKey})
	}
	return nil
}

func (cc *cache[B]) bump(key string) (uint64, error) {
	if cc.seq == nil {
		return 0, nil
	}
	g, err := cc.seq.Bump(context.Background(), key)
	if err != nil {
		return 0, fmt.Errorf("writebehind: sequence %q: %w", key, err)
	}
	return g, nil
}

// RunWriter drains the write queue into the store until ctx is done or Stop
// is called. Start exactly one per cache.
func (cc *cache[B]) RunWriter(ctx context.Context) error {
	if !cc.enabled {
		return nil
	}
	ctx, end := cc.begin(ctx, qWrites)
	defer end()

	for cc.consuming(ctx) {
		e, err := cc.writes.Pop(ctx)
		if err != nil {
			break
		}
		// in-flight store calls finish even if ctx is canceled meanwhile
		cc.applyWrite(context.WithoutCancel(ctx), e)
		cc.writes.Done()
	}
	return nil
}

// RunEvictor drains the eviction queue into the store until ctx is done or
// Stop is called. Start exactly one per cache.
func (cc *cache[B]) RunEvictor(ctx context.Context) error {
	if !cc.enabled {
		return nil
	}
	ctx, end := cc.begin(ctx, qEvictions)
	defer end()

	for cc.consuming(ctx) {
		e, err := cc.evictions.Pop(ctx)
		if err != nil {
			break
		}
		cc.applyEvict(context.WithoutCancel(ctx), e)
		cc.evictions.Done()
	}
	return nil
}

// Run starts both consumers and returns when both have stopped.
func (cc *cache[B]) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return cc.RunWriter(ctx) })
	g.Go(func() error { return cc.RunEvictor(ctx) })
	return g.Wait()
}

// Stop clears the keep-consuming flag. In-flight store calls complete;
// queued entries are abandoned. A stopped cache cannot be restarted.
func (cc *cache[B]) Stop() {
	cc.stopOnce.Do(func() { close(cc.stopCh) })
}

// begin registers a consumer loop and returns a ctx that Stop also cancels.
func (cc *cache[B]) begin(ctx context.Context, q int) (context.Context, func()) {
	cc.loops.Add(1)
	done := cc.guard.started(q)
	cc.log.Debug("consumer started", Fields{"queue": queueNames[q]})

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-cc.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		cancel()
		done()
		cc.log.Debug("consumer stopped", Fields{"queue": queueNames[q]})
		cc.loops.Done()
	}
}

func (cc *cache[B]) consuming(ctx context.Context) bool {
	select {
	case <-cc.stopCh:
		return false
	default:
		return ctx.Err() == nil
	}
}

func (cc *cache[B]) applyWrite(ctx context.Context, e writeEntry) {
	defer cc.lockKey(e.key)()
	if cc.superseded(ctx, QueueWrites, e.key, e.gen) {
		return
	}
	ok, err := guarded(func() (bool, error) {
		return cc.provider.Set(ctx, e.key, e.payload, cc.computeSetCost(e.key, e.payload), e.ttl)
	})
	if err != nil {
		cc.log.Error("store SET failed; entry dropped", Fields{"key": e.key, "err": err})
		cc.hooks.StoreError(QueueWrites, e.key, err)
		return
	}
	if !ok {
		cc.log.Debug("store rejected SET (pressure)", Fields{"key": e.key})
		cc.hooks.StoreRejected(e.key)
		return
	}
	cc.hooks.Applied(QueueWrites, e.key)
}

func (cc *cache[B]) applyEvict(ctx context.Context, e evictEntry) {
	defer cc.lockKey(e.key)()
	if cc.superseded(ctx, QueueEvictions, e.key, e.gen) {
		return
	}
	_, err := guarded(func() (bool, error) {
		return true, cc.provider.Del(ctx, e.key)
	})
	if err != nil {
		cc.log.Error("store DELETE failed; entry dropped", Fields{"key": e.key, "err": err})
		cc.hooks.StoreError(QueueEvictions, e.key, err)
		return
	}
	cc.hooks.Applied(QueueEvictions, e.key)
}

// keyLocks serializes the generation check and the store call for a key
// across both consumers, so an older SET still in flight finishes before a
// newer DELETE for the same key is checked (and vice versa).
type keyLocks [keyStripes]sync.Mutex

func (cc *cache[B]) lockKey(key string) (unlock func()) {
	if cc.keyMu == nil {
		return func() {}
	}
	m := &cc.keyMu[xxhash.Sum64String(key)%keyStripes]
	m.Lock()
	return m.Unlock
}

// superseded reports whether a later Write/Evict for key was enqueued after
// the entry carrying generation g. Always false without a Sequencer.
func (cc *cache[B]) superseded(ctx context.Context, q, key string, g uint64) bool {
	if cc.seq == nil {
		return false
	}
	cur, err := cc.seq.Snapshot(ctx, key)
	if err != nil {
		// can't tell; applying is the pre-Sequencer behaviour
		cc.log.Warn("sequence snapshot failed; applying entry", Fields{"queue": q, "key": key, "err": err})
		return false
	}
	if cur == g {
		return false
	}
	cc.log.Debug("entry superseded by a later operation", Fields{"queue": q, "key": key, "gen": g, "current": cur})
	cc.hooks.Superseded(q, key)
	return true
}

// guarded turns a provider panic into an error so one bad call cannot kill a
// consumer loop.
func guarded(fn func() (bool, error)) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("writebehind: provider panic: %v", r)
		}
	}()
	return fn()
}

func (cc *cache[B]) Running() (bool, bool) {
	return cc.guard.running(qWrites), cc.guard.running(qEvictions)
}

func (cc *cache[B]) Pending() (int, int) {
	return cc.writes.Pending(), cc.evictions.Pending()
}

func (cc *cache[B]) Drain(ctx context.Context) error {
	t := time.NewTicker(drainPoll)
	defer t.Stop()
	for {
		if w, e := cc.Pending(); w == 0 && e == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// GetRecord reads key straight from the store. A missing (or expired) key is
// (nil, false, nil). Bytes that do not decode to a record (including a
// JSON null) yield a *CorruptPayloadError.
func (cc *cache[B]) GetRecord(ctx context.Context, key string) (Record, bool, error) {
	if !cc.enabled {
		return nil, false, nil
	}
	raw, ok, err := cc.provider.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("writebehind: get %q: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	rec, err := cc.codec.Decode(raw)
	if err == nil && rec == nil {
		err = errNoRecord
	}
	if err != nil {
		cc.hooks.CorruptPayload(key, err)
		return nil, false, &CorruptPayloadError{Key: key, Err: err}
	}
	return rec, true, nil
}

func (cc *cache[B]) Close(ctx context.Context) error {
	var err error
	cc.closeOnce.Do(func() {
		cc.Stop()

		waited := make(chan struct{})
		go func() {
			cc.loops.Wait()
			close(waited)
		}()
		select {
		case <-waited:
		case <-ctx.Done():
			cc.log.Warn("close: consumers did not stop in time", nil)
		}

		// sequencer first (best effort), then the store
		if cc.seq != nil {
			_ = cc.seq.Close(ctx)
		}
		err = cc.provider.Close(ctx)
	})
	return err
}

func splitRecordKey(r Record) (string, Record, error) {
	key, ok := r[recordKeyField].(string)
	if !ok || key == "" {
		return "", nil, ErrMissingKey
	}
	rec := make(Record, len(r))
	for k, v := range r {
		if k != recordKeyField {
			rec[k] = v
		}
	}
	return key, rec, nil
}

var _ Cache[struct{}] = (*cache[struct{}])(nil)
