package writebehind

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// guard tracks how many consumers are draining each queue. It only reports:
// producers keep queueing when nothing drains, and a second consumer still
// runs. Hooks see every occurrence; log lines are throttled per queue.
type guard struct {
	log   Logger
	hooks Hooks

	writers  atomic.Int32
	evictors atomic.Int32
	idleWarn [2]rate.Sometimes
	dupWarn  [2]rate.Sometimes
}

const (
	qWrites = iota
	qEvictions
)

var queueNames = [2]string{QueueWrites, QueueEvictions}

func newGuard(log Logger, hooks Hooks, interval time.Duration) *guard {
	g := &guard{log: log, hooks: hooks}
	for i := range g.idleWarn {
		g.idleWarn[i].Interval = interval
		g.dupWarn[i].Interval = interval
	}
	return g
}

func (g *guard) counter(q int) *atomic.Int32 {
	if q == qWrites {
		return &g.writers
	}
	return &g.evictors
}

func (g *guard) running(q int) bool { return g.counter(q).Load() > 0 }

// produced is called at the top of every producer.
func (g *guard) produced(q int) {
	if g.running(q) {
		return
	}
	name := queueNames[q]
	g.hooks.ConsumerNotRunning(name)
	g.idleWarn[q].Do(func() {
		g.log.Warn("no consumer is running; entries will queue until one starts",
			Fields{"queue": name})
	})
}

// started is called when a consumer loop begins. The returned func must be
// called when it exits.
func (g *guard) started(q int) (done func()) {
	c := g.counter(q)
	if n := c.Add(1); n > 1 {
		name := queueNames[q]
		g.hooks.ConsumerDuplicate(name)
		g.dupWarn[q].Do(func() {
			g.log.Warn("consumer started while another is already running; FIFO per key is no longer guaranteed",
				Fields{"queue": name, "running": n})
		})
	}
	return func() { c.Add(-1) }
}
