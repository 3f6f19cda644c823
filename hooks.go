package writebehind

// Queue names reported to Hooks and logs.
const (
	QueueWrites    = "writes"
	QueueEvictions = "evictions"
)

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// Producers and consumers call them on hot paths.
type Hooks interface {
	// A producer enqueued while no consumer was draining the queue.
	ConsumerNotRunning(queue string)

	// A consumer was started while another one was already draining the queue.
	ConsumerDuplicate(queue string)

	// A bounded queue was at capacity. dropped=true means the oldest entry
	// was discarded to make room; otherwise the new entry was rejected.
	QueueOverflow(queue, key string, dropped bool)

	// The store acknowledged a SET (writes) or DELETE (evictions).
	Applied(queue, key string)

	// Store SET/DELETE failed; the entry is gone from this layer.
	StoreError(queue, key string, err error)

	// Provider returned ok=false on Set (backpressure/eviction).
	StoreRejected(key string)

	// A later operation for the same key superseded this entry (Sequencer only).
	Superseded(queue, key string)

	// Stored bytes failed to decode on read.
	CorruptPayload(key string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) ConsumerNotRunning(string)          {}
func (NopHooks) ConsumerDuplicate(string)           {}
func (NopHooks) QueueOverflow(string, string, bool) {}
func (NopHooks) Applied(string, string)             {}
func (NopHooks) StoreError(string, string, error)   {}
func (NopHooks) StoreRejected(string)               {}
func (NopHooks) Superseded(string, string)          {}
func (NopHooks) CorruptPayload(string, error)       {}
