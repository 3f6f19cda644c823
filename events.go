package writebehind

import "time"

// EventSource is implemented by hosts that publish entity lifecycle events.
// Callbacks are invoked synchronously from the host's event dispatch.
type EventSource interface {
	OnUpsert(func(v any))
	OnRemove(func(v any))
}

// Subscribe routes upserts to Write (with ttl) and removals to Evict.
// Producer errors (e.g. an unsupported variant) go to onErr when non-nil;
// they never propagate into the host's dispatch.
func Subscribe[B any](src EventSource, c Cache[B], ttl time.Duration, onErr func(v any, err error)) {
	report := func(v any, err error) {
		if err != nil && onErr != nil {
			onErr(v, err)
		}
	}
	src.OnUpsert(func(v any) { report(v, c.Write(v, ttl)) })
	src.OnRemove(func(v any) { report(v, c.Evict(v)) })
}
