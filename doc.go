// Package writebehind implements a write-behind cache layer in front of a byte
// store. Producers (usually synchronous host event callbacks) enqueue writes and
// evictions without blocking; two independent single-consumer loops drain the
// queues into the store in FIFO order. Reads bypass the queues.
//
// Components:
//   - Provider: byte store with TTL (e.g. Redis, Memcache, Ristretto, BigCache).
//   - Codec: Record <-> []byte (JSON by default).
//   - Registry: concrete entity type -> serializer producing a Record.
//   - Queues: unbounded (or optionally bounded) FIFOs, one for writes and one for evictions.
//
// Keys:
//
//	<TYPE_TAG>:<ID>  - TYPE_TAG is the uppercased type name, ID the entity's CacheID()
//
// Usage:
//
//	c, _ := writebehind.New(writebehind.Options[*Session]{Provider: p, Registry: reg, Binding: sess})
//	go c.Run(ctx)              // both consumers
//	_ = c.Write(guild, 0)      // fire-and-forget
//	_ = c.Evict("GUILD:42")
//	rec, ok, err := c.GetRecord(ctx, "GUILD:42")
//
// Write-behind is fire-and-forget: producers only see programmer errors
// (unsupported variant, unencodable record, full bounded queue). Store failures
// are logged and reported through Hooks, and the entry is dropped.
package writebehind
