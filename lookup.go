package writebehind

import (
	"context"
	"fmt"
)

// Reconstructor builds a live T from a freshly decoded record and the cache's
// binding. It is supplied by the host, which owns the domain types.
type Reconstructor[T, B any] func(rec Record, binding B) (T, error)

// GetTyped reads key and hands the record to fn. A miss is (zero, false, nil)
// and fn is not called.
func GetTyped[T, B any](ctx context.Context, c Cache[B], key string, fn Reconstructor[T, B]) (T, bool, error) {
	var zero T
	rec, ok, err := c.GetRecord(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := fn(rec, c.Binding())
	if err != nil {
		return zero, false, fmt.Errorf("writebehind: reconstruct %q: %w", key, err)
	}
	return v, true, nil
}

// GetByID is GetTyped for the key BuildKey(tag, id).
func GetByID[T, B any](ctx context.Context, c Cache[B], tag, id string, fn Reconstructor[T, B]) (T, bool, error) {
	return GetTyped(ctx, c, BuildKey(tag, id), fn)
}
