package writebehind

import (
	"reflect"

	"github.com/unkn0wn-root/writebehind/internal/util"
)

// Record is the structured form of a cached entity. Nested maps should be
// Record/map[string]any and sequences []any so every codec round-trips them.
type Record = map[string]any

type serializer struct {
	tag string
	fn  func(any) Record
}

// Registry maps concrete entity types to serializers. Populate it before
// passing it to New; the cache keeps its own copy, so later registrations do
// not affect a running cache.
type Registry struct {
	byType map[reflect.Type]serializer
}

func NewRegistry() *Registry {
	return &Registry{byType: make(map[reflect.Type]serializer)}
}

// Register adds (or replaces) the serializer for T, tagged with T's derived
// variant tag.
func Register[T Entity](r *Registry, fn func(T) Record) {
	RegisterTag(r, util.TypeTag(reflect.TypeOf((*T)(nil)).Elem()), fn)
}

// RegisterTag is Register with an explicit tag.
func RegisterTag[T Entity](r *Registry, tag string, fn func(T) Record) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	r.byType[t] = serializer{
		tag: tag,
		fn:  func(v any) Record { return fn(v.(T)) },
	}
}

// Len reports the number of registered types.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byType)
}

// Serialize dispatches on the concrete type of v.
func (r *Registry) Serialize(v any) (Record, error) {
	s, v, err := r.lookup(v)
	if err != nil {
		return nil, err
	}
	return s.fn(v), nil
}

// Resolve returns the store key and record for a registered entity.
func (r *Registry) Resolve(v any) (key string, rec Record, err error) {
	s, v, err := r.lookup(v)
	if err != nil {
		return "", nil, err
	}
	// registered types are always Entity (enforced by Register)
	return util.StoreKey(s.tag, v.(Entity).CacheID()), s.fn(v), nil
}

// Key returns the store key of e, honoring a registered custom tag.
func (r *Registry) Key(e Entity) string {
	if s, v, err := r.lookup(e); err == nil {
		return util.StoreKey(s.tag, v.(Entity).CacheID())
	}
	return KeyOf(e)
}

// lookup finds the serializer for v's type. A *T matches a registered T and
// a T matches a registered *T; v is returned converted to the registered form.
func (r *Registry) lookup(v any) (serializer, any, error) {
	if v == nil {
		return serializer{}, nil, &UnsupportedVariantError{Variant: "<nil>"}
	}
	t := reflect.TypeOf(v)
	if r != nil {
		if s, ok := r.byType[t]; ok {
			return s, v, nil
		}
		if t.Kind() == reflect.Pointer {
			if s, ok := r.byType[t.Elem()]; ok {
				rv := reflect.ValueOf(v)
				if !rv.IsNil() {
					return s, rv.Elem().Interface(), nil
				}
			}
		} else if s, ok := r.byType[reflect.PointerTo(t)]; ok {
			p := reflect.New(t)
			p.Elem().Set(reflect.ValueOf(v))
			return s, p.Interface(), nil
		}
	}
	return serializer{}, nil, &UnsupportedVariantError{Variant: t.String()}
}

func (r *Registry) clone() *Registry {
	out := NewRegistry()
	if r == nil {
		return out
	}
	for t, s := range r.byType {
		out.byType[t] = s
	}
	return out
}
