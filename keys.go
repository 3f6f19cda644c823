package writebehind

import (
	"reflect"

	"github.com/unkn0wn-root/writebehind/internal/util"
)

// Entity is implemented by domain objects the cache can key.
// CacheID must be stable for the lifetime of the entity and is used verbatim
// as the id part of the store key, so wide numeric ids should be rendered in
// decimal rather than through a float.
type Entity interface {
	CacheID() string
}

// BuildKey returns the canonical store key "<tag>:<id>".
func BuildKey(tag, id string) string {
	return util.StoreKey(tag, id)
}

// VariantTag returns the type tag used for v: its concrete type name, uppercased,
// with pointers dereferenced.
func VariantTag(v any) string {
	return util.TypeTag(reflect.TypeOf(v))
}

// KeyOf returns the store key of e using its derived variant tag.
// Registered types with a custom tag should go through Registry.Key instead.
func KeyOf(e Entity) string {
	return BuildKey(VariantTag(e), e.CacheID())
}
