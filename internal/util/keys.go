package util

import (
	"reflect"
	"strings"
)

// KeySep separates the type tag from the id in a store key.
const KeySep = ":"

// StoreKey returns "<tag>:<id>". Ids must not contain KeySep for keys to stay
// collision-free across tags.
func StoreKey(tag, id string) string {
	return tag + KeySep + id
}

// TypeTag returns the uppercased name of t, dereferencing pointers.
// Unnamed types yield their literal form (e.g. "MAP[STRING]INTERFACE {}").
func TypeTag(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" {
		name = t.String()
	}
	return strings.ToUpper(name)
}
