// Package codec converts cached values to and from the bytes handed to a
// provider. The cache uses Codec[map[string]any]; every codec here is generic
// so it can be reused for other value types.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
