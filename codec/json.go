package codec

import "encoding/json"

// JSON is the default record codec. Numbers decode as float64; keep ids and
// other wide integers as strings in records.
type JSON[V any] struct{}

var _ Codec[map[string]any] = JSON[map[string]any]{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
