package writebehind

import (
	"errors"
	"fmt"
)

var (
	ErrProviderRequired   = errors.New("writebehind: provider is required")
	ErrUnsupportedVariant = errors.New("writebehind: unsupported variant")
	ErrCorruptPayload     = errors.New("writebehind: corrupt payload")
	ErrMissingKey         = errors.New("writebehind: record has no string \"key\" field")
	ErrEmptyKey           = errors.New("writebehind: empty key")
	ErrQueueFull          = errors.New("writebehind: queue full")

	errNoRecord = errors.New("payload decodes to no record")
)

// UnsupportedVariantError is returned by producers when no serializer is
// registered for the concrete type of the value. Callers may register one or
// pass a pre-serialized Record instead.
type UnsupportedVariantError struct {
	Variant string
}

func (e *UnsupportedVariantError) Error() string {
	return fmt.Sprintf("writebehind: no serializer registered for %q", e.Variant)
}

func (e *UnsupportedVariantError) Unwrap() error { return ErrUnsupportedVariant }

// CorruptPayloadError is returned by the read path when stored bytes do not
// decode. It points at store-level corruption or a codec mismatch between
// writers and readers.
type CorruptPayloadError struct {
	Key string
	Err error
}

func (e *CorruptPayloadError) Error() string {
	return fmt.Sprintf("writebehind: corrupt payload at %q: %v", e.Key, e.Err)
}

func (e *CorruptPayloadError) Unwrap() []error {
	errs := make([]error, 0, 2)
	errs = append(errs, ErrCorruptPayload)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
