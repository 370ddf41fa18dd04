// Package codec provides serialization of cached values to and from their
// stored string form.
package codec

import "errors"

// ErrUnsupportedValue is returned when a value falls outside the supported
// data model (primitives, sequences, and mappings) and cannot be encoded
// without corruption. It indicates a programming error by the caller, not a
// transient condition.
var ErrUnsupportedValue = errors.New("codec: unsupported value")

// Codec serializes cache values losslessly.
// Encode must fail (never silently corrupt) for unsupported inputs;
// Decode inverts Encode exactly.
type Codec interface {
	// Encode serializes v to its stored string form.
	Encode(v any) (string, error)
	// Decode reconstructs the value from its stored string form.
	Decode(s string) (any, error)
}
