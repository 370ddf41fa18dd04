// Package jsoncodec provides the default JSON value codec.
package jsoncodec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hoardkv/hoard/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec serializes values as JSON.
type Codec struct{}

// New returns a new JSON codec.
func New() *Codec {
	return &Codec{}
}

// Encode serializes v as compact JSON.
// Values outside the JSON data model (channels, funcs, cyclic structures)
// fail with an error wrapping codec.ErrUnsupportedValue.
func (c *Codec) Encode(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("%w: %v", codec.ErrUnsupportedValue, err)
	}
	// Encoder appends a trailing newline; the stored form omits it.
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Decode reconstructs the value from its JSON form.
// Numbers decode as json.Number so integer payloads round-trip losslessly.
func (c *Codec) Decode(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding cached value: %w", err)
	}
	return v, nil
}
