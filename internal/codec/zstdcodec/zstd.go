// Package zstdcodec wraps another codec with zstd compression.
//
// The encoded form is compressed and base64-encoded so the stored value
// remains a plain string regardless of backing store. Useful for large
// payloads where store item-size limits bite before bandwidth does.
package zstdcodec

import (
	"encoding/base64"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/hoardkv/hoard/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec compresses the inner codec's output with zstd.
type Codec struct {
	inner codec.Codec
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// New returns a zstd codec wrapping inner.
func New(inner codec.Codec) (*Codec, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &Codec{inner: inner, enc: enc, dec: dec}, nil
}

// Encode serializes v with the inner codec, compresses it, and base64-encodes
// the frame.
func (c *Codec) Encode(v any) (string, error) {
	s, err := c.inner.Encode(v)
	if err != nil {
		return "", err
	}
	compressed := c.enc.EncodeAll([]byte(s), nil)
	return base64.StdEncoding.EncodeToString(compressed), nil
}

// Decode inverts Encode.
func (c *Codec) Decode(s string) (any, error) {
	compressed, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decoding base64 frame: %w", err)
	}
	raw, err := c.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing cached value: %w", err)
	}
	return c.inner.Decode(string(raw))
}
