// Package fingerprint derives fixed-length identifiers from raw bytes.
//
// The same function serves both uses in the cache protocol: deriving the
// store's primary key from a raw cache key, and deriving the content-equality
// proxy from a serialized value. Collision resistance only needs to hold for
// practical deduplication, not against an adversary.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Size is the length of a fingerprint in hex characters.
const Size = 32

// Sum returns the fingerprint of data as a fixed-length lowercase hex string.
// It is pure and deterministic; empty input is valid.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:Size/2])
}

// SumString is a convenience wrapper for string inputs.
func SumString(s string) string {
	return Sum([]byte(s))
}
