// Package store defines the adapter interface between the cache manager and
// the backing keyed store.
//
// The backing store's native query/update surface, whatever it is, gets
// re-expressed as the fixed set of operations below. All store-specific
// translation lives behind this seam; the protocol logic stays store-agnostic.
package store

import (
	"context"
	"errors"
)

// Sentinel errors for adapter operations.
var (
	// ErrNotFound means the entry is absent, expired, or failed the
	// operation's condition. Adapters return it verbatim, never wrapped in
	// ErrUnavailable.
	ErrNotFound = errors.New("store: entry not found")

	// ErrUnavailable marks transient backend faults. Adapters wrap the
	// underlying error so callers can classify with errors.Is.
	ErrUnavailable = errors.New("store: backend unavailable")
)

// Entry is one cached row, keyed by the fingerprint of its logical key.
// Field names are the persisted schema; every adapter stores them bit-exact
// so entries written through one backend read back through another.
type Entry struct {
	// KeyFingerprint is the primary identity; at most one live entry per value.
	KeyFingerprint string `json:"keyFingerprint" dynamodbav:"keyFingerprint"`
	// ValueFingerprint is the content-equality proxy for deduplication.
	// Not unique across entries.
	ValueFingerprint string `json:"valueFingerprint" dynamodbav:"valueFingerprint"`
	// RawKey is the original key, retained for diagnostics only.
	RawKey string `json:"rawKey" dynamodbav:"rawKey"`
	// SerializedValue is the codec-encoded payload.
	SerializedValue string `json:"serializedValue" dynamodbav:"serializedValue"`
	// TTLSeconds is the TTL the entry was most recently written or extended with.
	TTLSeconds int64 `json:"ttlSeconds" dynamodbav:"ttlSeconds"`
	// ExpiryEpochSeconds is the absolute expiry instant. The entry is logically
	// dead once now passes it, even while still physically present. Backing
	// stores with native TTL sweep on this field.
	ExpiryEpochSeconds int64 `json:"expiryEpochSeconds" dynamodbav:"expiryEpochSeconds"`
	// CreatedAtMillis is set once at first write, never mutated.
	CreatedAtMillis int64 `json:"createdAtMillis" dynamodbav:"createdAtMillis"`
	// UpdatedAtMillis advances on every refresh or redundancy bump; it is the
	// recency signal for windowed reads.
	UpdatedAtMillis int64 `json:"updatedAtMillis" dynamodbav:"updatedAtMillis"`
	// DownloadCount counts successful reads. Advisory only.
	DownloadCount int64 `json:"downloadCount" dynamodbav:"downloadCount"`
	// RedundancyCount counts puts that carried an identical value. Advisory only.
	RedundancyCount int64 `json:"redundancyCount" dynamodbav:"redundancyCount"`
}

// Fresh is the projection returned by a conditional read.
type Fresh struct {
	SerializedValue    string
	ExpiryEpochSeconds int64
}

// Match is the projection returned by a value-equality probe.
type Match struct {
	ExpiryEpochSeconds int64
	TTLSeconds         int64
}

// Adapter abstracts the backing keyed store. Every method is a single atomic
// round trip; none retries internally. Conditions use strict comparisons:
// an entry is fresh iff expiryEpochSeconds > now, and recent iff
// updatedAtMillis > minUpdatedAtMillis.
type Adapter interface {
	// FetchFresh returns the entry's value projection iff it is unexpired and
	// was updated strictly after minUpdatedAtMillis. Pass 0 for no recency
	// constraint. Absence, expiry, and staleness all yield ErrNotFound.
	FetchFresh(ctx context.Context, keyFingerprint string, minUpdatedAtMillis int64) (Fresh, error)

	// BumpDownloadCounter increments downloadCount on an existing entry.
	// It never creates an entry. Best-effort: callers treat failure as
	// non-fatal.
	BumpDownloadCounter(ctx context.Context, keyFingerprint string) error

	// FetchIfValueMatches returns expiry and TTL iff the entry is present,
	// unexpired, and stores exactly valueFingerprint.
	FetchIfValueMatches(ctx context.Context, keyFingerprint, valueFingerprint string) (Match, error)

	// ExtendMatchingEntry atomically applies redundancyCount += 1,
	// updatedAtMillis = nowMillis, expiryEpochSeconds = newExpiryEpochSeconds
	// to an existing entry, returning the applied expiry.
	ExtendMatchingEntry(ctx context.Context, keyFingerprint string, newExpiryEpochSeconds, nowMillis int64) (int64, error)

	// WriteEntry unconditionally upserts the full entry.
	WriteEntry(ctx context.Context, e Entry) error

	// DeleteEntry removes the entry if present. A nil return means the
	// backing call succeeded, regardless of whether a row existed.
	DeleteEntry(ctx context.Context, keyFingerprint string) error

	// Close releases any resources held by the adapter.
	Close() error
}
