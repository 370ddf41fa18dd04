// Package redisstore implements a Redis adapter.
//
// Each entry is a hash whose fields mirror the persisted schema. The
// conditional operations run as Lua scripts so every adapter call stays a
// single atomic round trip; EXPIREAT keeps Redis's physical reaping aligned
// with the logical expiryEpochSeconds field.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hoardkv/hoard/internal/store"
)

// Compile-time check that Store implements store.Adapter.
var _ store.Adapter = (*Store)(nil)

// DefaultPrefix namespaces entry keys in a shared Redis.
const DefaultPrefix = "hoard"

var (
	// fetchFresh: KEYS[1]=entry key, ARGV[1]=now epoch seconds,
	// ARGV[2]=min updatedAtMillis. Returns {serializedValue, expiry} or nil.
	fetchFreshScript = redis.NewScript(`
local vals = redis.call('HMGET', KEYS[1], 'expiryEpochSeconds', 'updatedAtMillis', 'serializedValue')
if not vals[1] then return false end
if tonumber(vals[1]) <= tonumber(ARGV[1]) then return false end
if tonumber(vals[2]) <= tonumber(ARGV[2]) then return false end
return {vals[3], vals[1]}
`)

	// bumpDownload: increments downloadCount only on an existing entry.
	bumpDownloadScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return false end
return redis.call('HINCRBY', KEYS[1], 'downloadCount', 1)
`)

	// fetchIfValueMatches: KEYS[1]=entry key, ARGV[1]=now epoch seconds,
	// ARGV[2]=value fingerprint. Returns {expiry, ttlSeconds} or nil.
	fetchIfMatchesScript = redis.NewScript(`
local vals = redis.call('HMGET', KEYS[1], 'expiryEpochSeconds', 'valueFingerprint', 'ttlSeconds')
if not vals[1] then return false end
if tonumber(vals[1]) <= tonumber(ARGV[1]) then return false end
if vals[2] ~= ARGV[2] then return false end
return {vals[1], vals[3]}
`)

	// extendMatching: KEYS[1]=entry key, ARGV[1]=new expiry epoch seconds,
	// ARGV[2]=now millis. Returns the applied expiry or nil if absent.
	extendMatchingScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return false end
redis.call('HINCRBY', KEYS[1], 'redundancyCount', 1)
redis.call('HSET', KEYS[1], 'updatedAtMillis', ARGV[2], 'expiryEpochSeconds', ARGV[1])
redis.call('EXPIREAT', KEYS[1], ARGV[1])
return ARGV[1]
`)

	// writeEntry: KEYS[1]=entry key, ARGV[1]=expiry epoch seconds, then
	// alternating field/value pairs. DEL first so the upsert never inherits
	// stale fields.
	writeEntryScript = redis.NewScript(`
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], unpack(ARGV, 2))
redis.call('EXPIREAT', KEYS[1], ARGV[1])
return 1
`)
)

// Store is a Redis-backed adapter.
type Store struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store) error

// WithPrefix sets the key prefix. Default is "hoard".
func WithPrefix(prefix string) Option {
	return func(s *Store) error {
		if prefix == "" {
			return fmt.Errorf("redisstore: empty prefix")
		}
		s.prefix = prefix
		return nil
	}
}

// WithClock overrides the time source (for tests).
func WithClock(now func() time.Time) Option {
	return func(s *Store) error {
		s.now = now
		return nil
	}
}

// New creates a Redis adapter on an existing client. The client's lifecycle
// (and any retry policy) belongs to the caller.
func New(client redis.UniversalClient, opts ...Option) (*Store, error) {
	s := &Store{
		client: client,
		prefix: DefaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// EntryKey returns the Redis key for a key fingerprint.
func (s *Store) EntryKey(keyFingerprint string) string {
	return s.prefix + ":" + keyFingerprint
}

// FetchFresh returns the value projection if the entry is unexpired and
// recent enough.
func (s *Store) FetchFresh(ctx context.Context, keyFingerprint string, minUpdatedAtMillis int64) (store.Fresh, error) {
	res, err := fetchFreshScript.Run(ctx, s.client,
		[]string{s.EntryKey(keyFingerprint)},
		s.now().Unix(), minUpdatedAtMillis,
	).Slice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return store.Fresh{}, store.ErrNotFound
		}
		return store.Fresh{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if len(res) != 2 {
		return store.Fresh{}, fmt.Errorf("%w: malformed script reply", store.ErrUnavailable)
	}

	value, ok := res[0].(string)
	if !ok {
		return store.Fresh{}, fmt.Errorf("%w: malformed script reply", store.ErrUnavailable)
	}
	expiry, err := replyInt64(res[1])
	if err != nil {
		return store.Fresh{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return store.Fresh{SerializedValue: value, ExpiryEpochSeconds: expiry}, nil
}

// BumpDownloadCounter increments downloadCount on an existing entry.
func (s *Store) BumpDownloadCounter(ctx context.Context, keyFingerprint string) error {
	err := bumpDownloadScript.Run(ctx, s.client, []string{s.EntryKey(keyFingerprint)}).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return store.ErrNotFound
		}
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// FetchIfValueMatches returns expiry and TTL if the stored value fingerprint
// matches an unexpired entry.
func (s *Store) FetchIfValueMatches(ctx context.Context, keyFingerprint, valueFingerprint string) (store.Match, error) {
	res, err := fetchIfMatchesScript.Run(ctx, s.client,
		[]string{s.EntryKey(keyFingerprint)},
		s.now().Unix(), valueFingerprint,
	).Slice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return store.Match{}, store.ErrNotFound
		}
		return store.Match{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if len(res) != 2 {
		return store.Match{}, fmt.Errorf("%w: malformed script reply", store.ErrUnavailable)
	}

	expiry, err := replyInt64(res[0])
	if err != nil {
		return store.Match{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	ttl, err := replyInt64(res[1])
	if err != nil {
		return store.Match{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return store.Match{ExpiryEpochSeconds: expiry, TTLSeconds: ttl}, nil
}

// ExtendMatchingEntry bumps the redundancy counter and advances update and
// expiry instants in one script.
func (s *Store) ExtendMatchingEntry(ctx context.Context, keyFingerprint string, newExpiryEpochSeconds, nowMillis int64) (int64, error) {
	res, err := extendMatchingScript.Run(ctx, s.client,
		[]string{s.EntryKey(keyFingerprint)},
		newExpiryEpochSeconds, nowMillis,
	).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, store.ErrNotFound
		}
		return 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	applied, err := replyInt64(res)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return applied, nil
}

// WriteEntry unconditionally upserts the full entry hash.
func (s *Store) WriteEntry(ctx context.Context, e store.Entry) error {
	args := []any{
		e.ExpiryEpochSeconds, // ARGV[1]: EXPIREAT target
		"keyFingerprint", e.KeyFingerprint,
		"valueFingerprint", e.ValueFingerprint,
		"rawKey", e.RawKey,
		"serializedValue", e.SerializedValue,
		"ttlSeconds", e.TTLSeconds,
		"expiryEpochSeconds", e.ExpiryEpochSeconds,
		"createdAtMillis", e.CreatedAtMillis,
		"updatedAtMillis", e.UpdatedAtMillis,
		"downloadCount", e.DownloadCount,
		"redundancyCount", e.RedundancyCount,
	}
	if err := writeEntryScript.Run(ctx, s.client, []string{s.EntryKey(e.KeyFingerprint)}, args...).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// DeleteEntry removes the entry if present.
func (s *Store) DeleteEntry(ctx context.Context, keyFingerprint string) error {
	if err := s.client.Del(ctx, s.EntryKey(keyFingerprint)).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Close is a no-op; the Redis client lifecycle belongs to the caller.
func (s *Store) Close() error {
	return nil
}

// replyInt64 converts a script reply element to int64. Redis returns script
// values as either integers or bulk strings depending on the code path.
func replyInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected reply type %T", v)
	}
}
