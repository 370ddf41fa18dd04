// Package hoard provides a durable cache manager over a keyed, TTL-capable
// store, with content-addressed deduplication, recency-windowed reads, and
// optional usage accounting.
//
// Example usage:
//
//	mem, _ := memstore.New()
//	cache, err := hoard.New(
//	    hoard.WithStore(mem),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cache.Close()
//
//	receipt, err := cache.Put(ctx, "user:42", map[string]any{"plan": "pro"}, time.Minute)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	hit, err := cache.Get(ctx, "user:42")
package hoard

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hoardkv/hoard/internal/codec"
	"github.com/hoardkv/hoard/internal/fingerprint"
	"github.com/hoardkv/hoard/internal/stats"
	"github.com/hoardkv/hoard/internal/store"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrNotFound indicates a miss: the key was never written, has expired,
	// fell outside the requested recency window, or the backing store could
	// not be consulted. These cases are deliberately indistinguishable; the
	// cache fails safe toward "empty".
	ErrNotFound = errors.New("hoard: entry not found")

	// ErrNilValue indicates Put was called with a nil value. Nothing is
	// cached and no store call is made.
	ErrNilValue = errors.New("hoard: nil value")

	// ErrClosed indicates the manager has been closed.
	ErrClosed = errors.New("hoard: manager closed")

	// ErrNoStore indicates no store adapter was provided.
	ErrNoStore = errors.New("hoard: no store provided")

	// ErrInvalidTTL indicates a non-positive default TTL was configured.
	ErrInvalidTTL = errors.New("hoard: default TTL must be positive")
)

// Hit is a successful read.
type Hit struct {
	// Value is the decoded cached value.
	Value any
	// ExpiryEpochSeconds is the entry's absolute expiry instant.
	ExpiryEpochSeconds int64
}

// Receipt is a successful write or refresh.
type Receipt struct {
	// KeyFingerprint identifies the entry in the backing store.
	KeyFingerprint string
	// ExpiryEpochSeconds is the expiry in effect after the operation.
	ExpiryEpochSeconds int64
}

// Manager orchestrates the cache protocol over a store adapter.
// A Manager is stateless between calls aside from its fixed configuration
// and is safe for concurrent use by multiple goroutines.
//
// Concurrent puts on the same key race at the store level: the dedup probe
// and the conditional write are two round trips, so two writers carrying the
// same new value can both miss the probe and both write, undercounting
// redundancy. Counters are advisory telemetry, never load-bearing.
type Manager struct {
	store             store.Adapter
	codec             codec.Codec
	defaultTTL        time.Duration
	downloadCounter   bool
	redundancyCounter bool
	stats             stats.Collector
	logger            *zap.Logger
	now               func() time.Time
	sf                singleflight.Group
	closed            atomic.Bool
}

// New creates a new Manager with the given options.
// A store adapter is required; everything else has sensible defaults.
func New(opts ...Option) (*Manager, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	if cfg.store == nil {
		return nil, ErrNoStore
	}
	if cfg.defaultTTL < time.Second {
		return nil, ErrInvalidTTL
	}

	m := &Manager{
		store:             cfg.store,
		codec:             cfg.codec,
		defaultTTL:        cfg.defaultTTL,
		downloadCounter:   cfg.downloadCounter,
		redundancyCounter: cfg.redundancyCounter,
		stats:             cfg.stats,
		logger:            cfg.logger,
		now:               cfg.now,
	}

	m.logger.Debug("manager initialized",
		zap.Duration("defaultTTL", m.defaultTTL),
		zap.Bool("downloadCounter", m.downloadCounter),
		zap.Bool("redundancyCounter", m.redundancyCounter),
	)

	return m, nil
}

// Get returns the cached value for key, however old, as long as it has not
// expired. Returns ErrNotFound on a miss.
func (m *Manager) Get(ctx context.Context, key string) (*Hit, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	return m.get(ctx, key, 0)
}

// GetWithin returns the cached value for key only if it was written or
// refreshed strictly less than window ago. A non-positive window can never
// be satisfied and is an immediate miss with no store call.
func (m *Manager) GetWithin(ctx context.Context, key string, window time.Duration) (*Hit, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if window <= 0 {
		m.stats.IncCounter(stats.MetricGets, 1)
		m.stats.IncCounter(stats.MetricMisses, 1)
		return nil, ErrNotFound
	}
	return m.get(ctx, key, m.now().Add(-window).UnixMilli())
}

func (m *Manager) get(ctx context.Context, key string, minUpdatedAtMillis int64) (*Hit, error) {
	m.stats.IncCounter(stats.MetricGets, 1)
	keyFp := fingerprint.SumString(key)

	fresh, err := m.store.FetchFresh(ctx, keyFp, minUpdatedAtMillis)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			m.logger.Warn("fetch failed, treating as miss",
				zap.String("key", key),
				zap.Error(err),
			)
		}
		m.stats.IncCounter(stats.MetricMisses, 1)
		return nil, ErrNotFound
	}

	value, err := m.codec.Decode(fresh.SerializedValue)
	if err != nil {
		m.logger.Warn("cached value failed to decode, treating as miss",
			zap.String("key", key),
			zap.Error(err),
		)
		m.stats.IncCounter(stats.MetricMisses, 1)
		return nil, ErrNotFound
	}

	if m.downloadCounter {
		// Best-effort accounting; the read result does not depend on it.
		if err := m.store.BumpDownloadCounter(ctx, keyFp); err != nil {
			m.logger.Debug("download counter bump failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}

	m.stats.IncCounter(stats.MetricHits, 1)
	return &Hit{Value: value, ExpiryEpochSeconds: fresh.ExpiryEpochSeconds}, nil
}

// Put caches value under key. A ttl shorter than one second selects the
// configured default. Returns ErrNilValue for a nil value (nothing stored, no store
// call) and ErrNotFound when a store fault prevented the write.
//
// If an unexpired entry for key already holds an identical value (by
// fingerprint), no rewrite happens: with redundancy counting disabled the
// existing expiry is returned untouched; with it enabled the entry is
// re-extended by its previously stored TTL — not by the ttl argument of this
// call. A caller who first put a value with a long TTL will keep extending
// by that long TTL on identical puts, whatever they pass here.
//
// Encoding failures (values outside the supported data model) are programming
// errors and propagate as hard failures.
func (m *Manager) Put(ctx context.Context, key string, value any, ttl time.Duration) (*Receipt, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if value == nil {
		return nil, ErrNilValue
	}
	m.stats.IncCounter(stats.MetricPuts, 1)

	ttlSeconds := int64(ttl / time.Second)
	if ttlSeconds <= 0 {
		ttlSeconds = int64(m.defaultTTL / time.Second)
	}

	keyFp := fingerprint.SumString(key)
	serialized, err := m.codec.Encode(value)
	if err != nil {
		return nil, fmt.Errorf("encoding value for key %q: %w", key, err)
	}
	valueFp := fingerprint.SumString(serialized)

	match, err := m.store.FetchIfValueMatches(ctx, keyFp, valueFp)
	switch {
	case err == nil:
		return m.refresh(ctx, keyFp, match)
	case !errors.Is(err, store.ErrNotFound):
		// A failed consistency check must not fall through to an
		// unconditional overwrite: that could race an in-flight deletion.
		m.logger.Warn("dedup check failed, aborting put",
			zap.String("key", key),
			zap.Error(err),
		)
		m.stats.IncCounter(stats.MetricMisses, 1)
		return nil, ErrNotFound
	}

	now := m.now()
	entry := store.Entry{
		KeyFingerprint:     keyFp,
		ValueFingerprint:   valueFp,
		RawKey:             key,
		SerializedValue:    serialized,
		TTLSeconds:         ttlSeconds,
		ExpiryEpochSeconds: now.Unix() + ttlSeconds,
		CreatedAtMillis:    now.UnixMilli(),
		UpdatedAtMillis:    now.UnixMilli(),
	}
	if err := m.store.WriteEntry(ctx, entry); err != nil {
		m.logger.Warn("write failed, treating as miss",
			zap.String("key", key),
			zap.Error(err),
		)
		m.stats.IncCounter(stats.MetricMisses, 1)
		return nil, ErrNotFound
	}

	m.stats.IncCounter(stats.MetricWrites, 1)
	return &Receipt{KeyFingerprint: keyFp, ExpiryEpochSeconds: entry.ExpiryEpochSeconds}, nil
}

// refresh handles a put whose value matched the stored entry.
func (m *Manager) refresh(ctx context.Context, keyFp string, match store.Match) (*Receipt, error) {
	m.stats.IncCounter(stats.MetricDedupHits, 1)

	if !m.redundancyCounter {
		// The one path where a successful put performs zero mutations.
		return &Receipt{KeyFingerprint: keyFp, ExpiryEpochSeconds: match.ExpiryEpochSeconds}, nil
	}

	now := m.now()
	applied, err := m.store.ExtendMatchingEntry(ctx, keyFp, now.Unix()+match.TTLSeconds, now.UnixMilli())
	if err != nil {
		m.logger.Warn("extend failed, treating as miss",
			zap.String("keyFingerprint", keyFp),
			zap.Error(err),
		)
		m.stats.IncCounter(stats.MetricMisses, 1)
		return nil, ErrNotFound
	}
	return &Receipt{KeyFingerprint: keyFp, ExpiryEpochSeconds: applied}, nil
}

// Delete removes the entry for key. It reports whether the backing delete
// call succeeded; removing an absent key still succeeds. Store faults are
// logged and reported as false.
func (m *Manager) Delete(ctx context.Context, key string) bool {
	if m.closed.Load() {
		return false
	}
	m.stats.IncCounter(stats.MetricDeletes, 1)

	keyFp := fingerprint.SumString(key)
	if err := m.store.DeleteEntry(ctx, keyFp); err != nil {
		m.logger.Warn("delete failed",
			zap.String("key", key),
			zap.Error(err),
		)
		return false
	}
	return true
}

// GetOrPut returns the cached value for key, calling fn to compute and cache
// it on a miss. Concurrent misses on the same key are collapsed so fn runs
// once. Caching the computed value is best-effort: a store fault surfaces
// the value anyway.
func (m *Manager) GetOrPut(ctx context.Context, key string, fn func(ctx context.Context) (any, time.Duration, error)) (any, error) {
	if hit, err := m.Get(ctx, key); err == nil {
		return hit.Value, nil
	}

	v, err, _ := m.sf.Do(key, func() (any, error) {
		value, ttl, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := m.Put(ctx, key, value, ttl); err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrNilValue) {
			return nil, err
		}
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Close releases the store adapter. After Close, operations return ErrClosed.
func (m *Manager) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if err := m.store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}

// Store returns the store adapter used by this manager.
func (m *Manager) Store() store.Adapter {
	return m.store
}
