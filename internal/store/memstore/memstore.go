// Package memstore provides an in-memory adapter. It is the reference
// implementation of the adapter contract and the test double for the manager:
// the clock is injectable and every operation is call-counted.
package memstore

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hoardkv/hoard/internal/store"
)

// Compile-time check that Store implements store.Adapter.
var _ store.Adapter = (*Store)(nil)

// DefaultCapacity bounds the entry count so dev and test processes cannot
// grow without limit. Eviction is LRU.
const DefaultCapacity = 65536

// Store is an in-memory adapter.
type Store struct {
	mu      sync.Mutex
	entries *lru.Cache[string, store.Entry]
	now     func() time.Time
	calls   map[string]int

	// failNext, when set, makes the next named operation fail with
	// store.ErrUnavailable. Test hook.
	failNext map[string]bool
}

// Option configures a Store.
type Option func(*Store) error

// WithClock overrides the time source. Tests use this to simulate expiry
// and recency windows.
func WithClock(now func() time.Time) Option {
	return func(s *Store) error {
		s.now = now
		return nil
	}
}

// WithCapacity sets the maximum number of entries before LRU eviction.
func WithCapacity(n int) Option {
	return func(s *Store) error {
		c, err := lru.New[string, store.Entry](n)
		if err != nil {
			return err
		}
		s.entries = c
		return nil
	}
}

// New creates a new in-memory adapter.
func New(opts ...Option) (*Store, error) {
	entries, err := lru.New[string, store.Entry](DefaultCapacity)
	if err != nil {
		return nil, err
	}
	s := &Store{
		entries:  entries,
		now:      time.Now,
		calls:    make(map[string]int),
		failNext: make(map[string]bool),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Calls returns how many times the named operation was invoked.
// Operation names match the Adapter method names.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// FailNext makes the next invocation of the named operation fail with
// store.ErrUnavailable.
func (s *Store) FailNext(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[op] = true
}

// Peek returns the raw entry without freshness checks (for test assertions).
func (s *Store) Peek(keyFingerprint string) (store.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.Get(keyFingerprint)
}

// enter records the call and reports whether it was armed to fail.
// Caller must hold s.mu.
func (s *Store) enter(op string) bool {
	s.calls[op]++
	if s.failNext[op] {
		s.failNext[op] = false
		return true
	}
	return false
}

// FetchFresh returns the value projection if the entry is unexpired and
// recent enough.
func (s *Store) FetchFresh(ctx context.Context, keyFingerprint string, minUpdatedAtMillis int64) (store.Fresh, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enter("FetchFresh") {
		return store.Fresh{}, store.ErrUnavailable
	}

	e, ok := s.entries.Get(keyFingerprint)
	if !ok || e.ExpiryEpochSeconds <= s.now().Unix() || e.UpdatedAtMillis <= minUpdatedAtMillis {
		return store.Fresh{}, store.ErrNotFound
	}
	return store.Fresh{
		SerializedValue:    e.SerializedValue,
		ExpiryEpochSeconds: e.ExpiryEpochSeconds,
	}, nil
}

// BumpDownloadCounter increments downloadCount on an existing entry.
func (s *Store) BumpDownloadCounter(ctx context.Context, keyFingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enter("BumpDownloadCounter") {
		return store.ErrUnavailable
	}

	e, ok := s.entries.Get(keyFingerprint)
	if !ok {
		return store.ErrNotFound
	}
	e.DownloadCount++
	s.entries.Add(keyFingerprint, e)
	return nil
}

// FetchIfValueMatches returns expiry and TTL if the stored value fingerprint
// matches.
func (s *Store) FetchIfValueMatches(ctx context.Context, keyFingerprint, valueFingerprint string) (store.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enter("FetchIfValueMatches") {
		return store.Match{}, store.ErrUnavailable
	}

	e, ok := s.entries.Get(keyFingerprint)
	if !ok || e.ExpiryEpochSeconds <= s.now().Unix() || e.ValueFingerprint != valueFingerprint {
		return store.Match{}, store.ErrNotFound
	}
	return store.Match{
		ExpiryEpochSeconds: e.ExpiryEpochSeconds,
		TTLSeconds:         e.TTLSeconds,
	}, nil
}

// ExtendMatchingEntry bumps the redundancy counter and advances the entry's
// update and expiry instants.
func (s *Store) ExtendMatchingEntry(ctx context.Context, keyFingerprint string, newExpiryEpochSeconds, nowMillis int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enter("ExtendMatchingEntry") {
		return 0, store.ErrUnavailable
	}

	e, ok := s.entries.Get(keyFingerprint)
	if !ok {
		return 0, store.ErrNotFound
	}
	e.RedundancyCount++
	e.UpdatedAtMillis = nowMillis
	e.ExpiryEpochSeconds = newExpiryEpochSeconds
	s.entries.Add(keyFingerprint, e)
	return e.ExpiryEpochSeconds, nil
}

// WriteEntry unconditionally upserts the entry.
func (s *Store) WriteEntry(ctx context.Context, e store.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enter("WriteEntry") {
		return store.ErrUnavailable
	}

	s.entries.Add(e.KeyFingerprint, e)
	return nil
}

// DeleteEntry removes the entry if present.
func (s *Store) DeleteEntry(ctx context.Context, keyFingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enter("DeleteEntry") {
		return store.ErrUnavailable
	}

	s.entries.Remove(keyFingerprint)
	return nil
}

// Close is a no-op for the memory adapter.
func (s *Store) Close() error {
	return nil
}
