// Package boltstore implements an embedded durable adapter backed by bbolt.
//
// Entries are JSON-encoded under their key fingerprint in a single bucket.
// bbolt has no TTL sweep of its own, so expiry is enforced logically at read
// time; expired rows a read happens to land on are reaped opportunistically.
package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/hoardkv/hoard/internal/store"
)

// Compile-time check that Store implements store.Adapter.
var _ store.Adapter = (*Store)(nil)

var defaultBucket = []byte("entries")

// Store is a bbolt-backed adapter.
type Store struct {
	db     *bolt.DB
	bucket []byte
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store) error

// WithBucket overrides the bucket name.
func WithBucket(name string) Option {
	return func(s *Store) error {
		if name == "" {
			return fmt.Errorf("boltstore: empty bucket name")
		}
		s.bucket = []byte(name)
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

// Open creates or opens a store file at path.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt file: %w", err)
	}

	s := &Store{db: db, bucket: defaultBucket, now: time.Now}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: creating bucket: %v", store.ErrUnavailable, err)
	}
	return s, nil
}

// get loads and decodes the entry inside a transaction.
func (s *Store) get(tx *bolt.Tx, keyFingerprint string) (store.Entry, bool, error) {
	raw := tx.Bucket(s.bucket).Get([]byte(keyFingerprint))
	if raw == nil {
		return store.Entry{}, false, nil
	}
	var e store.Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return store.Entry{}, false, fmt.Errorf("decoding entry: %w", err)
	}
	return e, true, nil
}

// put encodes and stores the entry inside a transaction.
func (s *Store) put(tx *bolt.Tx, e store.Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}
	return tx.Bucket(s.bucket).Put([]byte(e.KeyFingerprint), raw)
}

// FetchFresh returns the value projection if the entry is unexpired and
// recent enough. Expired rows it encounters are deleted in passing.
func (s *Store) FetchFresh(ctx context.Context, keyFingerprint string, minUpdatedAtMillis int64) (store.Fresh, error) {
	var fresh store.Fresh
	found := false

	err := s.db.Update(func(tx *bolt.Tx) error {
		e, ok, err := s.get(tx, keyFingerprint)
		if err != nil || !ok {
			return err
		}
		if e.ExpiryEpochSeconds <= s.now().Unix() {
			// Reap the dead row while we hold the write lock.
			return tx.Bucket(s.bucket).Delete([]byte(keyFingerprint))
		}
		if e.UpdatedAtMillis <= minUpdatedAtMillis {
			return nil
		}
		fresh = store.Fresh{
			SerializedValue:    e.SerializedValue,
			ExpiryEpochSeconds: e.ExpiryEpochSeconds,
		}
		found = true
		return nil
	})
	if err != nil {
		return store.Fresh{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if !found {
		return store.Fresh{}, store.ErrNotFound
	}
	return fresh, nil
}

// BumpDownloadCounter increments downloadCount on an existing entry.
func (s *Store) BumpDownloadCounter(ctx context.Context, keyFingerprint string) error {
	missing := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		e, ok, err := s.get(tx, keyFingerprint)
		if err != nil {
			return err
		}
		if !ok {
			missing = true
			return nil
		}
		e.DownloadCount++
		return s.put(tx, e)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if missing {
		return store.ErrNotFound
	}
	return nil
}

// FetchIfValueMatches returns expiry and TTL if the stored value fingerprint
// matches an unexpired entry.
func (s *Store) FetchIfValueMatches(ctx context.Context, keyFingerprint, valueFingerprint string) (store.Match, error) {
	var match store.Match
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		e, ok, err := s.get(tx, keyFingerprint)
		if err != nil || !ok {
			return err
		}
		if e.ExpiryEpochSeconds <= s.now().Unix() || e.ValueFingerprint != valueFingerprint {
			return nil
		}
		match = store.Match{
			ExpiryEpochSeconds: e.ExpiryEpochSeconds,
			TTLSeconds:         e.TTLSeconds,
		}
		found = true
		return nil
	})
	if err != nil {
		return store.Match{}, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if !found {
		return store.Match{}, store.ErrNotFound
	}
	return match, nil
}

// ExtendMatchingEntry bumps the redundancy counter and advances update and
// expiry instants in one transaction.
func (s *Store) ExtendMatchingEntry(ctx context.Context, keyFingerprint string, newExpiryEpochSeconds, nowMillis int64) (int64, error) {
	missing := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		e, ok, err := s.get(tx, keyFingerprint)
		if err != nil {
			return err
		}
		if !ok {
			missing = true
			return nil
		}
		e.RedundancyCount++
		e.UpdatedAtMillis = nowMillis
		e.ExpiryEpochSeconds = newExpiryEpochSeconds
		return s.put(tx, e)
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if missing {
		return 0, store.ErrNotFound
	}
	return newExpiryEpochSeconds, nil
}

// WriteEntry unconditionally upserts the entry.
func (s *Store) WriteEntry(ctx context.Context, e store.Entry) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return s.put(tx, e)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// DeleteEntry removes the entry if present.
func (s *Store) DeleteEntry(ctx context.Context, keyFingerprint string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(keyFingerprint))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
