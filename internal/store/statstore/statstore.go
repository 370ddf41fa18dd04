// Package statstore wraps another adapter with per-operation metrics.
package statstore

import (
	"context"
	"errors"
	"time"

	"github.com/hoardkv/hoard/internal/stats"
	"github.com/hoardkv/hoard/internal/store"
)

// Compile-time check that Store implements store.Adapter.
var _ store.Adapter = (*Store)(nil)

// Store wraps another Adapter, recording call counts, backend faults, and
// latencies into a stats.Collector. ErrNotFound is a normal outcome and is
// not counted as a fault.
type Store struct {
	underlying store.Adapter
	collector  stats.Collector
}

// New creates a metrics-recording wrapper around underlying.
func New(underlying store.Adapter, collector stats.Collector) *Store {
	if collector == nil {
		collector = stats.NewNoop()
	}
	return &Store{underlying: underlying, collector: collector}
}

// observe records one completed operation.
func (s *Store) observe(op string, start time.Time, err error) {
	s.collector.IncCounter("hoard_store_"+op+"_total", 1)
	s.collector.ObserveHistogram("hoard_store_"+op+"_seconds", time.Since(start).Seconds())
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.collector.IncCounter(stats.MetricStoreErrors, 1)
	}
}

// FetchFresh delegates and records metrics.
func (s *Store) FetchFresh(ctx context.Context, keyFingerprint string, minUpdatedAtMillis int64) (store.Fresh, error) {
	start := time.Now()
	fresh, err := s.underlying.FetchFresh(ctx, keyFingerprint, minUpdatedAtMillis)
	s.observe("fetchfresh", start, err)
	return fresh, err
}

// BumpDownloadCounter delegates and records metrics.
func (s *Store) BumpDownloadCounter(ctx context.Context, keyFingerprint string) error {
	start := time.Now()
	err := s.underlying.BumpDownloadCounter(ctx, keyFingerprint)
	s.observe("bumpdownload", start, err)
	return err
}

// FetchIfValueMatches delegates and records metrics.
func (s *Store) FetchIfValueMatches(ctx context.Context, keyFingerprint, valueFingerprint string) (store.Match, error) {
	start := time.Now()
	match, err := s.underlying.FetchIfValueMatches(ctx, keyFingerprint, valueFingerprint)
	s.observe("fetchifmatches", start, err)
	return match, err
}

// ExtendMatchingEntry delegates and records metrics.
func (s *Store) ExtendMatchingEntry(ctx context.Context, keyFingerprint string, newExpiryEpochSeconds, nowMillis int64) (int64, error) {
	start := time.Now()
	applied, err := s.underlying.ExtendMatchingEntry(ctx, keyFingerprint, newExpiryEpochSeconds, nowMillis)
	s.observe("extendmatching", start, err)
	return applied, err
}

// WriteEntry delegates and records metrics.
func (s *Store) WriteEntry(ctx context.Context, e store.Entry) error {
	start := time.Now()
	err := s.underlying.WriteEntry(ctx, e)
	s.observe("writeentry", start, err)
	return err
}

// DeleteEntry delegates and records metrics.
func (s *Store) DeleteEntry(ctx context.Context, keyFingerprint string) error {
	start := time.Now()
	err := s.underlying.DeleteEntry(ctx, keyFingerprint)
	s.observe("deleteentry", start, err)
	return err
}

// Close closes the underlying adapter.
func (s *Store) Close() error {
	return s.underlying.Close()
}
