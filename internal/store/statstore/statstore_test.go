package statstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hoardkv/hoard/internal/stats"
	"github.com/hoardkv/hoard/internal/store"
	"github.com/hoardkv/hoard/internal/store/memstore"
)

// recordingCollector captures counter increments for assertions.
type recordingCollector struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newRecordingCollector() *recordingCollector {
	return &recordingCollector{counters: make(map[string]int64)}
}

func (r *recordingCollector) IncCounter(name string, delta int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[name] += delta
}

func (r *recordingCollector) SetGauge(string, int64)           {}
func (r *recordingCollector) ObserveHistogram(string, float64) {}

func (r *recordingCollector) count(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[name]
}

func TestStore_CountsCalls(t *testing.T) {
	mem, err := memstore.New()
	if err != nil {
		t.Fatalf("memstore.New() error = %v", err)
	}
	rec := newRecordingCollector()
	s := New(mem, rec)
	ctx := context.Background()

	s.WriteEntry(ctx, store.Entry{KeyFingerprint: "kfp", ExpiryEpochSeconds: 1 << 40})
	s.FetchFresh(ctx, "kfp", 0)
	s.FetchFresh(ctx, "kfp", 0)

	if got := rec.count("hoard_store_writeentry_total"); got != 1 {
		t.Errorf("writeentry count = %d, want 1", got)
	}
	if got := rec.count("hoard_store_fetchfresh_total"); got != 2 {
		t.Errorf("fetchfresh count = %d, want 2", got)
	}
}

func TestStore_NotFoundIsNotAFault(t *testing.T) {
	mem, err := memstore.New()
	if err != nil {
		t.Fatalf("memstore.New() error = %v", err)
	}
	rec := newRecordingCollector()
	s := New(mem, rec)

	if _, err := s.FetchFresh(context.Background(), "absent", 0); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("FetchFresh() error = %v, want ErrNotFound", err)
	}
	if got := rec.count(stats.MetricStoreErrors); got != 0 {
		t.Errorf("store error count = %d, want 0 for ErrNotFound", got)
	}
}

func TestStore_CountsFaults(t *testing.T) {
	mem, err := memstore.New()
	if err != nil {
		t.Fatalf("memstore.New() error = %v", err)
	}
	rec := newRecordingCollector()
	s := New(mem, rec)

	mem.FailNext("FetchFresh")
	if _, err := s.FetchFresh(context.Background(), "kfp", 0); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("FetchFresh() error = %v, want ErrUnavailable", err)
	}
	if got := rec.count(stats.MetricStoreErrors); got != 1 {
		t.Errorf("store error count = %d, want 1", got)
	}
}

func TestNew_NilCollector(t *testing.T) {
	mem, err := memstore.New()
	if err != nil {
		t.Fatalf("memstore.New() error = %v", err)
	}
	s := New(mem, nil)
	// Must not panic with the default noop collector.
	if _, err := s.FetchFresh(context.Background(), "absent", 0); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("FetchFresh() error = %v, want ErrNotFound", err)
	}
}
