package hoard_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/hoardkv/hoard"
	"github.com/hoardkv/hoard/internal/store/boltstore"
)

// TestE2E_BoltBacked drives the full protocol against a real bolt file:
// write, dedup refresh, recency-windowed reads, expiry, delete.
func TestE2E_BoltBacked(t *testing.T) {
	clock := struct {
		now time.Time
	}{now: time.Unix(1_700_000_000, 0)}
	now := func() time.Time { return clock.now }

	path := filepath.Join(t.TempDir(), "hoard.db")
	st, err := boltstore.Open(path, boltstore.WithClock(now))
	if err != nil {
		t.Fatalf("boltstore.Open() error = %v", err)
	}

	cache, err := hoard.New(
		hoard.WithStore(st),
		hoard.WithClock(now),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer cache.Close()

	ctx := context.Background()
	value := map[string]any{"plan": "pro", "active": true}

	// Write.
	receipt, err := cache.Put(ctx, "user:42", value, 60*time.Second)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if want := clock.now.Unix() + 60; receipt.ExpiryEpochSeconds != want {
		t.Errorf("Put() expiry = %d, want %d", receipt.ExpiryEpochSeconds, want)
	}

	// Read back.
	hit, err := cache.Get(ctx, "user:42")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !reflect.DeepEqual(hit.Value, value) {
		t.Errorf("Get() value = %#v, want %#v", hit.Value, value)
	}

	// Identical put refreshes.
	clock.now = clock.now.Add(10 * time.Second)
	refreshed, err := cache.Put(ctx, "user:42", value, 60*time.Second)
	if err != nil {
		t.Fatalf("refresh Put() error = %v", err)
	}
	if refreshed.ExpiryEpochSeconds <= receipt.ExpiryEpochSeconds {
		t.Errorf("refresh expiry = %d, want > %d", refreshed.ExpiryEpochSeconds, receipt.ExpiryEpochSeconds)
	}

	// Recency window: the refresh just happened, so a tight window hits.
	if _, err := cache.GetWithin(ctx, "user:42", 5*time.Second); err != nil {
		t.Errorf("GetWithin(5s) error = %v, want hit", err)
	}
	clock.now = clock.now.Add(6 * time.Second)
	if _, err := cache.GetWithin(ctx, "user:42", 5*time.Second); !errors.Is(err, hoard.ErrNotFound) {
		t.Errorf("GetWithin(5s) after 6s error = %v, want ErrNotFound", err)
	}

	// Expiry.
	clock.now = clock.now.Add(70 * time.Second)
	if _, err := cache.Get(ctx, "user:42"); !errors.Is(err, hoard.ErrNotFound) {
		t.Errorf("Get() after expiry error = %v, want ErrNotFound", err)
	}

	// Write again, then delete.
	if _, err := cache.Put(ctx, "user:42", value, 60*time.Second); err != nil {
		t.Fatalf("rewrite Put() error = %v", err)
	}
	if !cache.Delete(ctx, "user:42") {
		t.Error("Delete() = false, want true")
	}
	if _, err := cache.Get(ctx, "user:42"); !errors.Is(err, hoard.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}
