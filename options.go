package hoard

import (
	"time"

	"go.uber.org/zap"

	"github.com/hoardkv/hoard/internal/codec"
	"github.com/hoardkv/hoard/internal/codec/jsoncodec"
	"github.com/hoardkv/hoard/internal/stats"
	"github.com/hoardkv/hoard/internal/store"
)

// DefaultTTL is used for entries whose put carried no positive TTL and no
// default was configured.
const DefaultTTL = 900 * time.Second

// Option configures a Manager.
type Option interface {
	apply(*options)
}

// options holds the manager configuration.
type options struct {
	store             store.Adapter
	codec             codec.Codec
	defaultTTL        time.Duration
	downloadCounter   bool
	redundancyCounter bool
	stats             stats.Collector
	logger            *zap.Logger
	now               func() time.Time
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		codec:             jsoncodec.New(),
		defaultTTL:        DefaultTTL,
		downloadCounter:   true,
		redundancyCounter: true,
		stats:             stats.NewNoop(),
		logger:            zap.NewNop(),
		now:               time.Now,
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithStore sets the store adapter to use. Required.
func WithStore(s store.Adapter) Option {
	return optionFunc(func(o *options) {
		o.store = s
	})
}

// WithCodec sets the value codec.
// If not set, JSON encoding is used.
func WithCodec(c codec.Codec) Option {
	return optionFunc(func(o *options) {
		o.codec = c
	})
}

// WithDefaultTTL sets the TTL applied when a put carries no positive TTL.
// Must be at least one second. Default is 900 seconds.
func WithDefaultTTL(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.defaultTTL = d
	})
}

// WithDownloadCounter toggles per-read usage accounting.
// Enabled by default.
func WithDownloadCounter(enabled bool) Option {
	return optionFunc(func(o *options) {
		o.downloadCounter = enabled
	})
}

// WithRedundancyCounter toggles accounting of identical-value puts. When
// enabled, an identical put also re-extends the entry's expiry; when
// disabled, an identical put mutates nothing.
// Enabled by default.
func WithRedundancyCounter(enabled bool) Option {
	return optionFunc(func(o *options) {
		o.redundancyCounter = enabled
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// WithClock overrides the time source. Tests use this to simulate expiry
// and recency windows.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(o *options) {
		o.now = now
	})
}
