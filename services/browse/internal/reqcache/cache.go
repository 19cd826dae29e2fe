// Package reqcache is a process-local memoization layer for upstream GET
// requests, keyed by endpoint and normalized query parameters.
//
// Entries are fresh for a fixed window (DefaultTTL). Stale entries are never
// evicted proactively; they stay in place until the next successful fetch for
// the same key overwrites them. Failed fetches are never stored.
package reqcache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is the freshness window of a cache entry.
const DefaultTTL = 5 * time.Minute

const meterName = "github.com/example/anime-browse/reqcache"

// Fetcher performs the upstream call for a cache miss.
type Fetcher func(ctx context.Context) (any, error)

// Cache memoizes fetcher results. It is safe for concurrent use.
type Cache struct {
	mu    sync.Mutex
	items store
	// gen is bumped by Clear; flights started before a Clear neither serve
	// later callers nor write back.
	gen   uint64
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group
	log   *zap.Logger

	hits      metric.Int64Counter
	misses    metric.Int64Counter
	fetchErrs metric.Int64Counter
}

type options struct {
	ttl        time.Duration
	now        func() time.Time
	maxEntries int
	log        *zap.Logger
	meter      metric.Meter
}

// Option configures a Cache.
type Option func(*options)

// WithClock replaces time.Now. Tests use it to move freshness deterministically.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithTTL overrides the freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

// WithMaxEntries bounds the number of keys held (least recently used first out).
// n <= 0 keeps the cache unbounded.
func WithMaxEntries(n int) Option {
	return func(o *options) { o.maxEntries = n }
}

func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

func WithMeter(m metric.Meter) Option {
	return func(o *options) { o.meter = m }
}

// New creates an empty Cache.
func New(opts ...Option) *Cache {
	o := options{ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ttl <= 0 {
		o.ttl = DefaultTTL
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if o.meter == nil {
		o.meter = otel.Meter(meterName)
	}

	var items store = newMapStore()
	if o.maxEntries > 0 {
		if s, err := newLRUStore(o.maxEntries); err == nil {
			items = s
		}
	}

	c := &Cache{items: items, ttl: o.ttl, now: o.now, log: o.log}
	// Instrument creation only fails on invalid names; a nil counter is skipped.
	c.hits, _ = o.meter.Int64Counter("reqcache.hits",
		metric.WithDescription("Lookups answered from a fresh entry"), metric.WithUnit("{lookup}"))
	c.misses, _ = o.meter.Int64Counter("reqcache.misses",
		metric.WithDescription("Lookups that required an upstream fetch"), metric.WithUnit("{lookup}"))
	c.fetchErrs, _ = o.meter.Int64Counter("reqcache.fetch_errors",
		metric.WithDescription("Upstream fetches that failed"), metric.WithUnit("{error}"))
	return c
}

// GetOrFetch returns the fresh payload stored for (endpoint, params) or calls
// fetch and stores its result. Concurrent misses for the same key share one
// fetch. The fetch is detached from ctx: a caller whose ctx ends stops waiting
// and gets ctx.Err(), while the fetch itself runs to completion.
func (c *Cache) GetOrFetch(ctx context.Context, endpoint string, params Params, fetch Fetcher) (any, error) {
	key := Key(endpoint, params)
	attrs := metric.WithAttributes(attribute.String("endpoint", endpoint))

	v, gen, ok := c.lookup(key)
	if ok {
		c.count(ctx, c.hits, attrs)
		return v, nil
	}
	c.count(ctx, c.misses, attrs)
	c.log.Debug("reqcache miss", zap.String("key", key))

	detached := context.WithoutCancel(ctx)
	flight := key + "#" + strconv.FormatUint(gen, 10)
	ch := c.group.DoChan(flight, func() (any, error) {
		// A flight that finished between lookup and DoChan may have stored it.
		if v, g, ok := c.lookup(key); ok && g == gen {
			return v, nil
		}
		v, err := fetch(detached)
		if err != nil {
			c.count(detached, c.fetchErrs, attrs)
			c.log.Warn("reqcache fetch failed", zap.String("key", key), zap.Error(err))
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.items.put(key, entry{payload: v, storedAt: c.now()})
		}
		c.mu.Unlock()
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items.purge()
	c.gen++
	c.mu.Unlock()
}

// Invalidate marks the entry for key stale so the next lookup refetches it.
// The entry itself stays in place until that fetch overwrites it.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items.get(key); ok {
		e.storedAt = time.Time{}
		c.items.put(key, e)
	}
}

// Len returns the number of entries, fresh or stale.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.len()
}

// SubscribeInvalidation listens on subj for invalidation requests. A message
// body of "" or "ALL" clears the cache; anything else is treated as a key.
func (c *Cache) SubscribeInvalidation(nc *nats.Conn, subj string) (*nats.Subscription, error) {
	return nc.Subscribe(subj, func(m *nats.Msg) {
		c.handleInvalidation(string(m.Data))
	})
}

func (c *Cache) handleInvalidation(body string) {
	key := strings.TrimSpace(body)
	if key == "" || strings.EqualFold(key, "ALL") {
		c.Clear()
		c.log.Info("reqcache cleared by invalidation message")
		return
	}
	c.Invalidate(key)
}

// lookup returns the fresh payload for key, if any, and the current generation.
func (c *Cache) lookup(key string) (any, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items.get(key)
	if !ok || c.now().Sub(e.storedAt) >= c.ttl {
		return nil, c.gen, false
	}
	return e.payload, c.gen, true
}

func (c *Cache) count(ctx context.Context, ctr metric.Int64Counter, attrs metric.AddOption) {
	if ctr != nil {
		ctr.Add(ctx, 1, attrs)
	}
}
