package reqcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

// countingFetcher returns a fresh *payload on every call so identity checks are meaningful.
type payload struct{ n int64 }

func countingFetcher(calls *atomic.Int64) Fetcher {
	return func(context.Context) (any, error) {
		n := calls.Add(1)
		return &payload{n: n}, nil
	}
}

func TestGetOrFetch_FreshEntryServedWithoutFetch(t *testing.T) {
	clk := newFakeClock()
	c := New(WithClock(clk.Now))
	var calls atomic.Int64
	ctx := context.Background()

	first, err := c.GetOrFetch(ctx, "/top/anime", Params{"page": 1}, countingFetcher(&calls))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clk.Advance(4*time.Minute + 59*time.Second)
	second, err := c.GetOrFetch(ctx, "/top/anime", Params{"page": 1}, countingFetcher(&calls))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls.Load() != 1 {
		t.Fatalf("expected 1 fetch, got %d", calls.Load())
	}
	if first != second {
		t.Fatal("expected the identical cached payload")
	}
}

func TestGetOrFetch_StaleEntryRefetchedAndOverwritten(t *testing.T) {
	clk := newFakeClock()
	c := New(WithClock(clk.Now))
	var calls atomic.Int64
	ctx := context.Background()

	first, _ := c.GetOrFetch(ctx, "/seasons/now", nil, countingFetcher(&calls))
	clk.Advance(DefaultTTL)
	second, err := c.GetOrFetch(ctx, "/seasons/now", nil, countingFetcher(&calls))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 fetches, got %d", calls.Load())
	}
	if first == second {
		t.Fatal("expected a new payload after expiry")
	}
	if c.Len() != 1 {
		t.Fatalf("expected entry to be overwritten in place, got %d entries", c.Len())
	}

	third, _ := c.GetOrFetch(ctx, "/seasons/now", nil, countingFetcher(&calls))
	if third != second {
		t.Fatal("expected the refreshed payload to be cached")
	}
}

func TestGetOrFetch_FailureNotCached(t *testing.T) {
	c := New()
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := c.GetOrFetch(ctx, "/anime/1/full", nil, func(context.Context) (any, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetcher error unchanged, got %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("expected no entry after failure, got %d", c.Len())
	}

	var calls atomic.Int64
	if _, err := c.GetOrFetch(ctx, "/anime/1/full", nil, countingFetcher(&calls)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected retry to reach upstream, got %d fetches", calls.Load())
	}
}

func TestGetOrFetch_FailureKeepsStaleEntry(t *testing.T) {
	clk := newFakeClock()
	c := New(WithClock(clk.Now))
	ctx := context.Background()
	var calls atomic.Int64

	first, _ := c.GetOrFetch(ctx, "/anime", Params{"q": "bleach"}, countingFetcher(&calls))
	clk.Advance(6 * time.Minute)
	if _, err := c.GetOrFetch(ctx, "/anime", Params{"q": "bleach"}, func(context.Context) (any, error) {
		return nil, errors.New("upstream down")
	}); err == nil {
		t.Fatal("expected error")
	}

	clk.Advance(-6 * time.Minute)
	got, _ := c.GetOrFetch(ctx, "/anime", Params{"q": "bleach"}, countingFetcher(&calls))
	if got != first {
		t.Fatal("failed fetch must not touch the existing entry")
	}
}

func TestClear_ForcesRefetch(t *testing.T) {
	c := New()
	var calls atomic.Int64
	ctx := context.Background()

	_, _ = c.GetOrFetch(ctx, "/top/anime", Params{"page": 1}, countingFetcher(&calls))
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Len())
	}
	_, _ = c.GetOrFetch(ctx, "/top/anime", Params{"page": 1}, countingFetcher(&calls))
	if calls.Load() != 2 {
		t.Fatalf("expected 2 fetches after clear, got %d", calls.Load())
	}
}

func TestClear_DuringFetchStartsNewFetchAndDropsOldResult(t *testing.T) {
	c := New()
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})
	old := func(context.Context) (any, error) {
		close(started)
		<-release
		return &payload{n: 1}, nil
	}

	oldDone := make(chan any, 1)
	go func() {
		v, _ := c.GetOrFetch(ctx, "/top/anime", Params{"page": 1}, old)
		oldDone <- v
	}()
	<-started
	c.Clear()

	var calls atomic.Int64
	calls.Store(1)
	got, err := c.GetOrFetch(ctx, "/top/anime", Params{"page": 1}, countingFetcher(&calls))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.(*payload).n != 2 {
		t.Fatalf("expected a new upstream call after clear, got payload %d", got.(*payload).n)
	}

	close(release)
	if v := <-oldDone; v.(*payload).n != 1 {
		t.Fatalf("expected in-flight caller to get its own result, got %d", v.(*payload).n)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Len())
	}
	again, _ := c.GetOrFetch(ctx, "/top/anime", Params{"page": 1}, countingFetcher(&calls))
	if again != got || calls.Load() != 2 {
		t.Fatalf("expected post-clear payload to stay cached, got %d after %d calls", again.(*payload).n, calls.Load())
	}
}

func TestInvalidate_MarksStaleKeepsEntry(t *testing.T) {
	c := New()
	var calls atomic.Int64
	ctx := context.Background()
	params := Params{"page": 2, "limit": 24}

	_, _ = c.GetOrFetch(ctx, "/seasons/upcoming", params, countingFetcher(&calls))
	c.Invalidate(Key("/seasons/upcoming", params))
	if c.Len() != 1 {
		t.Fatalf("invalidate must not remove the entry, got %d", c.Len())
	}
	_, _ = c.GetOrFetch(ctx, "/seasons/upcoming", params, countingFetcher(&calls))
	if calls.Load() != 2 {
		t.Fatalf("expected refetch after invalidate, got %d fetches", calls.Load())
	}

	c.Invalidate("/not/cached")
	if c.Len() != 1 {
		t.Fatalf("invalidating an unknown key must not add entries, got %d", c.Len())
	}
}

func TestHandleInvalidation(t *testing.T) {
	c := New()
	var calls atomic.Int64
	ctx := context.Background()

	_, _ = c.GetOrFetch(ctx, "/anime/5/full", nil, countingFetcher(&calls))
	_, _ = c.GetOrFetch(ctx, "/anime/6/full", nil, countingFetcher(&calls))

	c.handleInvalidation("/anime/5/full")
	_, _ = c.GetOrFetch(ctx, "/anime/5/full", nil, countingFetcher(&calls))
	_, _ = c.GetOrFetch(ctx, "/anime/6/full", nil, countingFetcher(&calls))
	if calls.Load() != 3 {
		t.Fatalf("expected only the invalidated key to refetch, got %d fetches", calls.Load())
	}

	c.handleInvalidation("all")
	if c.Len() != 0 {
		t.Fatalf("expected ALL to clear, got %d entries", c.Len())
	}
}

func TestGetOrFetch_ConcurrentMissesShareOneFetch(t *testing.T) {
	c := New()
	var calls atomic.Int64
	release := make(chan struct{})
	fetch := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return &payload{n: 1}, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]any, callers)
	started := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started <- struct{}{}
			results[i], _ = c.GetOrFetch(context.Background(), "/anime/1/characters", nil, fetch)
		}(i)
	}
	for i := 0; i < callers; i++ {
		<-started
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("expected 1 upstream fetch, got %d", calls.Load())
	}
	for i, r := range results {
		if r != results[0] {
			t.Fatalf("caller %d got a different payload", i)
		}
	}
}

func TestGetOrFetch_AbandonedCallerStillStores(t *testing.T) {
	c := New()
	release := make(chan struct{})
	fetched := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		<-release
		defer close(fetched)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &payload{n: 7}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.GetOrFetch(ctx, "/anime/7/full", nil, fetch)
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	close(release)
	<-fetched
	deadline := time.Now().Add(time.Second)
	for c.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if c.Len() != 1 {
		t.Fatal("expected detached fetch to complete and store its result")
	}
}

func TestWithMaxEntries_BoundsKeys(t *testing.T) {
	c := New(WithMaxEntries(2))
	var calls atomic.Int64
	ctx := context.Background()

	for _, ep := range []string{"/anime/1/full", "/anime/2/full", "/anime/3/full"} {
		_, _ = c.GetOrFetch(ctx, ep, nil, countingFetcher(&calls))
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	_, _ = c.GetOrFetch(ctx, "/anime/1/full", nil, countingFetcher(&calls))
	if calls.Load() != 4 {
		t.Fatalf("expected evicted key to refetch, got %d fetches", calls.Load())
	}
}

func TestMetrics_HitsAndMisses(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	c := New(WithMeter(mp.Meter("test")))
	var calls atomic.Int64
	ctx := context.Background()
	_, _ = c.GetOrFetch(ctx, "/top/anime", nil, countingFetcher(&calls))
	_, _ = c.GetOrFetch(ctx, "/top/anime", nil, countingFetcher(&calls))
	_, _ = c.GetOrFetch(ctx, "/top/anime", nil, countingFetcher(&calls))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	if got := sumOf(rm, "reqcache.hits"); got != 2 {
		t.Fatalf("expected 2 hits, got %d", got)
	}
	if got := sumOf(rm, "reqcache.misses"); got != 1 {
		t.Fatalf("expected 1 miss, got %d", got)
	}
}

func sumOf(rm metricdata.ResourceMetrics, name string) int64 {
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}
