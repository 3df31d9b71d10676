package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/namelens/expirywatch/internal/core"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (m *manualClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *manualClock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

type countingBuilder struct {
	clock   *manualClock
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (b *countingBuilder) Assemble(ctx context.Context, domains []string) *core.Snapshot {
	b.calls.Add(1)
	if b.started != nil {
		b.started <- struct{}{}
	}
	if b.release != nil {
		<-b.release
	}
	records := make([]core.Record, 0, len(domains))
	for _, domain := range domains {
		records = append(records, core.Record{Domain: domain, ErrorReason: "no-expiration-in-source"})
	}
	return &core.Snapshot{GeneratedAt: b.clock.Now(), Records: records}
}

type refreshObserver struct {
	count atomic.Int32
}

func (o *refreshObserver) ObserveRefresh(*core.Snapshot, time.Duration) {
	o.count.Add(1)
}

func newTestCache() (*RefreshCache, *countingBuilder, *manualClock) {
	clock := &manualClock{now: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
	builder := &countingBuilder{clock: clock}
	cache := &RefreshCache{
		Builder:  builder,
		Domains:  []string{"example.com"},
		Interval: time.Hour,
		Clock:    clock.Now,
	}
	return cache, builder, clock
}

func TestSnapshotFirstReadBuilds(t *testing.T) {
	cache, builder, _ := newTestCache()
	require.Nil(t, cache.Current())

	snapshot := cache.Snapshot(context.Background(), false)

	require.NotNil(t, snapshot)
	require.Equal(t, int32(1), builder.calls.Load())
	require.Same(t, snapshot, cache.Current())
}

func TestSnapshotServedWithinInterval(t *testing.T) {
	cache, builder, clock := newTestCache()

	first := cache.Snapshot(context.Background(), false)
	clock.Advance(59 * time.Minute)
	second := cache.Snapshot(context.Background(), false)

	require.Same(t, first, second)
	require.Equal(t, first.GeneratedAt, second.GeneratedAt)
	require.Equal(t, int32(1), builder.calls.Load())

	age, ok := cache.Age()
	require.True(t, ok)
	require.Equal(t, 59*time.Minute, age)
}

func TestSnapshotRefreshesWhenStale(t *testing.T) {
	cache, builder, clock := newTestCache()

	first := cache.Snapshot(context.Background(), false)
	clock.Advance(time.Hour)
	second := cache.Snapshot(context.Background(), false)

	require.NotSame(t, first, second)
	require.True(t, second.GeneratedAt.After(first.GeneratedAt))
	require.Equal(t, int32(2), builder.calls.Load())
}

func TestSnapshotForceRefreshes(t *testing.T) {
	cache, builder, _ := newTestCache()
	observer := &refreshObserver{}
	cache.Observer = observer

	first := cache.Snapshot(context.Background(), false)
	second := cache.Snapshot(context.Background(), true)

	require.NotSame(t, first, second)
	require.Equal(t, int32(2), builder.calls.Load())
	require.Equal(t, int32(2), observer.count.Load())
}

func TestSnapshotSingleRefreshForConcurrentStaleReaders(t *testing.T) {
	cache, builder, clock := newTestCache()
	cache.Snapshot(context.Background(), false)
	clock.Advance(2 * time.Hour)

	builder.started = make(chan struct{}, 1)
	builder.release = make(chan struct{})

	const readers = 16
	results := make([]*core.Snapshot, readers)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = cache.Snapshot(context.Background(), false)
	}()
	<-builder.started

	for i := 1; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cache.Snapshot(context.Background(), false)
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(builder.release)
	wg.Wait()

	require.Equal(t, int32(2), builder.calls.Load())
	for i := 1; i < readers; i++ {
		require.Same(t, results[0], results[i])
	}
}

func TestSnapshotFreshReadDoesNotBlockOnRefresh(t *testing.T) {
	cache, builder, _ := newTestCache()
	cache.Snapshot(context.Background(), false)

	builder.started = make(chan struct{}, 1)
	builder.release = make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		cache.Snapshot(context.Background(), true)
	}()
	<-builder.started

	// The old snapshot is still fresh and is served while the forced
	// refresh is in flight.
	current := cache.Snapshot(context.Background(), false)
	require.NotNil(t, current)

	close(builder.release)
	<-done
	require.Equal(t, int32(2), builder.calls.Load())
}

func TestSnapshotIgnoresCancelledContext(t *testing.T) {
	cache, _, _ := newTestCache()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snapshot := cache.Snapshot(ctx, false)
	require.NotNil(t, snapshot)
}

// flakyBuilder returns a snapshot on the first build and nil afterwards.
type flakyBuilder struct {
	calls atomic.Int32
}

func (b *flakyBuilder) Assemble(context.Context, []string) *core.Snapshot {
	if b.calls.Add(1) > 1 {
		return nil
	}
	return &core.Snapshot{GeneratedAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestRefreshCacheKeepsSnapshotWhenBuildFails(t *testing.T) {
	builder := &flakyBuilder{}
	cache := &RefreshCache{Builder: builder, Domains: []string{"example.com"}, Interval: time.Hour}

	first := cache.Snapshot(context.Background(), false)
	require.NotNil(t, first)

	second := cache.Snapshot(context.Background(), true)
	require.Same(t, first, second)
	require.Same(t, first, cache.Current())
	require.EqualValues(t, 2, builder.calls.Load())
}
