// Package cache holds the process-wide snapshot and decides when a read
// must trigger a new assembly.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/namelens/expirywatch/internal/core"
)

// DefaultInterval matches the default REFRESH_MINUTES.
const DefaultInterval = 360 * time.Minute

const refreshKey = "snapshot"

// Builder assembles a snapshot for a domain list. *engine.Assembler
// satisfies it.
type Builder interface {
	Assemble(ctx context.Context, domains []string) *core.Snapshot
}

// Observer is notified after every completed refresh.
type Observer interface {
	ObserveRefresh(snapshot *core.Snapshot, duration time.Duration)
}

// RefreshCache serves the last snapshot until it is older than Interval.
// At most one refresh runs at a time; concurrent stale readers share its
// result.
type RefreshCache struct {
	Builder  Builder
	Domains  []string
	Interval time.Duration
	Clock    func() time.Time
	Logger   *logging.Logger
	Observer Observer

	mu       sync.RWMutex
	snapshot *core.Snapshot
	created  time.Time

	group singleflight.Group
}

// Snapshot returns the cached snapshot, rebuilding it first when the cache is
// empty, stale, or force is set. Refreshes are not cancellable: ctx only
// carries values into the build.
func (c *RefreshCache) Snapshot(ctx context.Context, force bool) *core.Snapshot {
	if ctx == nil {
		ctx = context.Background()
	}

	if !force {
		if snapshot, ok := c.fresh(); ok {
			return snapshot
		}
	}

	value, _, _ := c.group.Do(refreshKey, func() (any, error) {
		// A refresh that finished while this caller queued is good enough
		// unless the caller asked for a new one.
		if !force {
			if snapshot, ok := c.fresh(); ok {
				return snapshot, nil
			}
		}
		return c.refresh(context.WithoutCancel(ctx)), nil
	})

	snapshot, _ := value.(*core.Snapshot)
	return snapshot
}

// Current returns the cached snapshot without refreshing. It is nil before
// the first refresh.
func (c *RefreshCache) Current() *core.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Age returns the time since the cached snapshot was built.
func (c *RefreshCache) Age() (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return 0, false
	}
	return c.now().Sub(c.created), true
}

func (c *RefreshCache) fresh() (*core.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snapshot == nil {
		return nil, false
	}
	if c.now().Sub(c.created) >= c.interval() {
		return c.snapshot, false
	}
	return c.snapshot, true
}

func (c *RefreshCache) refresh(ctx context.Context) *core.Snapshot {
	started := c.now()
	if c.Logger != nil {
		c.Logger.Info("refreshing snapshot", zap.Int("domains", len(c.Domains)))
	}

	snapshot := c.Builder.Assemble(ctx, c.Domains)
	finished := c.now()
	if snapshot == nil {
		return c.Current()
	}

	c.mu.Lock()
	c.snapshot = snapshot
	c.created = finished
	c.mu.Unlock()

	duration := finished.Sub(started)
	if c.Observer != nil {
		c.Observer.ObserveRefresh(snapshot, duration)
	}
	if c.Logger != nil {
		c.Logger.Info("snapshot refreshed",
			zap.Int("records", len(snapshot.Records)),
			zap.Int("alerts", snapshot.AlertCount()),
			zap.Duration("duration", duration))
	}
	return snapshot
}

func (c *RefreshCache) interval() time.Duration {
	if c.Interval > 0 {
		return c.Interval
	}
	return DefaultInterval
}

// now uses the monotonic clock unless a test clock is injected.
func (c *RefreshCache) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}
