package engine

import (
	"context"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/namelens/expirywatch/internal/core"
)

// DefaultWorkers bounds concurrent domain resolution when Workers is unset.
const DefaultWorkers = 4

// Resolver resolves one domain into a record. *Chain satisfies it.
type Resolver interface {
	ResolveDomain(ctx context.Context, domain string) core.Record
}

// Assembler builds snapshots by resolving every domain through a Resolver.
type Assembler struct {
	Resolver Resolver
	Workers  int
	Settings core.Settings
	Clock    func() time.Time
	Logger   *logging.Logger
}

// Assemble resolves domains concurrently and returns the ordered snapshot.
// Duplicate and blank domains are dropped. GeneratedAt is stamped once every
// domain has been resolved.
func (a *Assembler) Assemble(ctx context.Context, domains []string) *core.Snapshot {
	if ctx == nil {
		ctx = context.Background()
	}

	unique := uniqueDomains(domains)
	records := make([]core.Record, len(unique))

	started := a.now()
	a.info("assembly started", zap.Int("domains", len(unique)), zap.Int("workers", a.workers()))

	// Resolution never fails as a whole; errors live on the records.
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(a.workers())
	for i, domain := range unique {
		group.Go(func() error {
			records[i] = a.Resolver.ResolveDomain(groupCtx, domain)
			return nil
		})
	}
	_ = group.Wait()

	core.SortRecords(records)

	snapshot := &core.Snapshot{
		GeneratedAt: a.now(),
		Records:     records,
		Settings:    a.Settings,
	}

	a.info("assembly finished",
		zap.Int("domains", len(records)),
		zap.Int("alerts", snapshot.AlertCount()),
		zap.Duration("duration", snapshot.GeneratedAt.Sub(started)))
	return snapshot
}

func (a *Assembler) workers() int {
	if a.Workers > 0 {
		return a.Workers
	}
	return DefaultWorkers
}

func (a *Assembler) info(msg string, fields ...zap.Field) {
	if a.Logger != nil {
		a.Logger.Info(msg, fields...)
	}
}

func (a *Assembler) now() time.Time {
	if a.Clock != nil {
		return a.Clock().UTC()
	}
	return time.Now().UTC()
}

func uniqueDomains(domains []string) []string {
	seen := make(map[string]struct{}, len(domains))
	unique := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain == "" {
			continue
		}
		if _, ok := seen[domain]; ok {
			continue
		}
		seen[domain] = struct{}{}
		unique = append(unique, domain)
	}
	return unique
}
