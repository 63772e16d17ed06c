// Package runner fans independent chain instances out over input
// partitions. Blocks within one chain are strictly sequential; partitions
// are independent once each has its own registry, provider, and sink, so
// they parallelize without shared mutable state.
package runner

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/patgo25/pygama/internal/ctxlog"
	"github.com/patgo25/pygama/internal/executor"
)

// PartitionFunc processes one partition end to end and reports its totals.
// It must build a fresh chain (own parameter registry) per call; sharing
// buffers across partitions breaks the exclusive-ownership invariant.
type PartitionFunc func(ctx context.Context, partition int) (executor.Stats, error)

// Partitions runs n partitions concurrently and returns the aggregated
// totals plus the first error. A failing partition cancels the rest at
// their next block boundary.
func Partitions(ctx context.Context, n int, run PartitionFunc) (executor.Stats, error) {
	logger := ctxlog.FromContext(ctx)

	var mu sync.Mutex
	var total executor.Stats

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			logger.Debug("Partition starting.", "partition", i)
			stats, err := run(ctx, i)
			if err != nil {
				return err
			}
			mu.Lock()
			total.Blocks += stats.Blocks
			total.Rows += stats.Rows
			total.MaskedRows += stats.MaskedRows
			mu.Unlock()
			logger.Debug("Partition finished.", "partition", i, "rows", stats.Rows)
			return nil
		})
	}
	err := g.Wait()
	return total, err
}
