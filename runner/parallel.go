package runner

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

// runParallel executes records on a bounded pool. Each task owns its record,
// its capture buffers and its child; suites are folded afterwards, in
// declaration order, on the calling goroutine.
func (r *runner) runParallel(ctx context.Context, reg *types.RunRegistry) error {
	records := reg.Records()
	r.log.Info("Starting parallel test execution", "totalTests", len(records), "concurrency", r.concurrency)

	for _, suite := range reg.Suites {
		r.progress.StartSuite(suite.Code(), len(suite.Tests))
	}

	testPool := pool.New().
		WithMaxGoroutines(r.concurrency).
		WithContext(ctx).
		WithCancelOnError()
	for _, rec := range records {
		testPool.Go(func(ctx context.Context) error {
			return r.runTest(ctx, reg.RunID, rec)
		})
	}
	if err := testPool.Wait(); err != nil {
		return fmt.Errorf("parallel execution: %w", err)
	}

	for _, suite := range reg.Suites {
		if err := r.completeSuite(reg.RunID, suite); err != nil {
			return err
		}
	}
	return nil
}
