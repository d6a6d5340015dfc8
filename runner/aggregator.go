package runner

import (
	"fmt"

	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

// Aggregator folds finalized test statuses into suite and run statistics.
// It only reads records; statuses are never re-derived.
type Aggregator struct{}

// FoldSuite computes the suite's stats and status. Every record must be final.
func (Aggregator) FoldSuite(s *types.Suite) error {
	var stats types.Stats
	for _, rec := range s.Tests {
		res, ok := rec.Result()
		if !ok {
			return fmt.Errorf("suite %s: test %s has no result", s.Code(), rec.Definition.Code)
		}
		stats.Add(res.Status)
	}
	s.Stats = stats
	s.Status = stats.Status()
	return nil
}

// FoldRun fills the three run buckets. Suites must already be folded.
func (a Aggregator) FoldRun(r *types.RunRegistry) error {
	var stats types.RunStats
	for _, s := range r.Suites {
		if s.Status == types.TestStatusUnknown {
			return fmt.Errorf("suite %s has not been aggregated", s.Code())
		}
		stats.Suites.Add(s.Status)
		if s.Definition.IsRequirement {
			stats.Requirements.Add(s.Status)
		}
		for _, rec := range s.Tests {
			status := rec.Status()
			stats.Tests.Add(status)
			if rec.Definition.IsRequirement {
				stats.Requirements.Add(status)
			}
		}
	}
	r.Stats = stats
	r.Status = stats.Tests.Status()
	return nil
}
