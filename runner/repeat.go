package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/ethereum-optimism/infra/op-exitprobe/types"
	"github.com/ethereum/go-ethereum/log"
)

const (
	RecommendationStable   = "STABLE"
	RecommendationUnstable = "UNSTABLE"
)

// StabilityResult aggregates one test across repeated runs
type StabilityResult struct {
	ID             string        `json:"id"`
	Suite          string        `json:"suite"`
	Test           string        `json:"test"`
	TotalRuns      int           `json:"total_runs"`
	Counts         types.Stats   `json:"counts"`
	ExitCodes      []int         `json:"exit_codes"`
	AvgDuration    time.Duration `json:"avg_duration"`
	MinDuration    time.Duration `json:"min_duration"`
	MaxDuration    time.Duration `json:"max_duration"`
	Recommendation string        `json:"recommendation"`
}

// StabilityReport is the outcome of running the same selection several times
type StabilityReport struct {
	Iterations  int               `json:"iterations"`
	Completed   int               `json:"completed"`
	RunIDs      []string          `json:"run_ids"`
	Tests       []StabilityResult `json:"tests"`
	Unstable    int               `json:"unstable"`
	GeneratedAt time.Time         `json:"generated_at"`

	// Last is the registry of the final completed iteration
	Last *types.RunRegistry `json:"-"`
}

// RunFactory builds a fresh registry, with unset records, for each iteration
type RunFactory func() (*types.RunRegistry, error)

// RepeatRunner wraps a TestRunner to check that statuses are reproducible
type RepeatRunner struct {
	baseRunner TestRunner
	iterations int
	log        log.Logger
}

// NewRepeatRunner creates a new repeat runner
func NewRepeatRunner(baseRunner TestRunner, iterations int, log log.Logger) *RepeatRunner {
	return &RepeatRunner{
		baseRunner: baseRunner,
		iterations: iterations,
		log:        log,
	}
}

// Run executes iterations runs and compares the statuses of each test.
// It stops early when ctx is cancelled and reports what completed.
func (f *RepeatRunner) Run(ctx context.Context, newRun RunFactory) (*StabilityReport, error) {
	if f.iterations < 1 {
		return nil, fmt.Errorf("iterations must be at least 1, got %d", f.iterations)
	}
	f.log.Info("Starting stability analysis", "iterations", f.iterations)

	report := &StabilityReport{Iterations: f.iterations}
	var order []string
	results := make(map[string]*StabilityResult)

	for i := 1; i <= f.iterations; i++ {
		if ctx.Err() != nil {
			break
		}
		f.log.Info("Running iteration", "iteration", i, "total", f.iterations)

		reg, err := newRun()
		if err != nil {
			return nil, fmt.Errorf("building run %d: %w", i, err)
		}
		if err := f.baseRunner.Run(ctx, reg); err != nil {
			return nil, fmt.Errorf("iteration %d: %w", i, err)
		}
		if reg.Aborted {
			// an interrupted iteration says nothing about stability
			report.Last = reg
			break
		}

		for _, rec := range reg.Records() {
			res, ok := rec.Result()
			if !ok {
				continue
			}
			sr, seen := results[rec.ID()]
			if !seen {
				sr = &StabilityResult{
					ID:          rec.ID(),
					Suite:       rec.SuiteCode,
					Test:        rec.Definition.Code,
					MinDuration: res.Outcome.Duration,
				}
				results[rec.ID()] = sr
				order = append(order, rec.ID())
			}
			sr.add(res)
		}
		report.Completed++
		report.RunIDs = append(report.RunIDs, reg.RunID)
		report.Last = reg
	}

	for _, id := range order {
		sr := results[id]
		sr.finish()
		if sr.Recommendation == RecommendationUnstable {
			report.Unstable++
		}
		report.Tests = append(report.Tests, *sr)
	}
	report.GeneratedAt = time.Now()

	f.log.Info("Stability analysis complete", "completed", report.Completed, "tests", len(report.Tests), "unstable", report.Unstable)
	return report, nil
}

func (s *StabilityResult) add(res *types.TestResult) {
	s.TotalRuns++
	s.Counts.Add(res.Status)
	if !slices.Contains(s.ExitCodes, res.Outcome.ExitCode) {
		s.ExitCodes = append(s.ExitCodes, res.Outcome.ExitCode)
	}
	d := res.Outcome.Duration
	s.AvgDuration += d // summed until finish
	s.MinDuration = min(s.MinDuration, d)
	s.MaxDuration = max(s.MaxDuration, d)
}

// finish computes averages and the recommendation. A test is stable when
// every run produced the same status.
func (s *StabilityResult) finish() {
	if s.TotalRuns > 0 {
		s.AvgDuration /= time.Duration(s.TotalRuns)
	}
	distinct := 0
	for _, n := range []int{s.Counts.Passed, s.Counts.Warnings, s.Counts.Failed, s.Counts.Aborted} {
		if n > 0 {
			distinct++
		}
	}
	s.Recommendation = RecommendationStable
	if distinct > 1 {
		s.Recommendation = RecommendationUnstable
	}
}

// SaveStabilityReport writes the report as indented JSON
func SaveStabilityReport(report *StabilityReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stability report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write stability report %s: %w", path, err)
	}
	return nil
}
