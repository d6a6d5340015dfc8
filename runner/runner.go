package runner

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/op-exitprobe/logging"
	"github.com/ethereum-optimism/infra/op-exitprobe/metrics"
	"github.com/ethereum-optimism/infra/op-exitprobe/types"
	"github.com/ethereum/go-ethereum/log"
)

// TestRunner drives one RunRegistry to completion
type TestRunner interface {
	// Run executes every record of reg in declaration order and aggregates
	// the results into reg. An error means the harness could not execute a
	// test; statistics are not trustworthy in that case.
	Run(ctx context.Context, reg *types.RunRegistry) error
}

// runner struct implements TestRunner interface
type runner struct {
	executor     TestExecutor
	log          log.Logger
	timeout      time.Duration
	testTimeouts map[string]time.Duration
	concurrency  int
	fileLogger   *logging.FileLogger
	progress     ProgressIndicator
	aggregator   Aggregator
	tracer       trace.Tracer
}

// Config holds configuration for creating a new runner
type Config struct {
	Executor     TestExecutor
	Log          log.Logger
	Timeout      time.Duration            // default per-test bound, zero disables
	TestTimeouts map[string]time.Duration // keyed by "<suite>.<test>", overrides the definition
	Concurrency  int                      // 1 runs sequentially
	FileLogger   *logging.FileLogger      // optional
	Progress     ProgressIndicator        // optional
}

// NewTestRunner creates a new test runner instance
func NewTestRunner(cfg Config) (TestRunner, error) {
	if cfg.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout cannot be negative")
	}
	if cfg.Concurrency < 0 {
		return nil, fmt.Errorf("concurrency cannot be negative")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Concurrency > MaxReasonableConcurrency {
		cfg.Log.Warn("Very high concurrency requested, capping", "concurrency", cfg.Concurrency, "max", MaxReasonableConcurrency)
		cfg.Concurrency = MaxReasonableConcurrency
	}
	if cfg.Progress == nil {
		cfg.Progress = NewNoOpProgressIndicator()
	}

	cfg.Log.Debug("NewTestRunner()", "timeout", cfg.Timeout, "concurrency", cfg.Concurrency,
		"testTimeouts", len(cfg.TestTimeouts))

	return &runner{
		executor:     cfg.Executor,
		log:          cfg.Log,
		timeout:      cfg.Timeout,
		testTimeouts: cfg.TestTimeouts,
		concurrency:  cfg.Concurrency,
		fileLogger:   cfg.FileLogger,
		progress:     cfg.Progress,
		tracer:       otel.Tracer("test runner"),
	}, nil
}

// Run implements the TestRunner interface
func (r *runner) Run(ctx context.Context, reg *types.RunRegistry) error {
	if reg == nil {
		return fmt.Errorf("run registry is required")
	}
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("run %s", reg.RunID))
	defer span.End()

	reg.StartTime = time.Now()
	total := len(reg.Records())
	r.log.Info("Running tests", "runID", reg.RunID, "suites", len(reg.Suites), "tests", total, "concurrency", r.concurrency)
	r.progress.StartRun(reg.RunID, total)
	defer r.progress.CompleteRun(reg.RunID)

	var err error
	if r.concurrency > 1 {
		err = r.runParallel(ctx, reg)
	} else {
		err = r.runSequential(ctx, reg)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "run failed")
		return err
	}

	if err := r.aggregator.FoldRun(reg); err != nil {
		return fmt.Errorf("aggregating run: %w", err)
	}
	reg.Duration = time.Since(reg.StartTime)
	reg.Aborted = reg.Stats.Tests.Aborted > 0
	metrics.RecordRun(reg.RunID, reg.Stats, reg.Duration)

	span.SetAttributes(
		attribute.String("status", string(reg.Status)),
		attribute.Int("tests.total", reg.Stats.Tests.Total),
		attribute.Int("tests.failed", reg.Stats.Tests.Failed),
		attribute.Bool("aborted", reg.Aborted),
	)
	return nil
}

// runSequential executes one child at a time, folding each suite as it completes
func (r *runner) runSequential(ctx context.Context, reg *types.RunRegistry) error {
	for _, suite := range reg.Suites {
		suiteCtx, span := r.tracer.Start(ctx, fmt.Sprintf("suite %s", suite.Code()))
		r.progress.StartSuite(suite.Code(), len(suite.Tests))

		for _, rec := range suite.Tests {
			if err := r.runTest(suiteCtx, reg.RunID, rec); err != nil {
				span.RecordError(err)
				span.End()
				return err
			}
		}
		err := r.completeSuite(reg.RunID, suite)
		span.SetAttributes(attribute.String("status", string(suite.Status)))
		span.End()
		if err != nil {
			return err
		}
	}
	return nil
}

// runTest executes, verifies and finalizes one record. Once ctx is done the
// record is finalized as aborted without being executed.
func (r *runner) runTest(ctx context.Context, runID string, rec *types.TestRecord) error {
	def := rec.Definition
	if ctx.Err() != nil {
		res := Verify(def, types.Outcome{Termination: types.TerminationAborted, ExitCode: -1})
		if err := rec.Finalize(res); err != nil {
			return err
		}
		r.progress.UpdateTest(rec.ID(), res.Status)
		return nil
	}

	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("test %s", rec.ID()))
	defer span.End()

	r.progress.StartTest(rec.ID())
	outcome, err := r.executor.Execute(ctx, rec, r.timeoutFor(rec))
	if err != nil {
		metrics.RecordErrorDetails("execute", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "execution failed")
		return err
	}

	res := Verify(def, outcome)
	if err := rec.Finalize(res); err != nil {
		return err
	}
	span.SetAttributes(
		attribute.String("termination", string(outcome.Termination)),
		attribute.Int("exit_code", outcome.ExitCode),
		attribute.String("status", string(res.Status)),
	)

	metrics.RecordTest(runID, rec.SuiteCode, def.Code, outcome, res.Status)
	r.progress.UpdateTest(rec.ID(), res.Status)
	r.log.Debug("Test verified", "test", rec.ID(), "status", res.Status, "termination", outcome.Termination,
		"exitCode", outcome.ExitCode, "duration", outcome.Duration)
	return nil
}

// completeSuite folds a suite whose records are all final and hands the
// records to the file logger in declaration order
func (r *runner) completeSuite(runID string, suite *types.Suite) error {
	if err := r.aggregator.FoldSuite(suite); err != nil {
		return fmt.Errorf("aggregating suite: %w", err)
	}
	if r.fileLogger != nil {
		for _, rec := range suite.Tests {
			if err := r.fileLogger.LogTestResult(rec, runID); err != nil {
				r.log.Error("Failed to log test result", "test", rec.ID(), "error", err)
			}
		}
	}
	metrics.RecordSuite(runID, suite.Code(), suite.Status)
	r.progress.CompleteSuite(suite.Code(), suite.Status)
	r.log.Info("Suite complete", "suite", suite.Code(), "status", suite.Status,
		"total", suite.Stats.Total, "passed", suite.Stats.Passed, "warnings", suite.Stats.Warnings,
		"failed", suite.Stats.Failed, "aborted", suite.Stats.Aborted)
	return nil
}

// timeoutFor resolves the bound for a test: explicit override, then the
// definition, then the run default
func (r *runner) timeoutFor(rec *types.TestRecord) time.Duration {
	if d, ok := r.testTimeouts[rec.ID()]; ok {
		return d
	}
	if rec.Definition.Timeout > 0 {
		return rec.Definition.Timeout
	}
	return r.timeout
}
