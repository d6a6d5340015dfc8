package exitprobe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/ethereum-optimism/infra/op-exitprobe/isolate"
	"github.com/ethereum-optimism/infra/op-exitprobe/logging"
	"github.com/ethereum-optimism/infra/op-exitprobe/metrics"
	"github.com/ethereum-optimism/infra/op-exitprobe/registry"
	"github.com/ethereum-optimism/infra/op-exitprobe/reporting"
	"github.com/ethereum-optimism/infra/op-exitprobe/runner"
	"github.com/ethereum-optimism/infra/op-exitprobe/service"
	"github.com/ethereum-optimism/infra/op-exitprobe/types"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
)

// probe implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &probe{}

// probe runs one selection of a test collection and reports on it.
type probe struct {
	config   *Config
	version  string
	registry *registry.Registry

	// result of the last completed run, nil before Start
	result *types.RunRegistry

	running atomic.Bool

	shutdownCallback context.CancelCauseFunc // signals application shutdown
}

// New checks the configuration against the registry. Selection problems are
// reported as SelectionError before anything executes.
func New(config *Config, reg *registry.Registry, version string, shutdownCallback context.CancelCauseFunc) (*probe, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if reg == nil {
		return nil, errors.New("registry is required")
	}
	if err := config.Check(); err != nil {
		return nil, NewRuntimeError(err)
	}

	config.Log.Debug("Creating exitprobe with config",
		"collection", reg.Name(),
		"selection", config.Selection,
		"timeout", config.Timeout,
		"concurrency", config.Concurrency,
		"repeat", config.Repeat,
		"plan", config.PlanPath)

	if config.Plan != nil {
		if err := config.Plan.Validate(reg); err != nil {
			if isSelectionProblem(err) {
				return nil, NewSelectionError(err)
			}
			return nil, NewRuntimeError(fmt.Errorf("invalid plan: %w", err))
		}
	}
	// build and discard a run to resolve the selection up front
	if _, err := reg.NewRun("selection-check", config.Selection); err != nil {
		if isSelectionProblem(err) {
			return nil, NewSelectionError(err)
		}
		return nil, NewRuntimeError(err)
	}

	if shutdownCallback == nil {
		shutdownCallback = func(error) {}
	}
	return &probe{
		config:           config,
		version:          version,
		registry:         reg,
		shutdownCallback: shutdownCallback,
	}, nil
}

func isSelectionProblem(err error) bool {
	return errors.Is(err, types.ErrInvalidSelection) ||
		errors.Is(err, registry.ErrUnknownSuite) ||
		errors.Is(err, registry.ErrUnknownTest)
}

// Start runs the selection to completion, then asks the application to shut
// down. Start implements the cliapp.Lifecycle interface.
func (p *probe) Start(ctx context.Context) error {
	p.running.Store(true)
	defer p.running.Store(false)

	if p.config.List {
		if err := PrintCollection(p.config.Output, p.registry); err != nil {
			return NewRuntimeError(err)
		}
		go p.shutdownCallback(nil)
		return nil
	}

	if p.config.Metrics.Enabled {
		addr := net.JoinHostPort(p.config.Metrics.ListenAddr, strconv.Itoa(p.config.Metrics.ListenPort))
		svc := service.New(addr, nil, p.config.Log)
		if err := svc.Start(ctx); err != nil {
			return NewRuntimeError(err)
		}
		defer func() {
			if err := svc.Shutdown(context.Background()); err != nil {
				p.config.Log.Warn("Failed to stop metrics server", "err", err)
			}
		}()
	}

	runID := uuid.New().String()
	p.config.Log.Info("Starting exitprobe", "version", p.version, "runID", runID,
		"collection", p.registry.Name(), "selection", p.config.Selection)

	reg, err := p.run(ctx, runID)
	if err != nil {
		metrics.RecordError("run")
		p.config.Log.Error("Runtime error running tests", "error", err)
		return NewRuntimeError(err)
	}
	p.result = reg

	if err := p.report(reg); err != nil {
		return NewRuntimeError(err)
	}
	p.config.Log.Info("Test run completed", "runID", reg.RunID, "status", reg.Status,
		"passed", reg.Stats.Tests.Passed, "warnings", reg.Stats.Tests.Warnings,
		"failed", reg.Stats.Tests.Failed, "aborted", reg.Stats.Tests.Aborted)

	if reg.Aborted {
		p.config.Log.Warn("Run was interrupted", "runID", reg.RunID)
		return &AbortedError{RunID: reg.RunID}
	}
	if p.config.Strict && reg.HasFailures() {
		p.config.Log.Warn("Test run completed with failures, returning exit code 1")
		return NewTestFailureError(fmt.Sprintf("%d of %d tests failed", reg.Stats.Tests.Failed, reg.Stats.Tests.Total))
	}

	go p.shutdownCallback(nil)
	return nil
}

// run executes the selection once, or repeatedly in repeat mode, and returns
// the registry the report is built from
func (p *probe) run(ctx context.Context, runID string) (*types.RunRegistry, error) {
	fileLogger, err := logging.NewFileLogger(logging.Config{
		BaseDir:    p.config.LogDir,
		StdoutPath: p.config.StdoutPath,
		StderrPath: p.config.StderrPath,
	}, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to create file logger: %w", err)
	}

	executor, err := runner.NewTestExecutor(runner.ExecutorConfig{
		StdoutLimit: p.config.StdoutLimit,
		StderrLimit: p.config.StderrLimit,
		Log:         p.config.Log.New("component", "executor"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create executor: %w", err)
	}

	var progress runner.ProgressIndicator
	if p.config.ShowProgress {
		progress = runner.NewConsoleProgressIndicator(p.config.Log, p.config.ProgressInterval)
	}
	testRunner, err := runner.NewTestRunner(runner.Config{
		Executor:     executor,
		Log:          p.config.Log.New("component", "runner"),
		Timeout:      p.config.Timeout,
		TestTimeouts: p.config.TestTimeouts,
		Concurrency:  p.config.Concurrency,
		FileLogger:   fileLogger,
		Progress:     progress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create test runner: %w", err)
	}

	var reg *types.RunRegistry
	if p.config.Repeat > 1 {
		reg, err = p.repeat(ctx, testRunner, runID)
	} else {
		reg, err = p.registry.NewRun(runID, p.config.Selection)
		if err == nil {
			err = testRunner.Run(ctx, reg)
		}
	}
	if err != nil {
		if errors.Is(err, isolate.ErrSpawn) {
			return nil, fmt.Errorf("test isolation unavailable: %w", err)
		}
		return nil, err
	}

	summary, err := reporting.NewTableFormatter(fmt.Sprintf("%s: run %s", reg.Name, reg.RunID), false, false).
		Format(reporting.NewReport(reg))
	if err == nil {
		err = fileLogger.LogSummary(summary, runID)
	}
	if err != nil {
		p.config.Log.Error("Failed to write run summary", "error", err)
	}
	if err := fileLogger.Complete(runID); err != nil {
		return nil, fmt.Errorf("failed to complete file logger: %w", err)
	}
	return reg, nil
}

// repeat runs the selection several times on fresh records and saves the
// stability report next to the report file or in the log directory
func (p *probe) repeat(ctx context.Context, testRunner runner.TestRunner, runID string) (*types.RunRegistry, error) {
	iteration := 0
	rr := runner.NewRepeatRunner(testRunner, p.config.Repeat, p.config.Log.New("component", "repeat"))
	stability, err := rr.Run(ctx, func() (*types.RunRegistry, error) {
		iteration++
		return p.registry.NewRun(fmt.Sprintf("%s-%d", runID, iteration), p.config.Selection)
	})
	if err != nil {
		return nil, err
	}
	if stability.Last == nil {
		return nil, errors.New("no iteration was started")
	}

	for _, t := range stability.Tests {
		if t.Recommendation == runner.RecommendationUnstable {
			p.config.Log.Warn("Unstable test", "test", t.ID, "counts", t.Counts, "exitCodes", t.ExitCodes)
		}
	}
	if path := p.stabilityReportPath(runID); path != "" {
		if err := runner.SaveStabilityReport(stability, path); err != nil {
			return nil, err
		}
		p.config.Log.Info("Saved stability report", "path", path)
	}
	return stability.Last, nil
}

func (p *probe) stabilityReportPath(runID string) string {
	switch {
	case p.config.ReportPath != "":
		ext := filepath.Ext(p.config.ReportPath)
		return strings.TrimSuffix(p.config.ReportPath, ext) + ".stability.json"
	case p.config.LogDir != "":
		return filepath.Join(p.config.LogDir, logging.RunDirectoryPrefix+runID, "stability.json")
	default:
		return ""
	}
}

// report prints the table and writes the report file
func (p *probe) report(reg *types.RunRegistry) error {
	rep := reporting.NewReport(reg)
	if err := reporting.PrintTable(p.config.Output, rep, true); err != nil {
		return fmt.Errorf("failed to print results: %w", err)
	}
	if p.config.ReportPath == "" {
		return nil
	}
	if err := reporting.WriteReport(p.config.ReportPath, rep); err != nil {
		return err
	}
	p.config.Log.Info("Wrote report", "path", p.config.ReportPath, "format", reporting.FormatForPath(p.config.ReportPath))
	return nil
}

// Stop implements the cliapp.Lifecycle interface. The run itself is stopped
// through the context handed to Start.
func (p *probe) Stop(ctx context.Context) error {
	p.config.Log.Info("Stopping exitprobe")
	p.running.Store(false)
	return nil
}

// Stopped implements the cliapp.Lifecycle interface.
func (p *probe) Stopped() bool {
	return !p.running.Load()
}

// Result returns the registry of the last completed run
func (p *probe) Result() *types.RunRegistry {
	return p.result
}
