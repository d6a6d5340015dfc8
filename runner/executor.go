package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ethereum-optimism/infra/op-exitprobe/isolate"
	"github.com/ethereum-optimism/infra/op-exitprobe/types"
	"github.com/ethereum/go-ethereum/log"
)

var _ TestExecutor = (*testExecutor)(nil)

// TestExecutor runs one test in an isolated context and reports how it terminated.
type TestExecutor interface {
	// Execute runs the record's test function in a fresh child process.
	// A timeout of zero disables the wall clock bound. The returned error is
	// only set when the child could not be created at all.
	Execute(ctx context.Context, rec *types.TestRecord, timeout time.Duration) (types.Outcome, error)
}

// SpawnFunc starts the isolated child for a test code and waits for it.
type SpawnFunc func(ctx context.Context, code string, stdout, stderr io.Writer) (isolate.Exit, error)

// ExecutorConfig holds configuration for creating a new executor
type ExecutorConfig struct {
	StdoutLimit int
	StderrLimit int
	Spawn       SpawnFunc // defaults to isolate.Run
	Log         log.Logger
}

// testExecutor implements TestExecutor
type testExecutor struct {
	stdoutLimit int
	stderrLimit int
	spawn       SpawnFunc
	log         log.Logger
}

// NewTestExecutor creates a new test executor
func NewTestExecutor(cfg ExecutorConfig) (TestExecutor, error) {
	if cfg.StdoutLimit < 0 || cfg.StderrLimit < 0 {
		return nil, fmt.Errorf("capture limits cannot be negative")
	}
	if cfg.StdoutLimit == 0 {
		cfg.StdoutLimit = DefaultStdoutLimit
	}
	if cfg.StderrLimit == 0 {
		cfg.StderrLimit = DefaultStderrLimit
	}
	if cfg.Spawn == nil {
		cfg.Spawn = isolate.Run
	}
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}
	return &testExecutor{
		stdoutLimit: cfg.StdoutLimit,
		stderrLimit: cfg.StderrLimit,
		spawn:       cfg.Spawn,
		log:         cfg.Log,
	}, nil
}

// Execute runs a single test
func (e *testExecutor) Execute(ctx context.Context, rec *types.TestRecord, timeout time.Duration) (types.Outcome, error) {
	if ctx == nil {
		return types.Outcome{}, fmt.Errorf("context cannot be nil")
	}
	if rec == nil || rec.Definition == nil {
		return types.Outcome{}, fmt.Errorf("test record cannot be nil")
	}
	if ctx.Err() != nil {
		return types.Outcome{Termination: types.TerminationAborted, ExitCode: -1}, nil
	}

	var (
		testCtx context.Context
		cancel  context.CancelFunc
	)
	if timeout > 0 {
		testCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		testCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	stdout := NewCaptureBuffer(e.stdoutLimit)
	stderr := NewCaptureBuffer(e.stderrLimit)

	e.log.Debug("Running isolated test", "test", rec.ID(), "timeout", timeout)
	start := time.Now()
	exit, err := e.spawn(testCtx, rec.Definition.Code, stdout, stderr)
	duration := time.Since(start)
	if err != nil {
		if testCtx.Err() == nil {
			return types.Outcome{}, fmt.Errorf("executing %s: %w", rec.ID(), err)
		}
		// the bound expired before the child could start
		exit = isolate.Exit{Code: -1}
	}

	outcome := types.Outcome{
		Termination:     types.TerminationExited,
		ExitCode:        exit.Code,
		Stdout:          stdout.String(),
		Stderr:          stderr.String(),
		StdoutTruncated: stdout.Truncated(),
		StderrTruncated: stderr.Truncated(),
		Duration:        duration,
	}
	if exit.Signaled {
		outcome.Termination = types.TerminationSignaled
		outcome.Signal = exit.Signal
	}

	switch {
	case ctx.Err() != nil:
		outcome.Termination = types.TerminationAborted
	case errors.Is(testCtx.Err(), context.DeadlineExceeded):
		outcome.Termination = types.TerminationTimedOut
		e.log.Warn("Test timed out", "test", rec.ID(), "timeout", timeout)
	}
	return outcome, nil
}
