// Package isolate runs registered test functions in child copies of the
// current executable, so that a test which panics, exits or is killed by a
// signal cannot take the harness down with it.
//
// The harness re-executes itself with a reserved first argument naming the
// test. MaybeExec must run at the very start of main (and of TestMain in test
// binaries) so the child dispatches to the test instead of starting the CLI.
package isolate

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ethereum-optimism/infra/op-exitprobe/types"
	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
)

// prefix of the first argument when the process is an isolated test child.
const entryArgPrefix = "_EXITPROBE_TEST_"

// ExitUnknownEntrypoint is the child exit code for a test code nobody registered.
const ExitUnknownEntrypoint = 127

// DefaultWaitDelay bounds how long output pipes are drained after the child
// has been killed.
const DefaultWaitDelay = 2 * time.Second

// ErrSpawn is matched by every error that prevented a child from starting.
var ErrSpawn = errors.New("cannot spawn isolated test process")

// SpawnError describes a failed child start for one test.
type SpawnError struct {
	Code string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("%s (test %s): %v", ErrSpawn, e.Code, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

func (e *SpawnError) Is(target error) bool { return target == ErrSpawn }

// LookupFunc resolves a test code to its function.
type LookupFunc func(code string) (types.TestFunc, bool)

// MaybeExec runs the requested test and exits if this process was started as
// an isolated child. Otherwise it returns immediately.
func MaybeExec(lookup LookupFunc) {
	code, ok := dispatch(os.Args, lookup)
	if !ok {
		return
	}
	os.Exit(code)
}

// dispatch returns the child exit code and true when args request a test.
// A test that panics or calls os.Exit never returns here.
func dispatch(args []string, lookup LookupFunc) (int, bool) {
	if len(args) < 2 || !strings.HasPrefix(args[1], entryArgPrefix) {
		return 0, false
	}
	code := strings.TrimPrefix(args[1], entryArgPrefix)
	fn, ok := lookup(code)
	if !ok || fn == nil {
		fmt.Fprintf(os.Stderr, "exitprobe: unknown test entrypoint %q\n", code)
		return ExitUnknownEntrypoint, true
	}
	return fn(), true
}

// Command prepares the child process for the test code. The child runs in
// its own process group where supported, and cancelling ctx kills the whole
// group. Trace context from ctx is propagated through the environment.
func Command(ctx context.Context, code string) (*exec.Cmd, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, &SpawnError{Code: code, Err: errors.Wrap(err, "resolving executable")}
	}
	cmd := exec.CommandContext(ctx, exe, entryArgPrefix+code)
	cmd.Env = telemetry.InstrumentEnvironment(ctx, os.Environ())
	cmd.SysProcAttr = sysProcAttr()
	cmd.Cancel = func() error {
		return killGroup(cmd.Process)
	}
	cmd.WaitDelay = DefaultWaitDelay
	return cmd, nil
}

// Exit is how a child process terminated.
type Exit struct {
	Code     int
	Signaled bool
	Signal   string
}

// Run starts the child for code, streams its output to stdout and stderr and
// waits for it to terminate. Only a failure to start the child is returned as
// an error; any termination of a started child is reported through Exit.
func Run(ctx context.Context, code string, stdout, stderr io.Writer) (Exit, error) {
	cmd, err := Command(ctx, code)
	if err != nil {
		return Exit{}, err
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return Exit{}, &SpawnError{Code: code, Err: errors.Wrapf(err, "starting %s", cmd.Path)}
	}

	waitErr := cmd.Wait()
	if cmd.ProcessState == nil {
		return Exit{}, &SpawnError{Code: code, Err: errors.Wrap(waitErr, "waiting for child")}
	}
	return exitStatus(cmd.ProcessState), nil
}
