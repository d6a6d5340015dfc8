package runner

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-exitprobe/isolate"
	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

func childRecord(code string) *types.TestRecord {
	return types.NewTestRecord("runner", &types.TestDefinition{Code: code, Func: children[code]})
}

func newTestExecutor(t *testing.T, cfg ExecutorConfig) TestExecutor {
	t.Helper()
	exec, err := NewTestExecutor(cfg)
	require.NoError(t, err)
	return exec
}

func TestExecuteNormalExit(t *testing.T) {
	exec := newTestExecutor(t, ExecutorConfig{})

	outcome, err := exec.Execute(context.Background(), childRecord("exit-one"), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, types.TerminationExited, outcome.Termination)
	assert.Equal(t, 1, outcome.ExitCode)
	assert.Equal(t, "starting\n", outcome.Stdout)
	assert.False(t, outcome.StdoutTruncated)
	assert.Positive(t, outcome.Duration)
}

func TestExecuteUncaughtPanic(t *testing.T) {
	exec := newTestExecutor(t, ExecutorConfig{})

	rec := types.NewTestRecord("runner", &types.TestDefinition{
		Code:   "uncaught",
		Expect: types.Expectation{ExitCode: types.AnyExitCode, Error: "Nobody will catch me."},
	})
	outcome, err := exec.Execute(context.Background(), rec, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.ExitCode)
	assert.Contains(t, outcome.Stderr, "panic: Nobody will catch me.")

	res := Verify(rec.Definition, outcome)
	assert.Equal(t, types.TestStatusPassed, res.Status)
}

func TestExecuteTruncatesCapture(t *testing.T) {
	exec := newTestExecutor(t, ExecutorConfig{StdoutLimit: 10})

	outcome, err := exec.Execute(context.Background(), childRecord("chatty"), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.ExitCode)
	assert.Equal(t, "aaaaaaaaaa", outcome.Stdout)
	assert.True(t, outcome.StdoutTruncated)

	// the fragment fell past the truncation point
	def := &types.TestDefinition{IsCritical: true, Expect: types.Expectation{Output: "TAIL"}}
	assert.True(t, Verify(def, outcome).UnexpectedOutput)
}

func TestExecuteTimeout(t *testing.T) {
	exec := newTestExecutor(t, ExecutorConfig{})

	start := time.Now()
	outcome, err := exec.Execute(context.Background(), childRecord("hang"), 300*time.Millisecond)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 30*time.Second)
	assert.Equal(t, types.TerminationTimedOut, outcome.Termination)
}

func TestExecuteCancelledBeforeStart(t *testing.T) {
	spawned := false
	exec := newTestExecutor(t, ExecutorConfig{
		Spawn: func(ctx context.Context, code string, stdout, stderr io.Writer) (isolate.Exit, error) {
			spawned = true
			return isolate.Exit{}, nil
		},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := exec.Execute(ctx, childRecord("done"), 0)
	require.NoError(t, err)
	assert.False(t, spawned)
	assert.Equal(t, types.TerminationAborted, outcome.Termination)
}

func TestExecuteCancelledWhileRunning(t *testing.T) {
	exec := newTestExecutor(t, ExecutorConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(time.Second, cancel)

	outcome, err := exec.Execute(ctx, childRecord("hang"), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, types.TerminationAborted, outcome.Termination)
	assert.Contains(t, outcome.Stdout, "hanging")
}

func TestExecuteSpawnFailure(t *testing.T) {
	exec := newTestExecutor(t, ExecutorConfig{
		Spawn: func(ctx context.Context, code string, stdout, stderr io.Writer) (isolate.Exit, error) {
			return isolate.Exit{}, &isolate.SpawnError{Code: code, Err: errors.New("resource temporarily unavailable")}
		},
	})

	_, err := exec.Execute(context.Background(), childRecord("done"), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, isolate.ErrSpawn)
}

func TestExecuteSpawnAfterDeadline(t *testing.T) {
	exec := newTestExecutor(t, ExecutorConfig{
		Spawn: func(ctx context.Context, code string, stdout, stderr io.Writer) (isolate.Exit, error) {
			<-ctx.Done()
			return isolate.Exit{}, &isolate.SpawnError{Code: code, Err: ctx.Err()}
		},
	})

	outcome, err := exec.Execute(context.Background(), childRecord("done"), time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, types.TerminationTimedOut, outcome.Termination)
	assert.Equal(t, -1, outcome.ExitCode)
}

func TestExecuteSignaledOutcome(t *testing.T) {
	exec := newTestExecutor(t, ExecutorConfig{
		Spawn: func(ctx context.Context, code string, stdout, stderr io.Writer) (isolate.Exit, error) {
			_, _ = io.WriteString(stderr, "segfault")
			return isolate.Exit{Code: 139, Signaled: true, Signal: "SIGSEGV"}, nil
		},
	})

	outcome, err := exec.Execute(context.Background(), childRecord("done"), 0)
	require.NoError(t, err)
	assert.Equal(t, types.TerminationSignaled, outcome.Termination)
	assert.Equal(t, 139, outcome.ExitCode)
	assert.Equal(t, "SIGSEGV", outcome.Signal)
	assert.Equal(t, "segfault", outcome.Stderr)
}

func TestNewTestExecutorValidation(t *testing.T) {
	_, err := NewTestExecutor(ExecutorConfig{StdoutLimit: -1})
	assert.Error(t, err)

	_, err = NewTestExecutor(ExecutorConfig{})
	assert.NoError(t, err)
}
