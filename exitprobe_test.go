package exitprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-exitprobe/logging"
	"github.com/ethereum-optimism/infra/op-exitprobe/registry"
	"github.com/ethereum-optimism/infra/op-exitprobe/reporting"
	"github.com/ethereum-optimism/infra/op-exitprobe/runner"
	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

func newTestConfig(t *testing.T) (*Config, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return &Config{
		Timeout:     10 * time.Second,
		Concurrency: 1,
		StdoutLimit: runner.DefaultStdoutLimit,
		StderrLimit: runner.DefaultStderrLimit,
		Output:      &out,
		Log:         log.NewLogger(log.DiscardHandler()),
	}, &out
}

// shutdownRecorder captures the shutdown callback of a lifecycle
func shutdownRecorder() (context.CancelCauseFunc, <-chan error) {
	ch := make(chan error, 1)
	return func(err error) { ch <- err }, ch
}

func TestNewSelectionErrors(t *testing.T) {
	reg := newTestRegistry()

	tests := []struct {
		name string
		sel  types.Selection
		plan *registry.Plan
	}{
		{name: "unknown suite", sel: types.Selection{Suite: "nope"}},
		{name: "unknown test", sel: types.Selection{Suite: "basic", Test: "nope"}},
		{name: "test without suite", sel: types.Selection{Test: "ok"}},
		{name: "plan references unknown test", plan: &registry.Plan{Tests: map[string]registry.TestPlan{"basic.nope": {}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _ := newTestConfig(t)
			cfg.Selection = tt.sel
			cfg.Plan = tt.plan
			_, err := New(cfg, reg, "test", nil)
			require.Error(t, err)
			assert.True(t, IsSelectionError(err), err)
		})
	}
}

func TestNewRuntimeErrors(t *testing.T) {
	cfg, _ := newTestConfig(t)
	cfg.Concurrency = 0
	_, err := New(cfg, newTestRegistry(), "test", nil)
	assert.True(t, IsRuntimeError(err))

	_, err = New(nil, newTestRegistry(), "test", nil)
	assert.Error(t, err)
}

func TestStartWritesReportAndLogs(t *testing.T) {
	dir := t.TempDir()
	cfg, out := newTestConfig(t)
	cfg.ReportPath = filepath.Join(dir, "report.json")
	cfg.LogDir = filepath.Join(dir, "logs")
	cfg.StdoutPath = filepath.Join(dir, "stdout.log")
	cfg.Concurrency = 2

	shutdown, called := shutdownRecorder()
	p, err := New(cfg, newTestRegistry(), "test", shutdown)
	require.NoError(t, err)
	require.NoError(t, p.Start(context.Background()))
	assert.True(t, p.Stopped())

	select {
	case err := <-called:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown callback was not called")
	}

	reg := p.Result()
	require.NotNil(t, reg)
	statuses := make(map[string]types.TestStatus)
	for _, rec := range reg.Records() {
		statuses[rec.ID()] = rec.Status()
	}
	assert.Equal(t, map[string]types.TestStatus{
		"basic.ok":      types.TestStatusPassed,
		"basic.soft":    types.TestStatusWarning,
		"crashes.panic": types.TestStatusFailed,
	}, statuses)
	assert.Equal(t, types.TestStatusFailed, reg.Status)
	assert.Equal(t, types.Stats{Total: 2, Warnings: 1, Failed: 1}, reg.Stats.Suites)
	assert.Equal(t, types.Stats{Total: 1, Failed: 1}, reg.Stats.Requirements)

	data, err := os.ReadFile(cfg.ReportPath)
	require.NoError(t, err)
	var rep reporting.Report
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Equal(t, reg.RunID, rep.RunID)
	assert.Equal(t, []string{"crashes.panic"}, rep.FailedTests)

	runDir := filepath.Join(cfg.LogDir, logging.RunDirectoryPrefix+reg.RunID)
	assert.FileExists(t, filepath.Join(runDir, "failed", "crashes.panic.log"))
	assert.FileExists(t, filepath.Join(runDir, "warning", "basic.soft.log"))
	assert.FileExists(t, filepath.Join(runDir, logging.SummaryFilename))

	stdout, err := os.ReadFile(cfg.StdoutPath)
	require.NoError(t, err)
	assert.Contains(t, string(stdout), "ok_marker")

	assert.Contains(t, out.String(), "crashes")
	assert.Contains(t, out.String(), "TOTAL")
}

func TestStartStrict(t *testing.T) {
	cfg, _ := newTestConfig(t)
	cfg.Strict = true

	p, err := New(cfg, newTestRegistry(), "test", nil)
	require.NoError(t, err)
	err = p.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsTestFailureError(err))

	cfg, _ = newTestConfig(t)
	cfg.Strict = true
	cfg.Selection = types.Selection{Suite: "basic"}
	p, err = New(cfg, newTestRegistry(), "test", nil)
	require.NoError(t, err)
	assert.NoError(t, p.Start(context.Background()), "warnings do not fail a strict run")
}

func TestStartAborted(t *testing.T) {
	cfg, _ := newTestConfig(t)
	cfg.ReportPath = filepath.Join(t.TempDir(), "report.txt")

	p, err := New(cfg, newTestRegistry(), "test", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = p.Start(ctx)
	require.Error(t, err)
	assert.True(t, IsAbortedError(err))

	reg := p.Result()
	require.NotNil(t, reg)
	assert.True(t, reg.Aborted)
	assert.Equal(t, types.Stats{Total: 3, Aborted: 3}, reg.Stats.Tests)

	data, err := os.ReadFile(cfg.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ABORTED")
}

func TestStartList(t *testing.T) {
	cfg, out := newTestConfig(t)
	cfg.List = true

	shutdown, called := shutdownRecorder()
	p, err := New(cfg, newTestRegistry(), "test", shutdown)
	require.NoError(t, err)
	require.NoError(t, p.Start(context.Background()))
	<-called

	assert.Nil(t, p.Result(), "listing runs nothing")
	listing := strings.ToLower(out.String())
	for _, want := range []string{"probe-test", "basic", "ok", "crashes (requirement)", "test,critical", "2 suites", "3 tests"} {
		assert.Contains(t, listing, want)
	}
}

func TestStartRepeat(t *testing.T) {
	dir := t.TempDir()
	cfg, _ := newTestConfig(t)
	cfg.Repeat = 2
	cfg.Selection = types.Selection{Suite: "basic"}
	cfg.ReportPath = filepath.Join(dir, "report.html")

	p, err := New(cfg, newTestRegistry(), "test", nil)
	require.NoError(t, err)
	require.NoError(t, p.Start(context.Background()))

	assert.FileExists(t, cfg.ReportPath)
	data, err := os.ReadFile(filepath.Join(dir, "report.stability.json"))
	require.NoError(t, err)

	var stability runner.StabilityReport
	require.NoError(t, json.Unmarshal(data, &stability))
	assert.Equal(t, 2, stability.Completed)
	assert.Zero(t, stability.Unstable)
	require.Len(t, stability.Tests, 2)
	assert.Equal(t, runner.RecommendationStable, stability.Tests[0].Recommendation)
	assert.Equal(t, stability.RunIDs[1], p.Result().RunID)
}
