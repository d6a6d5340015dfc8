package runner

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

func TestRepeatRunnerFlagsUnstableTests(t *testing.T) {
	exec := cannedExecutor()
	iteration := 0
	exec.onRun = func(code string) {
		if code == "a" {
			iteration++
		}
	}
	// "d" flips between passing and failing
	base := &flipExecutor{fakeExecutor: exec, flipCode: "d"}
	r := newRunner(t, Config{Executor: base})

	repeat := NewRepeatRunner(r, 4, log.NewLogger(log.DiscardHandler()))
	report, err := repeat.Run(context.Background(), func() (*types.RunRegistry, error) {
		return newRegistry(testDefs()), nil
	})
	require.NoError(t, err)

	assert.Equal(t, 4, iteration)
	assert.Equal(t, 4, report.Completed)
	assert.Len(t, report.RunIDs, 4)
	require.Len(t, report.Tests, 5)
	assert.Equal(t, 1, report.Unstable)
	require.NotNil(t, report.Last)

	byID := make(map[string]StabilityResult)
	for _, tr := range report.Tests {
		byID[tr.ID] = tr
	}
	assert.Equal(t, "first.a", report.Tests[0].ID)
	assert.Equal(t, RecommendationStable, byID["first.a"].Recommendation)
	assert.Equal(t, RecommendationStable, byID["first.b"].Recommendation)
	assert.Equal(t, types.Stats{Total: 4, Warnings: 4}, byID["first.b"].Counts)

	d := byID["second.d"]
	assert.Equal(t, RecommendationUnstable, d.Recommendation)
	assert.Equal(t, types.Stats{Total: 4, Passed: 2, Failed: 2}, d.Counts)
	assert.ElementsMatch(t, []int{0, 1}, d.ExitCodes)
}

func TestRepeatRunnerStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRunner(t, Config{Executor: cannedExecutor()})
	repeat := NewRepeatRunner(r, 3, log.NewLogger(log.DiscardHandler()))
	report, err := repeat.Run(ctx, func() (*types.RunRegistry, error) {
		return newRegistry(testDefs()), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Completed)
	assert.Empty(t, report.Tests)
}

func TestRepeatRunnerRejectsZeroIterations(t *testing.T) {
	repeat := NewRepeatRunner(newRunner(t, Config{Executor: cannedExecutor()}), 0, log.NewLogger(log.DiscardHandler()))
	_, err := repeat.Run(context.Background(), nil)
	assert.Error(t, err)
}

func TestSaveStabilityReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stability.json")
	report := &StabilityReport{Iterations: 2, Completed: 2, Tests: []StabilityResult{{ID: "s.t", Recommendation: RecommendationStable}}}
	require.NoError(t, SaveStabilityReport(report, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded StabilityReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "s.t", decoded.Tests[0].ID)
}

// flipExecutor alternates the outcome of one test between runs
type flipExecutor struct {
	*fakeExecutor
	flipCode string
	count    int
}

func (f *flipExecutor) Execute(ctx context.Context, rec *types.TestRecord, timeout time.Duration) (types.Outcome, error) {
	outcome, err := f.fakeExecutor.Execute(ctx, rec, timeout)
	if rec.Definition.Code == f.flipCode {
		f.count++
		if f.count%2 == 0 {
			outcome = types.Outcome{Termination: types.TerminationExited, ExitCode: 0, Stdout: "done"}
		}
	}
	return outcome, err
}
