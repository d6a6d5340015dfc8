package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

func finalized(t *testing.T, suite string, def *types.TestDefinition, res *types.TestResult) *types.TestRecord {
	t.Helper()
	rec := types.NewTestRecord(suite, def)
	if res != nil {
		require.NoError(t, rec.Finalize(res))
	}
	return rec
}

func sampleRun(t *testing.T) *types.RunRegistry {
	t.Helper()
	okDef := &types.TestDefinition{Code: "ok", Title: "Passes", IsCritical: true, Expect: types.Expectation{Output: "done"}}
	crashDef := &types.TestDefinition{Code: "crash", IsCritical: true, AtFailure: "Crashes are not contained.", Expect: types.Expectation{ExitCode: 0}}
	softDef := &types.TestDefinition{Code: "soft", IsRequirement: true, Expect: types.Expectation{ExitCode: 0, Error: "x"}}

	first := &types.Suite{
		Definition: &types.SuiteDefinition{Code: "first", Title: "First suite"},
		Tests: []*types.TestRecord{
			finalized(t, "first", okDef, &types.TestResult{
				Status:  types.TestStatusPassed,
				Outcome: types.Outcome{Termination: types.TerminationExited, Stdout: "\x1b[32mdone\x1b[0m\n", Duration: 20 * time.Millisecond},
			}),
			finalized(t, "first", crashDef, &types.TestResult{
				Status:             types.TestStatusFailed,
				UnexpectedExitCode: true,
				Outcome:            types.Outcome{Termination: types.TerminationSignaled, ExitCode: 137, Signal: "SIGKILL", Duration: 30 * time.Millisecond},
			}),
		},
		Stats:  types.Stats{Total: 2, Passed: 1, Failed: 1},
		Status: types.TestStatusFailed,
	}
	second := &types.Suite{
		Definition: &types.SuiteDefinition{Code: "second", IsRequirement: true},
		Tests: []*types.TestRecord{
			finalized(t, "second", softDef, &types.TestResult{
				Status:          types.TestStatusWarning,
				UnexpectedError: true,
				Outcome:         types.Outcome{Termination: types.TerminationExited, Stderr: "partial", StderrTruncated: true},
			}),
		},
		Stats:  types.Stats{Total: 1, Warnings: 1},
		Status: types.TestStatusWarning,
	}

	return &types.RunRegistry{
		RunID:     "run-1",
		Name:      "sample",
		Suites:    []*types.Suite{first, second},
		Status:    types.TestStatusFailed,
		StartTime: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Stats: types.RunStats{
			Tests:        types.Stats{Total: 3, Passed: 1, Warnings: 1, Failed: 1},
			Suites:       types.Stats{Total: 2, Warnings: 1, Failed: 1},
			Requirements: types.Stats{Total: 2, Warnings: 2},
		},
	}
}

func TestNewReport(t *testing.T) {
	r := NewReport(sampleRun(t))

	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, "sample", r.Collection)
	assert.Equal(t, types.TestStatusFailed, r.Status)
	assert.Equal(t, []string{"first.crash"}, r.FailedTests)
	require.Len(t, r.Suites, 2)

	first := r.Suites[0]
	assert.Equal(t, 50*time.Millisecond, first.Duration)
	require.Len(t, first.Tests, 2)
	assert.Equal(t, "done\n", first.Tests[0].Stdout, "ANSI codes are stripped")
	assert.Empty(t, first.Tests[0].AtFailure)
	assert.Equal(t, "Crashes are not contained.", first.Tests[1].AtFailure)
	assert.Equal(t, "SIGKILL", first.Tests[1].Signal)

	soft := r.Suites[1].Tests[0]
	assert.Equal(t, "second.soft", soft.ID)
	assert.True(t, soft.IsRequirement)
	assert.False(t, soft.IsCritical)
	assert.True(t, soft.StderrTruncated)
}

func TestNewReportUnfinalizedRecord(t *testing.T) {
	def := &types.TestDefinition{Code: "pending"}
	reg := &types.RunRegistry{
		RunID: "r",
		Suites: []*types.Suite{{
			Definition: &types.SuiteDefinition{Code: "s"},
			Tests:      []*types.TestRecord{types.NewTestRecord("s", def)},
			Status:     types.TestStatusUnknown,
		}},
	}
	r := NewReport(reg)
	assert.Equal(t, types.TestStatusUnknown, r.Suites[0].Tests[0].Status)
	assert.Empty(t, r.FailedTests)
}

func TestTableFormatter(t *testing.T) {
	r := NewReport(sampleRun(t))
	out, err := NewTableFormatter("sample", true, false).Format(r)
	require.NoError(t, err)

	for _, want := range []string{
		"sample",
		"first",
		"├── ok",
		"└── crash",
		"└── soft",
		"Requirement suite",
		"Requirement (non-critical)",
		"FAILED",
		"WARNING",
		"TOTAL",
		"Requirements: 2 total, 0 passed, 2 warnings, 0 failed, 0 aborted",
		"Failed: first.crash",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "\x1b[")

	summary, err := NewTableFormatter("sample", false, false).Format(r)
	require.NoError(t, err)
	assert.NotContains(t, summary, "├── ok")
}

func TestColoredTableStripsForFiles(t *testing.T) {
	r := NewReport(sampleRun(t))
	out, err := NewTableFormatter("sample", true, true).Format(r)
	require.NoError(t, err)
	assert.Contains(t, stripansi.Strip(out), "└── crash")
}

func TestJSONFormatter(t *testing.T) {
	r := NewReport(sampleRun(t))
	out, err := JSONFormatter{}.Format(r)
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, r.RunID, decoded.RunID)
	assert.Equal(t, r.Stats, decoded.Stats)
	assert.Equal(t, 137, decoded.Suites[0].Tests[1].ExitCode)
	assert.Contains(t, out, `"failedTests"`)
}

func TestHTMLFormatter(t *testing.T) {
	f, err := NewHTMLFormatter()
	require.NoError(t, err)
	out, err := f.Format(NewReport(sampleRun(t)))
	require.NoError(t, err)

	assert.Contains(t, out, "<title>sample - run-1</title>")
	assert.Contains(t, out, `id="test-first.crash"`)
	assert.Contains(t, out, "137 (SIGKILL)")
	assert.Contains(t, out, "Crashes are not contained.")
	assert.Contains(t, out, "(truncated)")
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"report.json", FormatJSON},
		{"REPORT.JSON", FormatJSON},
		{"out/report.html", FormatHTML},
		{"report.htm", FormatHTML},
		{"report.txt", FormatText},
		{"report", FormatText},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatForPath(tt.path))
		})
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	r := NewReport(sampleRun(t))

	for _, name := range []string{"nested/report.json", "report.html", "report.txt"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteReport(path, r))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
		switch FormatForPath(path) {
		case FormatJSON:
			assert.True(t, json.Valid(data))
		case FormatHTML:
			assert.True(t, strings.HasPrefix(string(data), "<!DOCTYPE html>"))
		default:
			assert.Contains(t, string(data), "TOTAL")
			assert.NotContains(t, string(data), "\x1b[")
		}
	}
}

func TestPrintTable(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, PrintTable(&sb, NewReport(sampleRun(t)), false))
	assert.Contains(t, sb.String(), "sample: run run-1")
}
