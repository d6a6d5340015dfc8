package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestRecordFinalizeOnce(t *testing.T) {
	def := &TestDefinition{Code: "a", Func: func() int { return 0 }}
	rec := NewTestRecord("s", def)

	res, ok := rec.Result()
	assert.False(t, ok)
	assert.Nil(t, res)
	assert.Equal(t, TestStatusUnknown, rec.Status())

	first := &TestResult{Status: TestStatusPassed}
	require.NoError(t, rec.Finalize(first))

	err := rec.Finalize(&TestResult{Status: TestStatusFailed})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyFinalized))

	got, ok := rec.Result()
	require.True(t, ok)
	assert.Same(t, first, got)
	assert.Equal(t, TestStatusPassed, rec.Status())
	assert.Equal(t, "s.a", rec.ID())
}

func TestTestRecordFinalizeNil(t *testing.T) {
	rec := NewTestRecord("s", &TestDefinition{Code: "a"})
	assert.Error(t, rec.Finalize(nil))
	_, ok := rec.Result()
	assert.False(t, ok)
}

func TestStatsAdd(t *testing.T) {
	var s Stats
	for _, st := range []TestStatus{
		TestStatusPassed, TestStatusWarning, TestStatusPassed,
		TestStatusFailed, TestStatusAborted, TestStatusUnknown,
	} {
		s.Add(st)
	}
	assert.Equal(t, Stats{Total: 5, Passed: 2, Warnings: 1, Failed: 1, Aborted: 1}, s)
	assert.True(t, s.Balanced())
}

func TestStatsStatus(t *testing.T) {
	tests := []struct {
		name  string
		stats Stats
		want  TestStatus
	}{
		{"empty", Stats{}, TestStatusPassed},
		{"all passed", Stats{Total: 2, Passed: 2}, TestStatusPassed},
		{"warning", Stats{Total: 3, Passed: 2, Warnings: 1}, TestStatusWarning},
		{"failed wins over warning", Stats{Total: 3, Passed: 1, Warnings: 1, Failed: 1}, TestStatusFailed},
		{"aborted over warning", Stats{Total: 2, Warnings: 1, Aborted: 1}, TestStatusAborted},
		{"failed over aborted", Stats{Total: 2, Failed: 1, Aborted: 1}, TestStatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.stats.Status())
		})
	}
}

func TestNewSuiteCreatesFreshRecords(t *testing.T) {
	def := &SuiteDefinition{
		Code: "suite",
		Tests: []*TestDefinition{
			{Code: "one"},
			{Code: "two"},
		},
	}
	first := NewSuite(def)
	require.NoError(t, first.Tests[0].Finalize(&TestResult{Status: TestStatusFailed}))

	second := NewSuite(def)
	require.Len(t, second.Tests, 2)
	assert.Equal(t, TestStatusUnknown, second.Tests[0].Status())
	assert.Equal(t, TestStatusUnknown, second.Status)

	rec, ok := second.Test("two")
	require.True(t, ok)
	assert.Equal(t, "suite.two", rec.ID())
	_, ok = second.Test("three")
	assert.False(t, ok)
}

func TestSelectionValidate(t *testing.T) {
	assert.NoError(t, Selection{}.Validate())
	assert.NoError(t, Selection{Suite: "s"}.Validate())
	assert.NoError(t, Selection{Suite: "s", Test: "t"}.Validate())
	assert.ErrorIs(t, Selection{Test: "t"}.Validate(), ErrInvalidSelection)

	assert.True(t, Selection{}.All())
	assert.Equal(t, `test "t" of suite "s"`, Selection{Suite: "s", Test: "t"}.String())
}

func TestExpectationAnyExit(t *testing.T) {
	assert.True(t, Expectation{ExitCode: AnyExitCode}.AnyExit())
	assert.False(t, Expectation{ExitCode: 0}.AnyExit())
	assert.Equal(t, `exit=any output="" error="boom"`, Expectation{ExitCode: AnyExitCode, Error: "boom"}.String())
}
