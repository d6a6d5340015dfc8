package types

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// TestStatus represents the classification of a single test execution
type TestStatus string

const (
	TestStatusUnknown TestStatus = "unknown"
	TestStatusPassed  TestStatus = "passed"
	TestStatusWarning TestStatus = "warning"
	TestStatusFailed  TestStatus = "failed"
	TestStatusAborted TestStatus = "aborted"
)

// AnyExitCode is the expected exit code meaning "any exit code is acceptable".
const AnyExitCode = math.MinInt32

// AnyOutput is the expected output/error fragment meaning "no requirement".
const AnyOutput = ""

// ErrAlreadyFinalized is returned when a record's outcome is written twice.
var ErrAlreadyFinalized = errors.New("test record already finalized")

// TestFunc is the body of a test. It runs inside an isolated child process and
// returns the code the child exits with. It may also never return: panicking,
// calling os.Exit or being killed by a signal are all valid terminations.
type TestFunc func() int

// Expectation describes how a test is expected to terminate.
type Expectation struct {
	ExitCode int
	Output   string
	Error    string
}

// AnyExit reports whether the exit code is a don't-care.
func (e Expectation) AnyExit() bool {
	return e.ExitCode == AnyExitCode
}

func (e Expectation) String() string {
	code := "any"
	if !e.AnyExit() {
		code = fmt.Sprintf("%d", e.ExitCode)
	}
	return fmt.Sprintf("exit=%s output=%q error=%q", code, e.Output, e.Error)
}

// TestDefinition is the immutable declaration of a test
type TestDefinition struct {
	Code          string
	Title         string
	Description   string
	IsRequirement bool
	IsCritical    bool
	AtFailure     string // advisory only
	Func          TestFunc
	Expect        Expectation
	Timeout       time.Duration // zero uses the run default
}

// Termination tags how an isolated execution ended
type Termination string

const (
	TerminationExited   Termination = "exited"
	TerminationSignaled Termination = "signaled"
	TerminationTimedOut Termination = "timed_out"
	TerminationAborted  Termination = "aborted"
)

// Outcome is what the executor observed for one execution
type Outcome struct {
	Termination     Termination
	ExitCode        int
	Signal          string // set when Termination is TerminationSignaled
	Stdout          string
	Stderr          string
	StdoutTruncated bool
	StderrTruncated bool
	Duration        time.Duration
}

// TestResult is the verified outcome of a test
type TestResult struct {
	Outcome            Outcome
	UnexpectedExitCode bool
	UnexpectedOutput   bool
	UnexpectedError    bool
	Status             TestStatus
}

// Mismatched reports whether any expectation was not met.
func (r *TestResult) Mismatched() bool {
	return r.UnexpectedExitCode || r.UnexpectedOutput || r.UnexpectedError
}

// TestRecord binds a definition to the result of one run.
// The result is written exactly once.
type TestRecord struct {
	Definition *TestDefinition
	SuiteCode  string

	mu     sync.RWMutex
	result *TestResult
}

// NewTestRecord creates an unset record for the given definition
func NewTestRecord(suiteCode string, def *TestDefinition) *TestRecord {
	return &TestRecord{
		Definition: def,
		SuiteCode:  suiteCode,
	}
}

// ID returns the fully qualified "<suite>.<test>" identifier
func (r *TestRecord) ID() string {
	return r.SuiteCode + "." + r.Definition.Code
}

// Finalize stores the result. A second call returns ErrAlreadyFinalized and
// leaves the first result in place.
func (r *TestRecord) Finalize(res *TestResult) error {
	if res == nil {
		return errors.New("nil test result")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.result != nil {
		return fmt.Errorf("%s: %w", r.ID(), ErrAlreadyFinalized)
	}
	r.result = res
	return nil
}

// Result returns the finalized result, or false if the test has not completed.
func (r *TestRecord) Result() (*TestResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.result, r.result != nil
}

// Status returns the record status, TestStatusUnknown until finalized
func (r *TestRecord) Status() TestStatus {
	res, ok := r.Result()
	if !ok {
		return TestStatusUnknown
	}
	return res.Status
}
