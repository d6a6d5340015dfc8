// Package reporting renders the final report of a run as a console table,
// a JSON document or an HTML page.
package reporting

import (
	"time"

	"github.com/acarl005/stripansi"

	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

// Report is the serializable view of a completed run
type Report struct {
	RunID      string           `json:"runId"`
	Collection string           `json:"collection"`
	Timestamp  time.Time        `json:"timestamp"`
	Duration   time.Duration    `json:"duration"`
	Status     types.TestStatus `json:"status"`
	Aborted    bool             `json:"aborted,omitempty"`
	Stats      types.RunStats   `json:"stats"`
	Suites     []SuiteReport    `json:"suites"`
	// FailedTests lists "<suite>.<test>" ids with status failed
	FailedTests []string `json:"failedTests"`
}

// SuiteReport is one suite of the report
type SuiteReport struct {
	Code          string           `json:"code"`
	Title         string           `json:"title,omitempty"`
	IsRequirement bool             `json:"isRequirement,omitempty"`
	Status        types.TestStatus `json:"status"`
	Stats         types.Stats      `json:"stats"`
	Duration      time.Duration    `json:"duration"`
	Tests         []TestReport     `json:"tests"`
}

// TestReport is one test of the report
type TestReport struct {
	ID                 string            `json:"id"`
	Code               string            `json:"code"`
	Title              string            `json:"title,omitempty"`
	IsRequirement      bool              `json:"isRequirement,omitempty"`
	IsCritical         bool              `json:"isCritical"`
	Status             types.TestStatus  `json:"status"`
	Expected           string            `json:"expected"`
	Termination        types.Termination `json:"termination,omitempty"`
	ExitCode           int               `json:"exitCode"`
	Signal             string            `json:"signal,omitempty"`
	Duration           time.Duration     `json:"duration"`
	UnexpectedExitCode bool              `json:"unexpectedExitCode,omitempty"`
	UnexpectedOutput   bool              `json:"unexpectedOutput,omitempty"`
	UnexpectedError    bool              `json:"unexpectedError,omitempty"`
	AtFailure          string            `json:"atFailure,omitempty"`
	Stdout             string            `json:"stdout,omitempty"`
	Stderr             string            `json:"stderr,omitempty"`
	StdoutTruncated    bool              `json:"stdoutTruncated,omitempty"`
	StderrTruncated    bool              `json:"stderrTruncated,omitempty"`
}

// NewReport builds a report from a folded run registry. Records that were
// never finalized show up with status unknown.
func NewReport(reg *types.RunRegistry) *Report {
	r := &Report{
		RunID:       reg.RunID,
		Collection:  reg.Name,
		Timestamp:   reg.StartTime,
		Duration:    reg.Duration,
		Status:      reg.Status,
		Aborted:     reg.Aborted,
		Stats:       reg.Stats,
		Suites:      make([]SuiteReport, 0, len(reg.Suites)),
		FailedTests: make([]string, 0),
	}

	for _, s := range reg.Suites {
		sr := SuiteReport{
			Code:          s.Code(),
			Title:         s.Definition.Title,
			IsRequirement: s.Definition.IsRequirement,
			Status:        s.Status,
			Stats:         s.Stats,
			Tests:         make([]TestReport, 0, len(s.Tests)),
		}
		for _, rec := range s.Tests {
			tr := newTestReport(rec)
			sr.Duration += tr.Duration
			if tr.Status == types.TestStatusFailed {
				r.FailedTests = append(r.FailedTests, tr.ID)
			}
			sr.Tests = append(sr.Tests, tr)
		}
		r.Suites = append(r.Suites, sr)
	}
	return r
}

func newTestReport(rec *types.TestRecord) TestReport {
	def := rec.Definition
	tr := TestReport{
		ID:            rec.ID(),
		Code:          def.Code,
		Title:         def.Title,
		IsRequirement: def.IsRequirement,
		IsCritical:    def.IsCritical,
		Status:        types.TestStatusUnknown,
		Expected:      def.Expect.String(),
	}

	res, ok := rec.Result()
	if !ok {
		return tr
	}
	out := res.Outcome
	tr.Status = res.Status
	tr.Termination = out.Termination
	tr.ExitCode = out.ExitCode
	tr.Signal = out.Signal
	tr.Duration = out.Duration
	tr.UnexpectedExitCode = res.UnexpectedExitCode
	tr.UnexpectedOutput = res.UnexpectedOutput
	tr.UnexpectedError = res.UnexpectedError
	tr.Stdout = stripansi.Strip(out.Stdout)
	tr.Stderr = stripansi.Strip(out.Stderr)
	tr.StdoutTruncated = out.StdoutTruncated
	tr.StderrTruncated = out.StderrTruncated
	if res.Status != types.TestStatusPassed {
		tr.AtFailure = def.AtFailure
	}
	return tr
}
