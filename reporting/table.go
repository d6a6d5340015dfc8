package reporting

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

const (
	treeBranch     = "├── "
	treeLastBranch = "└── "
)

// TableFormatter renders a report as an ASCII table with one row per suite
// followed by its tests
type TableFormatter struct {
	title     string
	showTests bool
	colored   bool
}

// NewTableFormatter creates a table formatter. Colored output is meant for
// terminals; files should get the plain style.
func NewTableFormatter(title string, showTests, colored bool) *TableFormatter {
	return &TableFormatter{
		title:     title,
		showTests: showTests,
		colored:   colored,
	}
}

// Format renders the report
func (f *TableFormatter) Format(r *Report) (string, error) {
	var buf bytes.Buffer

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle(f.title)
	t.AppendHeader(table.Row{"TYPE", "ID", "DURATION", "TESTS", "PASSED", "WARN", "FAILED", "ABORTED", "STATUS"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "TYPE", AutoMerge: true},
		{Name: "ID", WidthMax: 120, WidthMaxEnforcer: text.WrapSoft},
		{Name: "DURATION", Align: text.AlignRight},
		{Name: "TESTS", Align: text.AlignRight},
		{Name: "PASSED", Align: text.AlignRight},
		{Name: "WARN", Align: text.AlignRight},
		{Name: "FAILED", Align: text.AlignRight},
		{Name: "ABORTED", Align: text.AlignRight},
	})

	for _, s := range r.Suites {
		t.AppendRow(table.Row{
			suiteType(s),
			s.Code,
			formatDuration(s.Duration),
			s.Stats.Total,
			s.Stats.Passed,
			s.Stats.Warnings,
			s.Stats.Failed,
			s.Stats.Aborted,
			statusText(s.Status),
		})
		if !f.showTests {
			continue
		}
		for i, test := range s.Tests {
			prefix := treeBranch
			if i == len(s.Tests)-1 {
				prefix = treeLastBranch
			}
			t.AppendRow(table.Row{
				testType(test),
				prefix + test.Code,
				formatDuration(test.Duration),
				"", "", "", "", "",
				statusText(test.Status),
			})
		}
	}

	if f.colored {
		switch r.Status {
		case types.TestStatusFailed:
			t.SetStyle(table.StyleColoredBlackOnRedWhite)
		case types.TestStatusAborted, types.TestStatusWarning:
			t.SetStyle(table.StyleColoredBlackOnYellowWhite)
		case types.TestStatusPassed:
			t.SetStyle(table.StyleColoredBlackOnGreenWhite)
		default:
			t.SetStyle(table.StyleDefault)
		}
	} else {
		t.SetStyle(table.StyleLight)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		formatDuration(r.Duration),
		r.Stats.Tests.Total,
		r.Stats.Tests.Passed,
		r.Stats.Tests.Warnings,
		r.Stats.Tests.Failed,
		r.Stats.Tests.Aborted,
		statusText(r.Status),
	})

	t.Render()

	fmt.Fprintf(&buf, "Suites: %s\n", formatStats(r.Stats.Suites))
	fmt.Fprintf(&buf, "Requirements: %s\n", formatStats(r.Stats.Requirements))
	if len(r.FailedTests) > 0 {
		fmt.Fprintf(&buf, "Failed: %s\n", strings.Join(r.FailedTests, ", "))
	}
	return buf.String(), nil
}

func suiteType(s SuiteReport) string {
	if s.IsRequirement {
		return "Requirement suite"
	}
	return "Suite"
}

func testType(t TestReport) string {
	kind := "Test"
	if t.IsRequirement {
		kind = "Requirement"
	}
	if !t.IsCritical {
		kind += " (non-critical)"
	}
	return kind
}

func statusText(status types.TestStatus) string {
	return strings.ToUpper(string(status))
}

func formatStats(s types.Stats) string {
	return fmt.Sprintf("%d total, %d passed, %d warnings, %d failed, %d aborted",
		s.Total, s.Passed, s.Warnings, s.Failed, s.Aborted)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}
