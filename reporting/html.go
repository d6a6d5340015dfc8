package reporting

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

const reportTemplate = "report.html.tmpl"

// HTMLFormatter renders a report as a standalone HTML page
type HTMLFormatter struct {
	template *template.Template
}

// NewHTMLFormatter parses the embedded report template
func NewHTMLFormatter() (*HTMLFormatter, error) {
	tmpl, err := template.New(reportTemplate).Funcs(template.FuncMap{
		"formatDuration": formatDuration,
		"statusClass": func(status types.TestStatus) string {
			return string(status)
		},
		"statusText": statusText,
		"formatTime": func(t time.Time) string {
			return t.Format(time.RFC3339)
		},
		"exitCode": func(t TestReport) string {
			if t.Termination == types.TerminationSignaled {
				return fmt.Sprintf("%d (%s)", t.ExitCode, t.Signal)
			}
			if t.Termination == types.TerminationTimedOut || t.Termination == types.TerminationAborted {
				return strings.ReplaceAll(string(t.Termination), "_", " ")
			}
			return fmt.Sprintf("%d", t.ExitCode)
		},
	}).ParseFS(templateFS, "templates/"+reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML template: %w", err)
	}
	return &HTMLFormatter{template: tmpl}, nil
}

// Format renders the report
func (f *HTMLFormatter) Format(r *Report) (string, error) {
	var buf bytes.Buffer
	if err := f.template.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("failed to execute HTML template: %w", err)
	}
	return buf.String(), nil
}
