package reporting

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/acarl005/stripansi"
)

// Format selects how a report file is rendered
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// Formatter renders a report
type Formatter interface {
	Format(r *Report) (string, error)
}

// FormatForPath picks the report format from the file extension. Anything
// other than .json or .html is a text table.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".html", ".htm":
		return FormatHTML
	default:
		return FormatText
	}
}

// NewFormatter returns the formatter for f
func NewFormatter(f Format, title string) (Formatter, error) {
	switch f {
	case FormatJSON:
		return JSONFormatter{}, nil
	case FormatHTML:
		return NewHTMLFormatter()
	case FormatText:
		return NewTableFormatter(title, true, false), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", f)
	}
}

// WriteReport renders the report in the format implied by path and writes it
func WriteReport(path string, r *Report) error {
	format := FormatForPath(path)
	formatter, err := NewFormatter(format, reportTitle(r))
	if err != nil {
		return err
	}
	content, err := formatter.Format(r)
	if err != nil {
		return err
	}
	if format == FormatText {
		content = stripansi.Strip(content)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

// PrintTable writes the table report to w
func PrintTable(w io.Writer, r *Report, colored bool) error {
	content, err := NewTableFormatter(reportTitle(r), true, colored).Format(r)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, content)
	return err
}

func reportTitle(r *Report) string {
	return fmt.Sprintf("%s: run %s", r.Collection, r.RunID)
}
