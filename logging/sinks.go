package logging

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/acarl005/stripansi"

	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

// AllLogsFileSink writes every test record to a single "all.log" file
type AllLogsFileSink struct {
	logger *FileLogger
}

// Consume appends a boxed summary of the record to all.log
func (s *AllLogsFileSink) Consume(rec *types.TestRecord, runID string) error {
	dir, err := s.logger.GetDirectoryForRunID(runID)
	if err != nil {
		return err
	}
	writer, err := s.logger.getAsyncWriter(filepath.Join(dir, AllLogsFilename))
	if err != nil {
		return err
	}

	res, _ := rec.Result()
	var content strings.Builder
	fmt.Fprintf(&content, "\n")
	fmt.Fprintf(&content, "┌─────────────────────────────────────────────────────────────────────┐\n")
	fmt.Fprintf(&content, "│ TEST: %-61s │\n", truncateString(rec.ID(), 61))
	fmt.Fprintf(&content, "├─────────────────────────────────────────────────────────────────────┤\n")
	fmt.Fprintf(&content, "│ Status:      %-54s │\n", res.Status)
	fmt.Fprintf(&content, "│ Termination: %-54s │\n", describeTermination(res.Outcome))
	fmt.Fprintf(&content, "│ Duration:    %-54s │\n", formatDuration(res.Outcome.Duration))
	fmt.Fprintf(&content, "│ Time:        %-54s │\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&content, "└─────────────────────────────────────────────────────────────────────┘\n\n")
	writeStreams(&content, res.Outcome)

	return writer.Write([]byte(content.String()))
}

// Complete is a no-op for AllLogsFileSink
func (s *AllLogsFileSink) Complete(runID string) error {
	return nil
}

// PerTestFileSink writes one log file per test into a directory named after its status
type PerTestFileSink struct {
	logger         *FileLogger
	processedTests map[string]bool
	mu             sync.Mutex
}

// Consume writes <runDir>/<status>/<suite>.<test>.log once per test
func (s *PerTestFileSink) Consume(rec *types.TestRecord, runID string) error {
	dir, err := s.logger.GetDirectoryForRunID(runID)
	if err != nil {
		return err
	}
	res, _ := rec.Result()
	path := filepath.Join(dir, string(res.Status), TestLogFilename(rec))

	s.mu.Lock()
	if s.processedTests[path] {
		s.mu.Unlock()
		return nil
	}
	s.processedTests[path] = true
	s.mu.Unlock()

	writer, err := s.logger.getAsyncWriter(path)
	if err != nil {
		return err
	}

	def := rec.Definition
	var content strings.Builder
	fmt.Fprintf(&content, "TEST:        %s\n", rec.ID())
	fmt.Fprintf(&content, "Title:       %s\n", def.Title)
	if def.Description != "" {
		fmt.Fprintf(&content, "Description: %s\n", def.Description)
	}
	fmt.Fprintf(&content, "Critical:    %t\n", def.IsCritical)
	fmt.Fprintf(&content, "Requirement: %t\n", def.IsRequirement)
	fmt.Fprintf(&content, "\n%s\n", strings.Repeat("-", 80))
	fmt.Fprintf(&content, "VERDICT:\n")
	fmt.Fprintf(&content, "========\n\n")
	fmt.Fprintf(&content, "Status:      %s\n", res.Status)
	fmt.Fprintf(&content, "Expected:    %s\n", def.Expect)
	fmt.Fprintf(&content, "Found:       %s\n", describeTermination(res.Outcome))
	fmt.Fprintf(&content, "Mismatches:  exit_code=%t output=%t error=%t\n",
		res.UnexpectedExitCode, res.UnexpectedOutput, res.UnexpectedError)
	fmt.Fprintf(&content, "Duration:    %s\n", formatDuration(res.Outcome.Duration))
	if res.Status != types.TestStatusPassed && def.AtFailure != "" {
		fmt.Fprintf(&content, "At failure:  %s\n", def.AtFailure)
	}
	fmt.Fprintf(&content, "\n%s\n", strings.Repeat("-", 80))
	writeStreams(&content, res.Outcome)

	return writer.Write([]byte(content.String()))
}

// Complete is a no-op for PerTestFileSink
func (s *PerTestFileSink) Complete(runID string) error {
	return nil
}

// Stream selects which captured channel a StreamSink collects
type Stream string

const (
	StreamStdout Stream = "stdout"
	StreamStderr Stream = "stderr"
)

// StreamSink concatenates one captured channel of every test into a single
// file, each section headed by the test id.
type StreamSink struct {
	logger *FileLogger
	path   string
	stream Stream
}

// NewStreamSink creates a sink for the aggregate stdout or stderr file
func NewStreamSink(logger *FileLogger, path string, stream Stream) *StreamSink {
	return &StreamSink{logger: logger, path: path, stream: stream}
}

func (s *StreamSink) Consume(rec *types.TestRecord, runID string) error {
	writer, err := s.logger.getAsyncWriter(s.path)
	if err != nil {
		return err
	}
	res, _ := rec.Result()
	text, truncated := res.Outcome.Stdout, res.Outcome.StdoutTruncated
	if s.stream == StreamStderr {
		text, truncated = res.Outcome.Stderr, res.Outcome.StderrTruncated
	}

	var content strings.Builder
	fmt.Fprintf(&content, "=== %s [%s]\n", rec.ID(), res.Status)
	content.WriteString(text)
	if text != "" && !strings.HasSuffix(text, "\n") {
		content.WriteString("\n")
	}
	if truncated {
		content.WriteString("[output truncated]\n")
	}
	return writer.Write([]byte(content.String()))
}

// Complete is a no-op for StreamSink, the file is closed by the FileLogger
func (s *StreamSink) Complete(runID string) error {
	return nil
}

func describeTermination(o types.Outcome) string {
	switch o.Termination {
	case types.TerminationSignaled:
		return fmt.Sprintf("signaled %s (exit %d)", o.Signal, o.ExitCode)
	case types.TerminationTimedOut:
		return fmt.Sprintf("timed out (exit %d)", o.ExitCode)
	case types.TerminationAborted:
		return "aborted"
	default:
		return fmt.Sprintf("exit %d", o.ExitCode)
	}
}

func writeStreams(content *strings.Builder, o types.Outcome) {
	sections := []struct {
		name      string
		text      string
		truncated bool
	}{
		{"STDOUT", o.Stdout, o.StdoutTruncated},
		{"STDERR", o.Stderr, o.StderrTruncated},
	}
	for _, sec := range sections {
		fmt.Fprintf(content, "%s:\n", sec.name)
		fmt.Fprintf(content, "%s\n", strings.Repeat("~", len(sec.name)+1))
		if sec.text == "" {
			fmt.Fprintf(content, "  (empty)\n\n")
			continue
		}
		fmt.Fprintf(content, "%s\n", indentText(stripansi.Strip(sec.text), "  "))
		if sec.truncated {
			fmt.Fprintf(content, "  [output truncated]\n")
		}
		fmt.Fprintf(content, "\n")
	}
}

// indentText adds indentation to each line of text for better readability
func indentText(text, indent string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

// truncateString truncates a string to the specified max length
// and adds an ellipsis if needed
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}
