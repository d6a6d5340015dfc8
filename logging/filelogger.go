package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/acarl005/stripansi"

	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

const (
	RunDirectoryPrefix = "testrun-" // Standardized prefix for run directories
	AllLogsFilename    = "all.log"
	SummaryFilename    = "summary.log"
)

// statusDirs are created up front so readers can rely on them existing
var statusDirs = []types.TestStatus{
	types.TestStatusPassed,
	types.TestStatusWarning,
	types.TestStatusFailed,
	types.TestStatusAborted,
}

// ResultSink is an interface for different ways of consuming test results
type ResultSink interface {
	// Consume processes a single finalized test record
	Consume(rec *types.TestRecord, runID string) error
	// Complete is called when all results have been consumed
	Complete(runID string) error
}

// Config selects the destinations a FileLogger writes to. Every field is optional.
type Config struct {
	BaseDir    string // per-test logs under <BaseDir>/testrun-<runID>
	StdoutPath string // aggregate stdout of every test
	StderrPath string // aggregate stderr of every test
}

// FileLogger fans finalized test records out to its sinks
type FileLogger struct {
	baseDir      string
	logDir       string
	mu           sync.Mutex
	sinks        []ResultSink
	asyncWriters map[string]*AsyncFile
	runID        string
}

// NewFileLogger creates a FileLogger for one run
func NewFileLogger(cfg Config, runID string) (*FileLogger, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}

	logger := &FileLogger{
		baseDir:      cfg.BaseDir,
		sinks:        make([]ResultSink, 0),
		asyncWriters: make(map[string]*AsyncFile),
		runID:        runID,
	}

	if cfg.BaseDir != "" {
		logger.logDir = filepath.Join(cfg.BaseDir, RunDirectoryPrefix+runID)
		dirs := []string{cfg.BaseDir, logger.logDir}
		for _, status := range statusDirs {
			dirs = append(dirs, filepath.Join(logger.logDir, string(status)))
		}
		for _, dir := range dirs {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
		logger.sinks = append(logger.sinks,
			&AllLogsFileSink{logger: logger},
			&PerTestFileSink{logger: logger, processedTests: make(map[string]bool)},
		)
	}
	if cfg.StdoutPath != "" {
		logger.sinks = append(logger.sinks, NewStreamSink(logger, cfg.StdoutPath, StreamStdout))
	}
	if cfg.StderrPath != "" {
		logger.sinks = append(logger.sinks, NewStreamSink(logger, cfg.StderrPath, StreamStderr))
	}
	return logger, nil
}

// getAsyncWriter gets or creates an AsyncFile for the given path
func (l *FileLogger) getAsyncWriter(path string) (*AsyncFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if writer, exists := l.asyncWriters[path]; exists {
		return writer, nil
	}

	writer, err := NewAsyncFile(path)
	if err != nil {
		return nil, err
	}
	l.asyncWriters[path] = writer
	return writer, nil
}

// closeAllWriters closes all async writers
func (l *FileLogger) closeAllWriters() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, writer := range l.asyncWriters {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.asyncWriters = make(map[string]*AsyncFile)
	return firstErr
}

// GetDirectoryForRunID returns the log directory of a run, empty when per-test
// logs are disabled
func (l *FileLogger) GetDirectoryForRunID(runID string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("runID cannot be empty")
	}
	if l.baseDir == "" {
		return "", nil
	}
	if runID == l.runID {
		return l.logDir, nil
	}
	return filepath.Join(l.baseDir, RunDirectoryPrefix+runID), nil
}

// LogTestResult processes a finalized record through all registered sinks
func (l *FileLogger) LogTestResult(rec *types.TestRecord, runID string) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}
	if _, ok := rec.Result(); !ok {
		return fmt.Errorf("test %s has no result", rec.ID())
	}

	l.mu.Lock()
	sinks := append([]ResultSink(nil), l.sinks...)
	l.mu.Unlock()

	for _, sink := range sinks {
		if err := sink.Consume(rec, runID); err != nil {
			return fmt.Errorf("error in sink: %w", err)
		}
	}
	return nil
}

// LogSummary writes a summary of the run next to the per-test logs
func (l *FileLogger) LogSummary(summary string, runID string) error {
	dir, err := l.GetDirectoryForRunID(runID)
	if err != nil || dir == "" {
		return err
	}
	writer, err := l.getAsyncWriter(filepath.Join(dir, SummaryFilename))
	if err != nil {
		return err
	}
	return writer.Write([]byte(stripansi.Strip(summary)))
}

// Complete finalizes all sinks and closes all file writers
func (l *FileLogger) Complete(runID string) error {
	if runID == "" {
		return fmt.Errorf("runID cannot be empty")
	}

	for _, sink := range l.sinks {
		if err := sink.Complete(runID); err != nil {
			return fmt.Errorf("error completing sink: %w", err)
		}
	}
	return l.closeAllWriters()
}

// safeFilename converts a string to a safe filename by replacing problematic characters
func safeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "_",
	)
	return replacer.Replace(s)
}

// TestLogFilename returns the per-test log file name, "<suite>.<test>.log"
func TestLogFilename(rec *types.TestRecord) string {
	return safeFilename(rec.ID()) + ".log"
}
