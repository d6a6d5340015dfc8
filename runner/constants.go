package runner

import "time"

// Test execution constants
const (
	// DefaultTestTimeout is the default wall clock bound for one isolated test
	DefaultTestTimeout = time.Minute

	// DefaultStdoutLimit is the capture capacity for a child's stdout
	DefaultStdoutLimit = 16 * 1024

	// DefaultStderrLimit is the capture capacity for a child's stderr
	DefaultStderrLimit = 32 * 1024

	// DefaultConcurrency runs tests one at a time
	DefaultConcurrency = 1

	// MaxReasonableConcurrency caps the worker pool to avoid process exhaustion
	MaxReasonableConcurrency = 32

	// DefaultProgressInterval is how often the console progress indicator reports
	DefaultProgressInterval = 30 * time.Second
)
