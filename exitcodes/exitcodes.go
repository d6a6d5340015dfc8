// Package exitcodes defines the standard exit codes used by op-exitprobe.
package exitcodes

// Exit code constants used by op-exitprobe.
//
// * Success (0): the run completed, whatever the test statuses
// * TestFailure (1): one or more tests failed and --strict was given
// * RuntimeErr (2): the harness could not run tests, e.g. isolation or configuration failures
// * SelectionErr (3): the requested suite or test does not exist
// * Aborted (4): the run was interrupted before it completed
const (
	Success      = 0 // Run completed
	TestFailure  = 1 // Test failures in strict mode
	RuntimeErr   = 2 // Runtime errors
	SelectionErr = 3 // Unknown or invalid selection
	Aborted      = 4 // Interrupted by a signal
)
