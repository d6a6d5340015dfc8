// Package runner executes registered tests and classifies how they terminate.
//
// The main components are:
//   - TestExecutor: runs one test in an isolated child process and captures its exit status and output
//   - Verify: compares a captured Outcome with the test's expectations and assigns a status
//   - Aggregator: folds test statuses into suite and run statistics
//   - TestRunner: drives a RunRegistry suite by suite, sequentially or with a bounded worker pool
//   - RepeatRunner: runs the same selection several times and reports unstable tests
//
// Outcome fields of a TestRecord are written once, by the goroutine that ran the
// test. Statistics are only computed after records are final, by a single goroutine.
package runner
