package types

import "time"

// RunRegistry is the full set of suites selected for one invocation, in
// declaration order.
type RunRegistry struct {
	RunID     string
	Name      string
	Suites    []*Suite
	Stats     RunStats
	Status    TestStatus
	StartTime time.Time
	Duration  time.Duration
	Aborted   bool
}

// Suite returns the suite with the given code
func (r *RunRegistry) Suite(code string) (*Suite, bool) {
	for _, s := range r.Suites {
		if s.Code() == code {
			return s, true
		}
	}
	return nil, false
}

// Records returns every test record in declaration order
func (r *RunRegistry) Records() []*TestRecord {
	var out []*TestRecord
	for _, s := range r.Suites {
		out = append(out, s.Tests...)
	}
	return out
}

// HasFailures reports whether any test failed
func (r *RunRegistry) HasFailures() bool {
	return r.Stats.Tests.Failed > 0
}
