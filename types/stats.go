package types

// Stats counts statuses within one bucket.
// Total always equals Passed + Warnings + Failed + Aborted.
type Stats struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Failed   int `json:"failed"`
	Aborted  int `json:"aborted"`
}

// Add counts one status. Unknown statuses are not counted, since the
// aggregator only sees finalized records.
func (s *Stats) Add(status TestStatus) {
	switch status {
	case TestStatusPassed:
		s.Passed++
	case TestStatusWarning:
		s.Warnings++
	case TestStatusFailed:
		s.Failed++
	case TestStatusAborted:
		s.Aborted++
	default:
		return
	}
	s.Total++
}

// Balanced reports whether the totals invariant holds
func (s Stats) Balanced() bool {
	return s.Total == s.Passed+s.Warnings+s.Failed+s.Aborted
}

// Status derives a rolled-up status from the counts: failed, then aborted,
// then warning, else passed. An empty bucket is passed.
func (s Stats) Status() TestStatus {
	switch {
	case s.Failed > 0:
		return TestStatusFailed
	case s.Aborted > 0:
		return TestStatusAborted
	case s.Warnings > 0:
		return TestStatusWarning
	default:
		return TestStatusPassed
	}
}

// RunStats holds the three independent statistics buckets of a run
type RunStats struct {
	Tests        Stats `json:"tests"`
	Suites       Stats `json:"suites"`
	Requirements Stats `json:"requirements"`
}
