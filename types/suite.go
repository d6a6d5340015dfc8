package types

// SuiteDefinition represents a named, ordered collection of tests
type SuiteDefinition struct {
	Code          string
	Title         string
	Description   string
	IsRequirement bool
	Tests         []*TestDefinition
}

// Suite is the per-run instance of a SuiteDefinition
type Suite struct {
	Definition *SuiteDefinition
	Tests      []*TestRecord
	Stats      Stats
	Status     TestStatus
}

// NewSuite creates a suite with fresh records for every test of def
func NewSuite(def *SuiteDefinition) *Suite {
	s := &Suite{
		Definition: def,
		Tests:      make([]*TestRecord, 0, len(def.Tests)),
		Status:     TestStatusUnknown,
	}
	for _, t := range def.Tests {
		s.Tests = append(s.Tests, NewTestRecord(def.Code, t))
	}
	return s
}

// Code returns the suite selection key
func (s *Suite) Code() string {
	return s.Definition.Code
}

// Test returns the record with the given code
func (s *Suite) Test(code string) (*TestRecord, bool) {
	for _, t := range s.Tests {
		if t.Definition.Code == code {
			return t, true
		}
	}
	return nil, false
}
