package types

import (
	"errors"
	"fmt"
)

// ErrInvalidSelection is returned for a test selected without its suite.
var ErrInvalidSelection = errors.New("a test can only be selected together with its suite")

// Selection chooses what to run: everything, one suite, or one test of one suite.
type Selection struct {
	Suite string
	Test  string
}

// All reports whether the selection covers the whole registry
func (s Selection) All() bool {
	return s.Suite == "" && s.Test == ""
}

// Validate checks the shape of the selection, not whether the names exist.
func (s Selection) Validate() error {
	if s.Suite == "" && s.Test != "" {
		return ErrInvalidSelection
	}
	return nil
}

func (s Selection) String() string {
	switch {
	case s.All():
		return "all suites"
	case s.Test == "":
		return fmt.Sprintf("suite %q", s.Suite)
	default:
		return fmt.Sprintf("test %q of suite %q", s.Test, s.Suite)
	}
}
