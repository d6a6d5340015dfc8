package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum-optimism/infra/op-exitprobe/types"
	"github.com/ethereum/go-ethereum/log"
)

var (
	ErrUnknownSuite = errors.New("unknown suite")
	ErrUnknownTest  = errors.New("unknown test")
)

// Registry holds the validated suite definitions of one collection. It is
// built once at startup and never mutated; every run gets fresh records.
type Registry struct {
	config Config
	suites []*types.SuiteDefinition
	tests  map[string]*types.TestDefinition
	mu     sync.RWMutex
}

// Config contains registry configuration
type Config struct {
	Log    log.Logger
	Name   string
	Suites []*types.SuiteDefinition
}

// NewRegistry validates the suites and creates a registry instance
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}

	r := &Registry{
		config: cfg,
		tests:  make(map[string]*types.TestDefinition),
	}
	if err := r.loadSuites(cfg.Suites); err != nil {
		return nil, fmt.Errorf("invalid collection %s: %w", cfg.Name, err)
	}

	cfg.Log.Debug("Registry loaded", "collection", cfg.Name, "suites", len(r.suites), "tests", len(r.tests))
	return r, nil
}

// loadSuites checks that suite codes and test codes are unique and that every
// test has a body
func (r *Registry) loadSuites(suites []*types.SuiteDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seenSuites := make(map[string]bool)
	for i, suite := range suites {
		if suite == nil {
			return fmt.Errorf("suite %d is nil", i)
		}
		if suite.Code == "" {
			return fmt.Errorf("suite %d has no code", i)
		}
		if seenSuites[suite.Code] {
			return fmt.Errorf("duplicate suite code %q", suite.Code)
		}
		seenSuites[suite.Code] = true

		for j, test := range suite.Tests {
			if test == nil {
				return fmt.Errorf("suite %s: test %d is nil", suite.Code, j)
			}
			if test.Code == "" {
				return fmt.Errorf("suite %s: test %d has no code", suite.Code, j)
			}
			if _, dup := r.tests[test.Code]; dup {
				return fmt.Errorf("duplicate test code %q in suite %s", test.Code, suite.Code)
			}
			if test.Func == nil {
				return fmt.Errorf("suite %s: test %s has no function", suite.Code, test.Code)
			}
			if test.Timeout < 0 {
				return fmt.Errorf("suite %s: test %s has a negative timeout", suite.Code, test.Code)
			}
			r.tests[test.Code] = test
		}
		r.suites = append(r.suites, suite)
	}
	return nil
}

// Name returns the collection name
func (r *Registry) Name() string {
	return r.config.Name
}

// GetSuites returns every suite definition in declaration order
func (r *Registry) GetSuites() []*types.SuiteDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.suites
}

// GetSuite returns the suite definition with the given code
func (r *Registry) GetSuite(code string) (*types.SuiteDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.suites {
		if s.Code == code {
			return s, true
		}
	}
	return nil, false
}

// Lookup resolves a test code to its function, for isolated children
func (r *Registry) Lookup(code string) (types.TestFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	test, ok := r.tests[code]
	if !ok {
		return nil, false
	}
	return test.Func, true
}

// HasTest reports whether "<suite>.<test>" names a registered test
func (r *Registry) HasTest(suiteCode, testCode string) bool {
	suite, ok := r.GetSuite(suiteCode)
	if !ok {
		return false
	}
	for _, t := range suite.Tests {
		if t.Code == testCode {
			return true
		}
	}
	return false
}

// HasTestID reports whether id, "<suite>.<test>", names a registered test
func (r *Registry) HasTestID(id string) bool {
	for _, suite := range r.GetSuites() {
		if testCode, ok := strings.CutPrefix(id, suite.Code+"."); ok && r.HasTest(suite.Code, testCode) {
			return true
		}
	}
	return false
}

// NewRun builds a RunRegistry with fresh records for the selection. Unknown
// names are reported before anything is built.
func (r *Registry) NewRun(runID string, sel types.Selection) (*types.RunRegistry, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	run := &types.RunRegistry{
		RunID:  runID,
		Name:   r.Name(),
		Status: types.TestStatusUnknown,
	}

	if sel.All() {
		for _, def := range r.GetSuites() {
			run.Suites = append(run.Suites, types.NewSuite(def))
		}
		return run, nil
	}

	def, ok := r.GetSuite(sel.Suite)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSuite, sel.Suite)
	}
	if sel.Test == "" {
		run.Suites = append(run.Suites, types.NewSuite(def))
		return run, nil
	}

	for _, t := range def.Tests {
		if t.Code == sel.Test {
			narrowed := *def
			narrowed.Tests = []*types.TestDefinition{t}
			run.Suites = append(run.Suites, types.NewSuite(&narrowed))
			return run, nil
		}
	}
	return nil, fmt.Errorf("%w: %q in suite %q", ErrUnknownTest, sel.Test, sel.Suite)
}
