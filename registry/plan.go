package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

// Duration parses "90s" style strings from both YAML and TOML plans
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if parsed < 0 {
		return fmt.Errorf("duration %s cannot be negative", parsed)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// TestPlan overrides settings of a single test
type TestPlan struct {
	Timeout *Duration `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

// Plan is an optional run plan file. Every field is optional; flags given
// explicitly on the command line win over the plan.
type Plan struct {
	Suite       string              `yaml:"suite,omitempty" toml:"suite,omitempty"`
	Test        string              `yaml:"test,omitempty" toml:"test,omitempty"`
	Timeout     *Duration           `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
	Concurrency *int                `yaml:"concurrency,omitempty" toml:"concurrency,omitempty"`
	StdoutLimit *int                `yaml:"stdout_limit,omitempty" toml:"stdout_limit,omitempty"`
	StderrLimit *int                `yaml:"stderr_limit,omitempty" toml:"stderr_limit,omitempty"`
	Tests       map[string]TestPlan `yaml:"tests,omitempty" toml:"tests,omitempty"` // keyed by "<suite>.<test>"
}

// LoadPlan reads a plan, choosing the decoder from the file extension
func LoadPlan(path string) (*Plan, error) {
	log.Debug("Reading run plan", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}

	var plan Plan
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&plan); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing plan file: %w", err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &plan)
		if err != nil {
			return nil, fmt.Errorf("parsing plan file: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parsing plan file: unknown keys %v", undecoded)
		}
	default:
		return nil, fmt.Errorf("unsupported plan file extension %q", ext)
	}
	return &plan, nil
}

// Selection returns the plan's selection
func (p *Plan) Selection() types.Selection {
	return types.Selection{Suite: p.Suite, Test: p.Test}
}

// TestTimeouts returns the per-test timeout overrides
func (p *Plan) TestTimeouts() map[string]time.Duration {
	out := make(map[string]time.Duration)
	for id, tp := range p.Tests {
		if tp.Timeout != nil {
			out[id] = time.Duration(*tp.Timeout)
		}
	}
	return out
}

// Validate checks the plan against the registry: the selection shape and
// every per-test key must resolve
func (p *Plan) Validate(r *Registry) error {
	if err := p.Selection().Validate(); err != nil {
		return err
	}
	if p.Concurrency != nil && *p.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	for _, limit := range []*int{p.StdoutLimit, p.StderrLimit} {
		if limit != nil && *limit < 0 {
			return fmt.Errorf("capture limits cannot be negative")
		}
	}
	for id := range p.Tests {
		if !r.HasTestID(id) {
			return fmt.Errorf("plan references %w %q", ErrUnknownTest, id)
		}
	}
	return nil
}
