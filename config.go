package exitprobe

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/ethereum-optimism/infra/op-exitprobe/flags"
	"github.com/ethereum-optimism/infra/op-exitprobe/registry"
	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

// Config holds the application configuration
type Config struct {
	Selection        types.Selection
	ReportPath       string                   // empty prints the table only
	StdoutPath       string                   // aggregate stdout file
	StderrPath       string                   // aggregate stderr file
	Timeout          time.Duration            // per-test bound, zero disables
	TestTimeouts     map[string]time.Duration // per-test overrides from the plan
	Concurrency      int
	StdoutLimit      int
	StderrLimit      int
	LogDir           string
	Repeat           int // run the selection this many times when > 1
	Strict           bool
	List             bool
	ShowProgress     bool
	ProgressInterval time.Duration
	PlanPath         string
	Plan             *registry.Plan // nil without --plan
	Metrics          opmetrics.CLIConfig
	Output           io.Writer // console report destination
	Log              log.Logger
}

// NewConfig creates a new Config from cli context. Plan values fill in
// whatever was not set explicitly on the command line.
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	cfg := &Config{
		Selection: types.Selection{
			Suite: ctx.String(flags.Suite.Name),
			Test:  ctx.String(flags.Test.Name),
		},
		ReportPath:       ctx.String(flags.Report.Name),
		StdoutPath:       ctx.String(flags.OutFile.Name),
		StderrPath:       ctx.String(flags.ErrFile.Name),
		Timeout:          ctx.Duration(flags.Timeout.Name),
		Concurrency:      ctx.Int(flags.Concurrency.Name),
		StdoutLimit:      ctx.Int(flags.StdoutLimit.Name),
		StderrLimit:      ctx.Int(flags.StderrLimit.Name),
		LogDir:           ctx.String(flags.LogDir.Name),
		Repeat:           ctx.Int(flags.Repeat.Name),
		Strict:           ctx.Bool(flags.Strict.Name),
		List:             ctx.Bool(flags.List.Name),
		ShowProgress:     ctx.Bool(flags.ShowProgress.Name),
		ProgressInterval: ctx.Duration(flags.ProgressInterval.Name),
		PlanPath:         ctx.String(flags.Plan.Name),
		Metrics:          opmetrics.ReadCLIConfig(ctx),
		Output:           os.Stdout,
		Log:              log,
	}

	if cfg.PlanPath != "" {
		plan, err := registry.LoadPlan(cfg.PlanPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load plan '%s': %w", cfg.PlanPath, err)
		}
		cfg.applyPlan(plan, ctx.IsSet)
	}

	// Resolve the absolute paths
	for _, p := range []*string{&cfg.ReportPath, &cfg.StdoutPath, &cfg.StderrPath, &cfg.LogDir} {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for '%s': %w", *p, err)
		}
		*p = abs
	}

	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyPlan copies plan values into fields whose flag was not set explicitly
func (c *Config) applyPlan(plan *registry.Plan, isSet func(string) bool) {
	c.Plan = plan
	// a planned test only makes sense together with the planned suite
	planned := plan.Selection()
	switch {
	case !isSet(flags.Suite.Name) && !isSet(flags.Test.Name):
		c.Selection = planned
	case !isSet(flags.Suite.Name):
		c.Selection.Suite = planned.Suite
	}
	if plan.Timeout != nil && !isSet(flags.Timeout.Name) {
		c.Timeout = time.Duration(*plan.Timeout)
	}
	if plan.Concurrency != nil && !isSet(flags.Concurrency.Name) {
		c.Concurrency = *plan.Concurrency
	}
	if plan.StdoutLimit != nil && !isSet(flags.StdoutLimit.Name) {
		c.StdoutLimit = *plan.StdoutLimit
	}
	if plan.StderrLimit != nil && !isSet(flags.StderrLimit.Name) {
		c.StderrLimit = *plan.StderrLimit
	}
	c.TestTimeouts = plan.TestTimeouts()
}

// Check validates values that are not tied to the registry
func (c *Config) Check() error {
	if c.Log == nil {
		return errors.New("logger is required")
	}
	if c.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.StdoutLimit < 1 || c.StderrLimit < 1 {
		return errors.New("capture limits must be positive")
	}
	if c.Repeat < 0 {
		return errors.New("repeat cannot be negative")
	}
	if c.ShowProgress && c.ProgressInterval < 0 {
		return fmt.Errorf("progress interval cannot be negative, got %s", c.ProgressInterval)
	}
	if c.Metrics.Enabled {
		if err := c.Metrics.Check(); err != nil {
			return fmt.Errorf("invalid metrics config: %w", err)
		}
	}
	return nil
}
