package flags

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

const EnvVarPrefix = "OP_EXITPROBE"

var (
	Suite = &cli.StringFlag{
		Name:    "suite",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SUITE"),
		Usage:   "Run only the suite with this code",
	}
	Test = &cli.StringFlag{
		Name:    "test",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TEST"),
		Usage:   "Run only the test with this code. Requires --suite",
	}
	Report = &cli.StringFlag{
		Name:    "report",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REPORT"),
		Usage:   "Write the final report to this path. The format follows the extension: .json, .html, anything else is a text table",
	}
	OutFile = &cli.StringFlag{
		Name:    "out",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "OUT"),
		Usage:   "Write the captured stdout of every test to this file",
	}
	ErrFile = &cli.StringFlag{
		Name:    "err",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "ERR"),
		Usage:   "Write the captured stderr of every test to this file",
	}
	Timeout = &cli.DurationFlag{
		Name:    "timeout",
		Value:   time.Minute,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TIMEOUT"),
		Usage:   "Wall clock bound for each test (e.g. '30s'). 0 disables it. A test that times out fails",
		Action:  validateTimeout,
	}
	Concurrency = &cli.IntFlag{
		Name:    "concurrency",
		Value:   1,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONCURRENCY"),
		Usage:   "Number of tests executed at the same time. 1 runs them sequentially",
		Action:  validateConcurrency,
	}
	StdoutLimit = &cli.IntFlag{
		Name:    "stdout-limit",
		Value:   16 * 1024,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "STDOUT_LIMIT"),
		Usage:   "Bytes of stdout kept per test. Output beyond it is discarded",
		Action:  validateLimit,
	}
	StderrLimit = &cli.IntFlag{
		Name:    "stderr-limit",
		Value:   32 * 1024,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "STDERR_LIMIT"),
		Usage:   "Bytes of stderr kept per test. Output beyond it is discarded",
		Action:  validateLimit,
	}
	Plan = &cli.StringFlag{
		Name:    "plan",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PLAN"),
		Usage:   "Path to a run plan (.yaml, .yml or .toml). Flags given explicitly override it",
	}
	LogDir = &cli.StringFlag{
		Name:    "logdir",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LOGDIR"),
		Usage:   "Directory to store per-test logs. Empty disables them",
	}
	Repeat = &cli.IntFlag{
		Name:    "repeat",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REPEAT"),
		Usage:   "Run the selection this many times and report tests whose status changes between runs",
		Action: func(c *cli.Context, v int) error {
			if v < 0 {
				return fmt.Errorf("repeat cannot be negative, got %d", v)
			}
			return nil
		},
	}
	Strict = &cli.BoolFlag{
		Name:    "strict",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "STRICT"),
		Usage:   "Exit with code 1 when any test failed",
	}
	List = &cli.BoolFlag{
		Name:    "list",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LIST"),
		Usage:   "List the registered suites and tests, then exit",
	}
	ShowProgress = &cli.BoolFlag{
		Name:    "show-progress",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SHOW_PROGRESS"),
		Usage:   "Log periodic progress updates while tests run",
	}
	ProgressInterval = &cli.DurationFlag{
		Name:    "progress-interval",
		Value:   30 * time.Second,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PROGRESS_INTERVAL"),
		Usage:   "Interval between progress updates when --show-progress is set",
		Action:  validateInterval,
	}
)

var optionalFlags = []cli.Flag{
	Suite,
	Test,
	Report,
	OutFile,
	ErrFile,
	Timeout,
	Concurrency,
	StdoutLimit,
	StderrLimit,
	Plan,
	LogDir,
	Repeat,
	Strict,
	List,
	ShowProgress,
	ProgressInterval,
}

var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = optionalFlags
}

func validateTimeout(c *cli.Context, d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("timeout cannot be negative, got %s", d)
	}
	return nil
}

func validateInterval(c *cli.Context, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("progress interval must be positive, got %s", d)
	}
	return nil
}

func validateConcurrency(c *cli.Context, v int) error {
	if v < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", v)
	}
	return nil
}

func validateLimit(c *cli.Context, v int) error {
	if v < 1 {
		return fmt.Errorf("capture limit must be positive, got %d", v)
	}
	return nil
}
