package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	exitprobe "github.com/ethereum-optimism/infra/op-exitprobe"
	"github.com/ethereum-optimism/infra/op-exitprobe/exitcodes"
	"github.com/ethereum-optimism/infra/op-exitprobe/flags"
	"github.com/ethereum-optimism/infra/op-exitprobe/isolate"
	"github.com/ethereum-optimism/infra/op-exitprobe/registry"
	"github.com/ethereum-optimism/infra/op-exitprobe/suites"
	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	reg, err := suites.NewRegistry(log.Root())
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid test collection: %v\n", err)
		os.Exit(exitcodes.RuntimeErr)
	}
	// Isolated test children never reach the CLI.
	isolate.MaybeExec(reg.Lookup)

	app := newApp(reg)

	ctx, shutdown, err := telemetry.SetupOpenTelemetry(
		context.Background(),
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	ctx = ctxinterrupt.WithSignalWaiterMain(ctx)
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func newApp(reg *registry.Registry) *cli.App {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "op-exitprobe"
	app.Usage = "Crash-isolating test harness"
	app.Description = "op-exitprobe runs every test in its own process and reports how it terminated"
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = cliapp.LifecycleCmd(run(reg))
	app.ExitErrHandler = exitErrHandler
	return app
}

func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		cli.HandleExitCoder(exitErr)
		return
	}
	cli.HandleExitCoder(cli.Exit(err.Error(), exitCodeFor(err)))
}

// exitCodeFor maps a run error onto the process exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitcodes.Success
	case exitprobe.IsAbortedError(err):
		return exitcodes.Aborted
	case exitprobe.IsSelectionError(err):
		return exitcodes.SelectionErr
	case exitprobe.IsTestFailureError(err):
		return exitcodes.TestFailure
	default:
		return exitcodes.RuntimeErr
	}
}

func run(reg *registry.Registry) cliapp.LifecycleAction {
	return func(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
		logCfg := oplog.ReadCLIConfig(ctx)
		logger := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
		oplog.SetGlobalLogHandler(logger.Handler())
		oplog.SetupDefaults()

		cfg, err := exitprobe.NewConfig(ctx, logger)
		if err != nil {
			return nil, exitprobe.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
		}
		cfg.Output = ctx.App.Writer
		cfg.Log.Debug("Config", "config", cfg)

		probe, err := exitprobe.New(cfg, reg, Version, closeApp)
		if err != nil {
			return nil, err
		}
		return probe, nil
	}
}
