package suites

import (
	"github.com/ethereum-optimism/infra/op-exitprobe/suites/tests"
	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

var Panics = &types.SuiteDefinition{
	Code:        "panics",
	Title:       "Exceptions",
	Description: "Raising, catching and propagating exceptions, including ones nobody catches.",
	Tests: []*types.TestDefinition{
		tests.UncaughtPanic,
		tests.UncaughtInGoroutine,
		tests.CaughtPanic,
		tests.FinallyRuns,
		tests.RethrowPanic,
	},
}
