package suites

import (
	"github.com/ethereum-optimism/infra/op-exitprobe/suites/tests"
	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

var ExitCodes = &types.SuiteDefinition{
	Code:        "exit",
	Title:       "Exit codes",
	Description: "Test bodies that return or exit with a known code.",
	Tests: []*types.TestDefinition{
		tests.ExitSuccess,
		tests.ExitFailure,
		tests.ExitMidOutput,
		tests.ExitCodeWraps,
	},
}
