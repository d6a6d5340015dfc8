package suites

import (
	"github.com/ethereum-optimism/infra/op-exitprobe/suites/tests"
	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

// Faults depend on platform behaviour, so none of their tests is critical.
var Faults = &types.SuiteDefinition{
	Code:        "faults",
	Title:       "Faults and signals",
	Description: "Memory faults and signal deaths of the test process.",
	Tests: []*types.TestDefinition{
		tests.NilDereference,
		tests.SelfKill,
		tests.SelfTerminate,
	},
}
