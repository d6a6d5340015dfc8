package suites

import (
	"github.com/ethereum-optimism/infra/op-exitprobe/suites/tests"
	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

var Requirements = &types.SuiteDefinition{
	Code:          "requirements",
	Title:         "Harness requirements",
	Description:   "Properties of output capture the rest of the collection relies on.",
	IsRequirement: true,
	Tests: []*types.TestDefinition{
		tests.PartialOutput,
		tests.LargeOutput,
		tests.StreamSeparation,
	},
}
