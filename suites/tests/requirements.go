package tests

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

// LargeOutputLines is how many lines LargeOutput writes, enough to overflow
// the default capture limit.
const LargeOutputLines = 4096

// PartialOutput checks that output flushed before a crash survives it.
var PartialOutput = &types.TestDefinition{
	Code:          "partial-output",
	Title:         "Output written before a crash is kept",
	Description:   "Lines written to both streams before an uncaught exception must be present in the captured output.",
	IsRequirement: true,
	IsCritical:    true,
	AtFailure:     "Output before a crash is lost, so failures cannot be diagnosed.",
	Expect:        types.Expectation{ExitCode: 2, Output: "step_2_of_3", Error: "warning_before_CRASH"},
	Func: func() int {
		for i := 1; i <= 2; i++ {
			fmt.Printf("step_%d_of_3\n", i)
		}
		fmt.Fprintln(os.Stderr, "warning_before_CRASH")
		panic(wild("crash at step 3"))
	},
}

// LargeOutput writes more than the harness keeps.
var LargeOutput = &types.TestDefinition{
	Code:          "large-output",
	Title:         "Large output is truncated",
	Description:   "The test writes far more than the stdout capture limit. The head is kept and the test still passes on its exit code.",
	IsRequirement: true,
	IsCritical:    true,
	Expect:        types.Expectation{ExitCode: 0, Output: "BEGIN"},
	Func: func() int {
		fmt.Println("BEGIN")
		line := strings.Repeat("x", 63)
		for i := 0; i < LargeOutputLines; i++ {
			fmt.Println(line)
		}
		fmt.Println("END")
		return 0
	},
}

// StreamSeparation checks that stdout and stderr are captured independently.
var StreamSeparation = &types.TestDefinition{
	Code:          "stream-separation",
	Title:         "stdout and stderr are captured separately",
	Description:   "Each stream carries its own marker. Matching both against the right stream shows they were not merged.",
	IsRequirement: true,
	IsCritical:    true,
	Expect:        types.Expectation{ExitCode: 0, Output: "only_on_STDOUT", Error: "only_on_STDERR"},
	Func: func() int {
		fmt.Println("only_on_STDOUT")
		fmt.Fprintln(os.Stderr, "only_on_STDERR")
		return 0
	},
}
