package tests

import (
	"fmt"
	"os"

	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

// ExitSuccess returns normally with a zero code.
var ExitSuccess = &types.TestDefinition{
	Code:        "exit-success",
	Title:       "A test body returns zero",
	Description: "The body writes to stdout and returns 0, which becomes the child's exit code.",
	IsCritical:  true,
	Expect:      types.Expectation{ExitCode: 0, Output: "done"},
	Func: func() int {
		fmt.Println("before_RETURN")
		fmt.Println("done")
		return 0
	},
}

// ExitFailure returns a non-zero code after reporting on stderr.
var ExitFailure = &types.TestDefinition{
	Code:        "exit-failure",
	Title:       "A test body returns a failure code",
	Description: "The returned code is propagated unchanged and stderr is captured separately from stdout.",
	IsCritical:  true,
	Expect:      types.Expectation{ExitCode: 1, Output: "before_RETURN", Error: "failure reported"},
	Func: func() int {
		fmt.Println("before_RETURN")
		fmt.Fprintln(os.Stderr, "failure reported")
		return 1
	},
}

// ExitMidOutput terminates the process from inside a nested call.
var ExitMidOutput = &types.TestDefinition{
	Code:        "os-exit-mid-output",
	Title:       "The process exits from a nested call",
	Description: "A helper calls os.Exit(3) while the body still has work left. Output written before the exit is kept; nothing after it appears.",
	IsCritical:  true,
	AtFailure:   "Partial output written before an abrupt exit is lost.",
	Expect:      types.Expectation{ExitCode: 3, Output: "before_EXIT"},
	Func: func() int {
		fmt.Println("before_EXIT")
		exitNow(3)
		fmt.Println("after_EXIT")
		return 0
	},
}

// ExitCodeWraps relies on the platform truncating exit statuses to a byte.
var ExitCodeWraps = &types.TestDefinition{
	Code:        "exit-code-wraps",
	Title:       "An out of range exit code",
	Description: "Exiting with 263 is reported as 7 on unix, where exit statuses are a single byte. Other platforms may report the full value.",
	IsCritical:  false,
	Expect:      types.Expectation{ExitCode: 7},
	Func: func() int {
		return 256 + 7
	},
}

func exitNow(code int) {
	os.Exit(code)
}
