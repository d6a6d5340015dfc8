package tests

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

// NilDereference is a memory fault inside the test body.
var NilDereference = &types.TestDefinition{
	Code:        "nil-dereference",
	Title:       "A nil pointer is dereferenced",
	Description: "The runtime turns the fault into a panic. The exit status is left to the platform, the runtime error message must reach stderr.",
	IsCritical:  false,
	Expect:      types.Expectation{ExitCode: types.AnyExitCode, Output: "before_DEREF", Error: "nil pointer dereference"},
	Func: func() int {
		var p *Exception
		fmt.Println("before_DEREF")
		fmt.Println(p.Name)
		return 0
	},
}

// SelfKill terminates the child with SIGKILL.
var SelfKill = &types.TestDefinition{
	Code:        "self-kill",
	Title:       "The process kills itself",
	Description: "A signal death is reported as 128 plus the signal number, 137 for SIGKILL.",
	IsCritical:  false,
	AtFailure:   "Signal deaths are not reported with the shell convention.",
	Expect:      types.Expectation{ExitCode: 128 + 9, Output: "before_SIGNAL"},
	Func: func() int {
		fmt.Println("before_SIGNAL")
		p, err := os.FindProcess(os.Getpid())
		if err != nil {
			return 1
		}
		if err := p.Kill(); err != nil {
			return 1
		}
		time.Sleep(10 * time.Second)
		fmt.Println("after_SIGNAL")
		return 0
	},
}

// SelfTerminate delivers SIGTERM, which Go programs do not handle by default.
var SelfTerminate = &types.TestDefinition{
	Code:        "self-terminate",
	Title:       "The process receives SIGTERM",
	Description: "Without a handler the default action ends the process and the harness reports 143.",
	IsCritical:  false,
	Expect:      types.Expectation{ExitCode: 128 + 15, Output: "before_SIGNAL"},
	Func: func() int {
		fmt.Println("before_SIGNAL")
		p, err := os.FindProcess(os.Getpid())
		if err != nil {
			return 1
		}
		if err := p.Signal(syscall.SIGTERM); err != nil {
			return 1
		}
		time.Sleep(10 * time.Second)
		return 0
	},
}
