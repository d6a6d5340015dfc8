package tests

import (
	"fmt"
	"time"

	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

// UncaughtPanic is a library call that does not recover an exception, whose
// caller does not recover it either.
var UncaughtPanic = &types.TestDefinition{
	Code:        "uncaught-panic",
	Title:       "A library does not catch an exception",
	Description: "An external function runs a protected block that only has a finally clause. The exception it raises propagates to the caller, which does not catch it either, so the uncaught exception terminates the program.",
	IsCritical:  true,
	AtFailure:   "Uncaught exceptions do not terminate the program.",
	Expect:      types.Expectation{ExitCode: 2, Output: "____aux_before_PANIC", Error: "WildException"},
	Func: func() int {
		fmt.Println("before_CALL_FUNCTION_ext")
		result := ext()
		fmt.Println("after_CALL_FUNCTION_ext")
		fmt.Printf("result_was_%d\n", result)
		return 0
	},
}

func aux(pointer *int) {
	if pointer == nil {
		fmt.Println("____aux_before_PANIC")
		panic(wild("Nobody will catch me."))
	}
	fmt.Println("____aux_no_exception_was_raised")
}

func ext() int {
	fmt.Println("__ext_before_TRY_block")
	try(func() {
		fmt.Println("__ext_before_CALL_FUNCTION_aux")
		aux(nil)
		fmt.Println("__ext_after_CALL_FUNCTION_aux")
	}, nil, func() {
		fmt.Println("__ext_FINALLY_block")
	})
	fmt.Println("__ext_after_TRY_block")
	return 0
}

// UncaughtInGoroutine lets an exception escape a background goroutine.
var UncaughtInGoroutine = &types.TestDefinition{
	Code:        "uncaught-in-goroutine",
	Title:       "An exception escapes a background goroutine",
	Description: "The exception is raised on a goroutine other than the one running the test body. The exit status after an unhandled fault is left to the platform, only the message matters.",
	IsCritical:  false,
	Expect:      types.Expectation{ExitCode: types.AnyExitCode, Error: "Nobody will catch me."},
	Func: func() int {
		go func() {
			panic(wild("Nobody will catch me."))
		}()
		time.Sleep(10 * time.Second)
		return 0
	},
}

// CaughtPanic recovers the exception by type.
var CaughtPanic = &types.TestDefinition{
	Code:        "caught-panic",
	Title:       "An exception is caught",
	Description: "A protected block raises a WildException which the catch clause handles; the program then continues normally.",
	IsCritical:  true,
	Expect:      types.Expectation{ExitCode: 0, Output: "caught_WildException"},
	Func: func() int {
		try(func() {
			panic(wild("Catch me if you can."))
		}, func(e *Exception) {
			fmt.Printf("caught_%s\n", e.Name)
		}, nil)
		fmt.Println("after_TRY_block")
		return 0
	},
}

// FinallyRuns checks that the finally clause of an inner block runs while an
// exception unwinds to an outer block.
var FinallyRuns = &types.TestDefinition{
	Code:        "finally-runs",
	Title:       "Finally blocks run during propagation",
	Description: "An inner block without a catch clause lets the exception through, but its finally clause still runs before the outer block catches it.",
	IsCritical:  true,
	Expect:      types.Expectation{ExitCode: 0, Output: "inner_FINALLY"},
	Func: func() int {
		try(func() {
			try(func() {
				panic(tame("unwinding"))
			}, nil, func() {
				fmt.Println("inner_FINALLY")
			})
		}, func(e *Exception) {
			fmt.Printf("outer_caught_%s\n", e.Name)
		}, nil)
		return 0
	},
}

// RethrowPanic catches one exception and raises another from the catch clause.
var RethrowPanic = &types.TestDefinition{
	Code:        "rethrow",
	Title:       "An exception is raised from a catch clause",
	Description: "The catch clause handles a WildException and raises a TameException that nobody catches.",
	IsCritical:  true,
	Expect:      types.Expectation{ExitCode: 2, Output: "caught_WildException", Error: "TameException: raised while catching"},
	Func: func() int {
		try(func() {
			panic(wild("first"))
		}, func(e *Exception) {
			fmt.Printf("caught_%s\n", e.Name)
			panic(tame("raised while catching"))
		}, nil)
		return 0
	},
}
