package runner

import (
	"strings"

	"github.com/ethereum-optimism/infra/op-exitprobe/types"
)

// Verify compares an outcome with the definition's expectations.
//
// A mismatch makes a critical test failed and a non-critical test a warning.
// A timed out test is failed whatever its criticality, and an aborted one is
// reported as aborted without being compared.
func Verify(def *types.TestDefinition, outcome types.Outcome) *types.TestResult {
	res := &types.TestResult{Outcome: outcome}

	if outcome.Termination == types.TerminationAborted {
		res.Status = types.TestStatusAborted
		return res
	}

	res.UnexpectedExitCode = !def.Expect.AnyExit() && outcome.ExitCode != def.Expect.ExitCode
	res.UnexpectedOutput = !containsFragment(outcome.Stdout, def.Expect.Output)
	res.UnexpectedError = !containsFragment(outcome.Stderr, def.Expect.Error)

	switch {
	case outcome.Termination == types.TerminationTimedOut:
		res.Status = types.TestStatusFailed
	case !res.Mismatched():
		res.Status = types.TestStatusPassed
	case def.IsCritical:
		res.Status = types.TestStatusFailed
	default:
		res.Status = types.TestStatusWarning
	}
	return res
}

// an empty fragment is no requirement
func containsFragment(found, expected string) bool {
	return expected == types.AnyOutput || strings.Contains(found, expected)
}
