// Package suites declares the built-in test collection run by the exitprobe
// binary.
package suites

import (
	"github.com/ethereum-optimism/infra/op-exitprobe/registry"
	"github.com/ethereum-optimism/infra/op-exitprobe/types"
	"github.com/ethereum/go-ethereum/log"
)

const CollectionName = "exitprobe-selfcheck"

// All returns the built-in suites in declaration order.
func All() []*types.SuiteDefinition {
	return []*types.SuiteDefinition{
		ExitCodes,
		Panics,
		Faults,
		Requirements,
	}
}

// NewRegistry builds a registry over the built-in collection.
func NewRegistry(logger log.Logger) (*registry.Registry, error) {
	return registry.NewRegistry(registry.Config{
		Log:    logger,
		Name:   CollectionName,
		Suites: All(),
	})
}
