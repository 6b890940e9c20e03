package vm

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/state"
)

// Executor is the abstraction the message layer runs against. The only
// backend executes native Go code units; the interface keeps the message layer
// from depending on it directly.
type Executor interface {
	// Engine returns a human-readable short name identifying the backend.
	Engine() string
	// Upload makes a code unit available for instantiation and delegation.
	Upload(c *Code) common.Hash
	// Exec runs one top-level invocation.
	Exec(origin common.Address, inv *Invocation, limits Limits) *Receipt
}

// NewExecutor returns an executor persisting into sdb.
func NewExecutor(sdb *state.StateDB, registry *Registry, cfg *Config) (Executor, error) {
	if sdb == nil {
		return nil, errors.New("statedb is nil")
	}
	return NewRuntime(NewStateDBBackend(sdb), registry, cfg), nil
}
