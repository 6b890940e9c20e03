package vm

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

// Registry keeps every code unit uploaded to the runtime, keyed by code
// reference. It is safe for concurrent use.
type Registry struct {
	codes sync.Map // map[common.Hash]*Code
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry { return new(Registry) }

// Upload registers c and returns its reference. Uploading the same code twice
// is a no-op.
func (r *Registry) Upload(c *Code) common.Hash {
	if _, loaded := r.codes.LoadOrStore(c.Hash(), c); !loaded {
		log.Debug("Uploaded code", "name", c.Name, "hash", c.Hash())
	}
	return c.Hash()
}

// Lookup returns the code unit registered under hash.
func (r *Registry) Lookup(hash common.Hash) (*Code, bool) {
	if v, ok := r.codes.Load(hash); ok {
		return v.(*Code), true
	}
	return nil, false
}

// Remove forgets the code registered under hash. Accounts already running the
// code keep their code hash but can no longer be dispatched to.
func (r *Registry) Remove(hash common.Hash) {
	r.codes.Delete(hash)
}
