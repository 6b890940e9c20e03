package vm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

// Context is the environment an entry point executes in. It is bound to one
// frame and is only valid while the handler runs.
type Context struct {
	rt    *Runtime
	frame *Frame
}

// AccountID returns the account whose storage and identity the frame uses.
// Under a delegate call this is the caller's account.
func (c *Context) AccountID() common.Address { return c.frame.account }

// Caller returns the account that invoked the frame. Under a delegate call this
// is the caller's own caller.
func (c *Context) Caller() common.Address { return c.frame.caller }

// CodeHash returns the reference of the code being executed.
func (c *Context) CodeHash() common.Hash { return c.frame.code.Hash() }

// TransferredValue returns the value transferred with the invocation.
func (c *Context) TransferredValue() *uint256.Int {
	if c.frame.value == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(c.frame.value)
}

// Balance returns the balance of the bound account.
func (c *Context) Balance() *uint256.Int { return c.rt.state.GetBalance(c.frame.account) }

// Depth returns the frame's call depth; the first frame of a message is 1.
func (c *Context) Depth() int { return c.frame.depth }

// Input returns a copy of the frame's full input, selector included.
func (c *Context) Input() []byte { return common.CopyBytes(c.frame.input) }

// GetState reads slot of the bound account through frame memory.
func (c *Context) GetState(slot common.Hash) (common.Hash, error) {
	return c.frame.load(c.rt.state, c.rt.cfg.Schedule, slot)
}

// SetState writes slot in frame memory. Writing after the frame has been
// sealed by a tail call is recorded as a hazard; the write is kept in memory
// but the frame no longer flushes.
func (c *Context) SetState(slot, value common.Hash) error {
	if c.frame.sealed {
		hazard := fmt.Errorf("%w: slot %s written by %s after tail call", ErrConflictingTailCall, slot.Hex(), c.frame.entry.Name)
		c.rt.hazard(hazard)
		log.Warn("Storage written after tail call", "account", c.frame.account, "slot", slot, "entry", c.frame.entry.Name)
	}
	return c.frame.store(c.rt.cfg.Schedule, slot, value)
}

// GetBool reads a boolean cell.
func (c *Context) GetBool(slot common.Hash) (bool, error) {
	v, err := c.GetState(slot)
	if err != nil {
		return false, err
	}
	return v != (common.Hash{}), nil
}

// SetBool writes a boolean cell.
func (c *Context) SetBool(slot common.Hash, b bool) error {
	var v common.Hash
	if b {
		v[common.HashLength-1] = 1
	}
	return c.SetState(slot, v)
}

// GetAddress reads an address cell.
func (c *Context) GetAddress(slot common.Hash) (common.Address, error) {
	v, err := c.GetState(slot)
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(v[:]), nil
}

// SetAddress writes an address cell.
func (c *Context) SetAddress(slot common.Hash, addr common.Address) error {
	return c.SetState(slot, common.BytesToHash(addr[:]))
}

// Invoke dispatches inv on behalf of the frame.
func (c *Context) Invoke(inv *Invocation) (*Result, error) {
	return c.rt.invoke(c.frame, inv)
}
