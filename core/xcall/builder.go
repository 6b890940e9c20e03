// Package xcall builds and issues cross-contract invocations: ordinary calls,
// instantiations and delegate calls. All three share one Builder; the style
// is fixed by the constructor used.
package xcall

import (
	"github.com/clydemeng/xcall/core/vm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Builder assembles a vm.Invocation.
type Builder struct {
	inv   vm.Invocation
	input *vm.Input
}

// Call starts an ordinary call to account.
func Call(account common.Address) *Builder {
	return &Builder{inv: vm.Invocation{Style: vm.StyleCall, Target: account}}
}

// Delegate starts a delegate call into the code named by code.
func Delegate(code common.Hash) *Builder {
	return &Builder{inv: vm.Invocation{Style: vm.StyleDelegateCall, Code: code}}
}

// Create starts an instantiation of the code named by code.
func Create(code common.Hash) *Builder {
	return &Builder{inv: vm.Invocation{Style: vm.StyleInstantiate, Code: code}}
}

// Style returns the invocation style of the builder.
func (b *Builder) Style() vm.Style { return b.inv.Style }

// CodeHash sets the code reference of a delegate call or instantiation.
func (b *Builder) CodeHash(code common.Hash) *Builder {
	b.inv.Code = code
	return b
}

// ExecInput sets the selector and arguments.
func (b *Builder) ExecInput(in *vm.Input) *Builder {
	b.input = in
	return b
}

// RefTimeLimit bounds the computation time of the callee. Zero forwards
// everything the caller has left.
func (b *Builder) RefTimeLimit(limit uint64) *Builder {
	b.inv.Limits.RefTime = limit
	return b
}

// GasLimit is the single-dimension limit of legacy call builders. It bounds
// ref time only.
func (b *Builder) GasLimit(limit uint64) *Builder {
	return b.RefTimeLimit(limit)
}

// ProofSizeLimit bounds the proof size of the callee.
func (b *Builder) ProofSizeLimit(limit uint64) *Builder {
	b.inv.Limits.ProofSize = limit
	return b
}

// StorageDepositLimit bounds the storage deposit the callee may charge.
func (b *Builder) StorageDepositLimit(limit *uint256.Int) *Builder {
	b.inv.Limits.StorageDepositLimit = limit
	return b
}

// TransferredValue sets the value moved to the callee.
func (b *Builder) TransferredValue(v *uint256.Int) *Builder {
	b.inv.Value = v
	return b
}

// Endowment is TransferredValue under its instantiation name.
func (b *Builder) Endowment(v *uint256.Int) *Builder {
	return b.TransferredValue(v)
}

// Salt sets the salt the new account is derived with.
func (b *Builder) Salt(salt []byte) *Builder {
	b.inv.Salt = common.CopyBytes(salt)
	return b
}

// Flags replaces the call flags.
func (b *Builder) Flags(f vm.CallFlags) *Builder {
	b.inv.Flags = f
	return b
}

// TailCall sets vm.TailCall on top of the current flags.
func (b *Builder) TailCall() *Builder {
	b.inv.Flags |= vm.TailCall
	return b
}

// Invocation encodes the input and returns the assembled invocation.
func (b *Builder) Invocation() (*vm.Invocation, error) {
	inv := b.inv
	if b.input != nil {
		enc, err := b.input.Encode()
		if err != nil {
			return nil, err
		}
		inv.Input = enc
	}
	return &inv, nil
}

// Invoke issues the invocation through invoker.
func (b *Builder) Invoke(invoker vm.Invoker) (*vm.Result, error) {
	inv, err := b.Invocation()
	if err != nil {
		return nil, err
	}
	return invoker.Invoke(inv)
}

// Instantiate issues an instantiation and returns the new account.
func (b *Builder) Instantiate(invoker vm.Invoker) (common.Address, error) {
	res, err := b.Invoke(invoker)
	if err != nil {
		return common.Address{}, err
	}
	return res.Account, nil
}
