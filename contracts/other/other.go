// Package other implements OtherContract, a single boolean cell, together with
// the typed reference other contracts use to instantiate and call it.
package other

import (
	"github.com/clydemeng/xcall/core/vm"
	"github.com/clydemeng/xcall/core/xcall"
	"github.com/ethereum/go-ethereum/common"
)

// SlotValue holds the boolean.
var SlotValue = common.Hash{}

// Entry-point selectors.
var (
	SelectorNew          = vm.NewSelector("new")
	SelectorFlip         = vm.NewSelector("flip")
	SelectorGet          = vm.NewSelector("get")
	SelectorSet          = vm.NewSelector("set")
	SelectorGetAccountID = vm.NewSelector("get_account_id")
)

// Code is the OtherContract code unit.
var Code = vm.MustNewCode("other_contract", []common.Hash{SlotValue},
	[]*vm.EntryPoint{
		vm.Constructor("new", false, construct),
	},
	[]*vm.EntryPoint{
		vm.Message("flip", true, flip),
		vm.Message("get", false, get),
		vm.Message("set", true, set),
		vm.Message("get_account_id", false, getAccountID),
	},
)

func construct(ctx *vm.Context, args []byte) ([]byte, error) {
	var init bool
	if err := vm.DecodeArgs(args, &init); err != nil {
		return nil, err
	}
	return nil, ctx.SetBool(SlotValue, init)
}

func flip(ctx *vm.Context, _ []byte) ([]byte, error) {
	v, err := ctx.GetBool(SlotValue)
	if err != nil {
		return nil, err
	}
	return nil, ctx.SetBool(SlotValue, !v)
}

func get(ctx *vm.Context, _ []byte) ([]byte, error) {
	v, err := ctx.GetBool(SlotValue)
	if err != nil {
		return nil, err
	}
	return vm.EncodeReturn(v)
}

func set(ctx *vm.Context, args []byte) ([]byte, error) {
	var v bool
	if err := vm.DecodeArgs(args, &v); err != nil {
		return nil, err
	}
	return nil, ctx.SetBool(SlotValue, v)
}

func getAccountID(ctx *vm.Context, _ []byte) ([]byte, error) {
	return vm.EncodeReturn(ctx.AccountID())
}

// Ref is a typed reference to an OtherContract instance.
type Ref struct {
	Account common.Address
}

// New returns a create builder for an OtherContract initialised to init. The
// caller still has to set the code hash.
func New(init bool) *xcall.Builder {
	return xcall.Create(common.Hash{}).ExecInput(vm.NewInput(SelectorNew).PushArg(init))
}

// Instantiate runs b and wraps the new account in a Ref.
func Instantiate(b *xcall.Builder, invoker vm.Invoker) (Ref, error) {
	addr, err := b.Instantiate(invoker)
	if err != nil {
		return Ref{}, err
	}
	return Ref{Account: addr}, nil
}

// CallBuilder exposes the messages of the referenced instance as builders, so
// the caller can attach limits before invoking.
type CallBuilder struct {
	account common.Address
}

// CallMut returns the call builder of r.
func (r Ref) CallMut() CallBuilder { return CallBuilder{account: r.Account} }

func (c CallBuilder) Flip() *xcall.Builder {
	return xcall.Call(c.account).ExecInput(vm.NewInput(SelectorFlip))
}

func (c CallBuilder) Get() *xcall.Builder {
	return xcall.Call(c.account).ExecInput(vm.NewInput(SelectorGet))
}

func (c CallBuilder) Set(v bool) *xcall.Builder {
	return xcall.Call(c.account).ExecInput(vm.NewInput(SelectorSet).PushArg(v))
}

func (c CallBuilder) GetAccountID() *xcall.Builder {
	return xcall.Call(c.account).ExecInput(vm.NewInput(SelectorGetAccountID))
}

// Flip calls flip with no explicit limits.
func (r Ref) Flip(invoker vm.Invoker) error {
	_, err := r.CallMut().Flip().Invoke(invoker)
	return err
}

// Set calls set with no explicit limits.
func (r Ref) Set(invoker vm.Invoker, v bool) error {
	_, err := r.CallMut().Set(v).Invoke(invoker)
	return err
}

// Get calls get with no explicit limits.
func (r Ref) Get(invoker vm.Invoker) (bool, error) {
	return DecodeBool(r.CallMut().Get().Invoke(invoker))
}

// GetAccountID calls get_account_id with no explicit limits.
func (r Ref) GetAccountID(invoker vm.Invoker) (common.Address, error) {
	res, err := r.CallMut().GetAccountID().Invoke(invoker)
	if err != nil {
		return common.Address{}, err
	}
	var addr common.Address
	if err := vm.DecodeReturn(res.Output, &addr); err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

// DecodeBool decodes the boolean output of a get invocation.
func DecodeBool(res *vm.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	var v bool
	if err := vm.DecodeReturn(res.Output, &v); err != nil {
		return false, err
	}
	return v, nil
}
