package xcall

import (
	"github.com/clydemeng/xcall/core/vm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

// Adapter issues invocations on behalf of a running frame. The ordinary call
// and instantiation paths forward their parameters unmodified and return the
// runtime's failures unconverted.
type Adapter struct {
	invoker vm.Invoker
}

// New returns an adapter over invoker, usually the *vm.Context of the frame.
func New(invoker vm.Invoker) *Adapter {
	return &Adapter{invoker: invoker}
}

// DelegateInvoke runs the entry point sel of the code named by code against the
// caller's own storage and identity.
//
// Every frame works on an in-memory copy of its storage and writes it back
// when it completes. Without vm.TailCall the delegated frame writes back first
// and the caller's frame, completing later, writes back its own copy over it:
// the caller's state wins. With vm.TailCall the caller's frame is sealed and
// does not write back, so the delegated frame's state is final.
//
// Mutating storage in the caller after a tail call is a hazard: the writes are
// reported as vm.ErrConflictingTailCall in the receipt and which writes
// persist is unspecified.
func (a *Adapter) DelegateInvoke(code common.Hash, sel vm.Selector, flags vm.CallFlags) ([]byte, error) {
	res, err := Delegate(code).ExecInput(vm.NewInput(sel)).Flags(flags).Invoke(a.invoker)
	if err != nil {
		log.Debug("Delegate invocation failed", "code", code, "selector", sel, "flags", flags, "kind", vm.KindOf(err), "err", err)
		return nil, err
	}
	return res.Output, nil
}

// Call invokes the message encoded in input on account.
func (a *Adapter) Call(account common.Address, input []byte, flags vm.CallFlags, limits vm.Limits) ([]byte, error) {
	res, err := a.invoker.Invoke(&vm.Invocation{
		Style:  vm.StyleCall,
		Target: account,
		Input:  input,
		Flags:  flags,
		Limits: limits,
	})
	if err != nil {
		return nil, err
	}
	return res.Output, nil
}

// Instantiate creates an account running code, calling the constructor
// encoded in input.
func (a *Adapter) Instantiate(code common.Hash, input, salt []byte, limits vm.Limits) (common.Address, error) {
	res, err := a.invoker.Invoke(&vm.Invocation{
		Style:  vm.StyleInstantiate,
		Code:   code,
		Input:  input,
		Salt:   salt,
		Limits: limits,
	})
	if err != nil {
		return common.Address{}, err
	}
	return res.Account, nil
}
