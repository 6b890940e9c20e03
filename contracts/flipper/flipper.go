// Package flipper implements CrossContractFlipper, a contract that drives an
// OtherContract instance through every invocation style: typed reference
// calls, call builders with and without limits, create builders and delegate
// calls with and without tail-call semantics.
package flipper

import (
	"fmt"
	"math"
	"math/big"

	"github.com/clydemeng/xcall/contracts/other"
	"github.com/clydemeng/xcall/core/vm"
	"github.com/clydemeng/xcall/core/xcall"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Storage layout. SlotValue coincides with other.SlotValue, so OtherContract
// code delegated to from here operates on the flipper's own cell.
var (
	SlotValue     = other.SlotValue
	SlotOther     = common.BigToHash(big.NewInt(1))
	SlotOtherCode = common.BigToHash(big.NewInt(2))
)

// Salt is used for every OtherContract instantiated by a flipper.
var Salt = []byte{0xDE, 0xAD, 0xBE, 0xEF}

// Entry-point selectors.
var (
	SelectorNew                       = vm.NewSelector("new")
	SelectorNewWithCreateBuilder      = vm.NewSelector("new_with_create_builder")
	SelectorFlipUsingBuilder          = vm.NewSelector("flip_using_builder")
	SelectorFlip                      = vm.NewSelector("flip")
	SelectorSet                       = vm.NewSelector("set")
	SelectorGet                       = vm.NewSelector("get")
	SelectorFlipWithLimits            = vm.NewSelector("flip_with_limits")
	SelectorGetWithLimits             = vm.NewSelector("get_with_limits")
	SelectorGetOtherContractAccountID = vm.NewSelector("get_other_contract_account_id")
	SelectorDelegateFlip              = vm.NewSelector("delegate_flip")
	SelectorDelegateFlipTailCall      = vm.NewSelector("delegate_flip_tail_call")
	SelectorDelegateFlipAndSet        = vm.NewSelector("delegate_flip_and_set")
	SelectorDelegateInvoke            = vm.NewSelector("delegate_invoke")
	SelectorGetValue                  = vm.NewSelector("get_value")
	SelectorGetCodeHash               = vm.NewSelector("get_code_hash")
)

// Code is the CrossContractFlipper code unit.
var Code = vm.MustNewCode("cross_contract_flipper", []common.Hash{SlotValue, SlotOther, SlotOtherCode},
	[]*vm.EntryPoint{
		vm.Constructor("new", false, construct),
		vm.Constructor("new_with_create_builder", false, constructWithCreateBuilder),
	},
	[]*vm.EntryPoint{
		vm.Message("flip_using_builder", true, flipUsingBuilder),
		vm.Message("flip", true, flip),
		vm.Message("set", true, set),
		vm.Message("get", false, get),
		vm.Message("flip_with_limits", true, flipWithLimits),
		vm.Message("get_with_limits", false, getWithLimits),
		vm.Message("get_other_contract_account_id", false, getOtherContractAccountID),
		vm.Message("delegate_flip", true, delegateFlip),
		vm.Message("delegate_flip_tail_call", true, delegateFlipTailCall),
		vm.Message("delegate_flip_and_set", true, delegateFlipAndSet),
		vm.Message("delegate_invoke", true, delegateInvoke),
		vm.Message("get_value", false, getValue),
		vm.Message("get_code_hash", false, getCodeHash),
	},
)

// construct instantiates OtherContract through its typed reference.
func construct(ctx *vm.Context, args []byte) ([]byte, error) {
	var code common.Hash
	if err := vm.DecodeArgs(args, &code); err != nil {
		return nil, err
	}
	ref, err := other.Instantiate(other.New(true).
		CodeHash(code).
		Endowment(new(uint256.Int)).
		Salt(Salt), ctx)
	if err != nil {
		return nil, err
	}
	return nil, store(ctx, ref, code)
}

// constructWithCreateBuilder instantiates OtherContract through a bare create
// builder.
func constructWithCreateBuilder(ctx *vm.Context, args []byte) ([]byte, error) {
	var code common.Hash
	if err := vm.DecodeArgs(args, &code); err != nil {
		return nil, err
	}
	addr, err := xcall.Create(code).
		Endowment(new(uint256.Int)).
		ExecInput(vm.NewInput(other.SelectorNew).PushArg(true)).
		Salt(Salt).
		Instantiate(ctx)
	if err != nil {
		return nil, err
	}
	return nil, store(ctx, other.Ref{Account: addr}, code)
}

func store(ctx *vm.Context, ref other.Ref, code common.Hash) error {
	if err := ctx.SetAddress(SlotOther, ref.Account); err != nil {
		return err
	}
	return ctx.SetState(SlotOtherCode, code)
}

func otherRef(ctx *vm.Context) (other.Ref, error) {
	addr, err := ctx.GetAddress(SlotOther)
	return other.Ref{Account: addr}, err
}

// flipUsingBuilder calls flip with a low-level call builder, forwarding all
// remaining weight and no value.
func flipUsingBuilder(ctx *vm.Context, _ []byte) ([]byte, error) {
	ref, err := otherRef(ctx)
	if err != nil {
		return nil, err
	}
	_, err = xcall.Call(ref.Account).
		GasLimit(0).
		TransferredValue(new(uint256.Int)).
		ExecInput(vm.NewInput(other.SelectorFlip)).
		Invoke(ctx)
	return nil, err
}

func flip(ctx *vm.Context, _ []byte) ([]byte, error) {
	ref, err := otherRef(ctx)
	if err != nil {
		return nil, err
	}
	return nil, ref.Flip(ctx)
}

func set(ctx *vm.Context, _ []byte) ([]byte, error) {
	ref, err := otherRef(ctx)
	if err != nil {
		return nil, err
	}
	return nil, ref.Set(ctx, true)
}

func get(ctx *vm.Context, _ []byte) ([]byte, error) {
	ref, err := otherRef(ctx)
	if err != nil {
		return nil, err
	}
	v, err := ref.Get(ctx)
	if err != nil {
		return nil, err
	}
	return vm.EncodeReturn(v)
}

func decodeLimits(args []byte) (refTime, proofSize uint64, deposit *uint256.Int, err error) {
	d := new(big.Int)
	if err = vm.DecodeArgs(args, &refTime, &proofSize, d); err != nil {
		return 0, 0, nil, err
	}
	deposit, overflow := uint256.FromBig(d)
	if overflow {
		return 0, 0, nil, vm.ErrDecodingFailed
	}
	return refTime, proofSize, deposit, nil
}

func flipWithLimits(ctx *vm.Context, args []byte) ([]byte, error) {
	refTime, proofSize, deposit, err := decodeLimits(args)
	if err != nil {
		return nil, err
	}
	ref, err := otherRef(ctx)
	if err != nil {
		return nil, err
	}
	_, err = ref.CallMut().Flip().
		RefTimeLimit(refTime).
		ProofSizeLimit(proofSize).
		StorageDepositLimit(deposit).
		Invoke(ctx)
	return nil, err
}

func getWithLimits(ctx *vm.Context, args []byte) ([]byte, error) {
	refTime, proofSize, deposit, err := decodeLimits(args)
	if err != nil {
		return nil, err
	}
	ref, err := otherRef(ctx)
	if err != nil {
		return nil, err
	}
	v, err := other.DecodeBool(ref.CallMut().Get().
		RefTimeLimit(refTime).
		ProofSizeLimit(proofSize).
		StorageDepositLimit(deposit).
		Invoke(ctx))
	if err != nil {
		return nil, err
	}
	return vm.EncodeReturn(v)
}

func getOtherContractAccountID(ctx *vm.Context, _ []byte) ([]byte, error) {
	ref, err := otherRef(ctx)
	if err != nil {
		return nil, err
	}
	addr, err := ref.GetAccountID(ctx)
	if err != nil {
		return nil, err
	}
	return vm.EncodeReturn(addr)
}

func otherCode(ctx *vm.Context) (common.Hash, error) {
	return ctx.GetState(SlotOtherCode)
}

// delegateFlip runs OtherContract's flip against the flipper's storage and
// ignores the outcome. The flipper's frame flushes afterwards, so its own
// copy of SlotValue wins over the delegated flip.
func delegateFlip(ctx *vm.Context, _ []byte) ([]byte, error) {
	code, err := otherCode(ctx)
	if err != nil {
		return nil, err
	}
	_, _ = xcall.New(ctx).DelegateInvoke(code, other.SelectorFlip, 0)
	return nil, nil
}

// delegateFlipTailCall runs OtherContract's flip as the flipper's last frame,
// so the flip is what persists.
func delegateFlipTailCall(ctx *vm.Context, _ []byte) ([]byte, error) {
	code, err := otherCode(ctx)
	if err != nil {
		return nil, err
	}
	return xcall.New(ctx).DelegateInvoke(code, other.SelectorFlip, vm.TailCall)
}

// delegateFlipAndSet tail-calls flip and then writes SlotValue anyway. The
// write is reported as a conflicting tail call; which value persists is not
// part of the contract.
func delegateFlipAndSet(ctx *vm.Context, args []byte) ([]byte, error) {
	var v bool
	if err := vm.DecodeArgs(args, &v); err != nil {
		return nil, err
	}
	code, err := otherCode(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := xcall.New(ctx).DelegateInvoke(code, other.SelectorFlip, vm.TailCall); err != nil {
		return nil, err
	}
	return nil, ctx.SetBool(SlotValue, v)
}

// delegateInvoke delegates to an arbitrary code reference and entry point and
// propagates the outcome.
func delegateInvoke(ctx *vm.Context, args []byte) ([]byte, error) {
	var (
		code  common.Hash
		sel   vm.Selector
		flags uint64
	)
	if err := vm.DecodeArgs(args, &code, &sel, &flags); err != nil {
		return nil, err
	}
	if flags > math.MaxUint32 {
		return nil, fmt.Errorf("%w: call flags %#x overflow", vm.ErrDecodingFailed, flags)
	}
	return xcall.New(ctx).DelegateInvoke(code, sel, vm.CallFlags(flags))
}

func getValue(ctx *vm.Context, _ []byte) ([]byte, error) {
	v, err := ctx.GetBool(SlotValue)
	if err != nil {
		return nil, err
	}
	return vm.EncodeReturn(v)
}

func getCodeHash(ctx *vm.Context, _ []byte) ([]byte, error) {
	code, err := otherCode(ctx)
	if err != nil {
		return nil, err
	}
	return vm.EncodeReturn(code)
}
