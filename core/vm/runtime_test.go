package vm

import (
	"errors"
	"math/big"
	"testing"

	"github.com/clydemeng/xcall/tracing"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/state"
	gethtracing "github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

var (
	testOrigin = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	slotValue  = common.Hash{}
	slotCode   = common.BigToHash(big.NewInt(1))
	slotMark   = common.BigToHash(big.NewInt(5))
)

// scratchCode writes a slot that is not part of the proxy layout.
var scratchCode = MustNewCode("scratch", nil,
	[]*EntryPoint{
		Constructor("new", false, nop),
	},
	[]*EntryPoint{
		Message("mark", true, func(ctx *Context, _ []byte) ([]byte, error) {
			return nil, ctx.SetBool(slotMark, true)
		}),
	},
)

// cellCode keeps a single boolean in slotValue.
var cellCode = MustNewCode("cell", []common.Hash{slotValue},
	[]*EntryPoint{
		Constructor("new", true, func(ctx *Context, args []byte) ([]byte, error) {
			var v bool
			if err := DecodeArgs(args, &v); err != nil {
				return nil, err
			}
			return nil, ctx.SetBool(slotValue, v)
		}),
	},
	[]*EntryPoint{
		Message("flip", true, func(ctx *Context, _ []byte) ([]byte, error) {
			v, err := ctx.GetBool(slotValue)
			if err != nil {
				return nil, err
			}
			return nil, ctx.SetBool(slotValue, !v)
		}),
		Message("get", false, func(ctx *Context, _ []byte) ([]byte, error) {
			v, err := ctx.GetBool(slotValue)
			if err != nil {
				return nil, err
			}
			return EncodeReturn(v)
		}),
		Message("set", true, func(ctx *Context, args []byte) ([]byte, error) {
			var v bool
			if err := DecodeArgs(args, &v); err != nil {
				return nil, err
			}
			return nil, ctx.SetBool(slotValue, v)
		}),
		Message("whoami", false, func(ctx *Context, _ []byte) ([]byte, error) {
			return EncodeReturn([]common.Address{ctx.AccountID(), ctx.Caller()})
		}),
		Message("trap", true, func(ctx *Context, _ []byte) ([]byte, error) {
			if err := ctx.SetBool(slotValue, true); err != nil {
				return nil, err
			}
			panic("unreachable")
		}),
		Message("fail", true, func(ctx *Context, _ []byte) ([]byte, error) {
			if err := ctx.SetBool(slotValue, true); err != nil {
				return nil, err
			}
			return nil, errors.New("cell failed")
		}),
		{Name: "deposit", Selector: NewSelector("deposit"), Mutates: true, Payable: true, Handler: func(ctx *Context, _ []byte) ([]byte, error) {
			return EncodeReturn(ctx.TransferredValue().ToBig())
		}},
	},
)

func decodeTarget(args []byte) (common.Hash, Selector, CallFlags, error) {
	var (
		code  common.Hash
		sel   Selector
		flags uint64
	)
	err := DecodeArgs(args, &code, &sel, &flags)
	return code, sel, CallFlags(flags), err
}

// proxyCode shares slotValue with cellCode and reaches other code through
// every invocation style.
var proxyCode = MustNewCode("proxy", []common.Hash{slotValue, slotCode},
	[]*EntryPoint{
		Constructor("new", false, nop),
	},
	[]*EntryPoint{
		Message("get", false, func(ctx *Context, _ []byte) ([]byte, error) {
			v, err := ctx.GetBool(slotValue)
			if err != nil {
				return nil, err
			}
			return EncodeReturn(v)
		}),
		Message("delegate", true, func(ctx *Context, args []byte) ([]byte, error) {
			code, sel, flags, err := decodeTarget(args)
			if err != nil {
				return nil, err
			}
			res, err := ctx.Invoke(&Invocation{Style: StyleDelegateCall, Code: code, Input: sel[:], Flags: flags})
			if err != nil {
				return nil, err
			}
			return res.Output, nil
		}),
		Message("delegate_view", false, func(ctx *Context, args []byte) ([]byte, error) {
			code, sel, flags, err := decodeTarget(args)
			if err != nil {
				return nil, err
			}
			res, err := ctx.Invoke(&Invocation{Style: StyleDelegateCall, Code: code, Input: sel[:], Flags: flags})
			if err != nil {
				return nil, err
			}
			return res.Output, nil
		}),
		Message("tail_then_delegate", true, func(ctx *Context, args []byte) ([]byte, error) {
			var (
				code        common.Hash
				tail, after Selector
			)
			if err := DecodeArgs(args, &code, &tail, &after); err != nil {
				return nil, err
			}
			if _, err := ctx.Invoke(&Invocation{Style: StyleDelegateCall, Code: code, Input: tail[:], Flags: TailCall}); err != nil {
				return nil, err
			}
			_, err := ctx.Invoke(&Invocation{Style: StyleDelegateCall, Code: code, Input: after[:]})
			return nil, err
		}),
		Message("delegate_ignore", true, func(ctx *Context, args []byte) ([]byte, error) {
			code, sel, flags, err := decodeTarget(args)
			if err != nil {
				return nil, err
			}
			ctx.Invoke(&Invocation{Style: StyleDelegateCall, Code: code, Input: sel[:], Flags: flags})
			return nil, nil
		}),
		Message("delegate_then_set", true, func(ctx *Context, args []byte) ([]byte, error) {
			var (
				code common.Hash
				sel  Selector
				v    bool
			)
			if err := DecodeArgs(args, &code, &sel, &v); err != nil {
				return nil, err
			}
			if _, err := ctx.Invoke(&Invocation{Style: StyleDelegateCall, Code: code, Input: sel[:], Flags: TailCall}); err != nil {
				return nil, err
			}
			return nil, ctx.SetBool(slotValue, v)
		}),
		Message("call_ignore", true, func(ctx *Context, args []byte) ([]byte, error) {
			var (
				addr common.Address
				sel  Selector
			)
			if err := DecodeArgs(args, &addr, &sel); err != nil {
				return nil, err
			}
			ctx.Invoke(&Invocation{Style: StyleCall, Target: addr, Input: sel[:]})
			return nil, nil
		}),
		Message("call_self", false, func(ctx *Context, args []byte) ([]byte, error) {
			var flags uint64
			if err := DecodeArgs(args, &flags); err != nil {
				return nil, err
			}
			sel := NewSelector("get")
			res, err := ctx.Invoke(&Invocation{Style: StyleCall, Target: ctx.AccountID(), Input: sel[:], Flags: CallFlags(flags)})
			if err != nil {
				return nil, err
			}
			return res.Output, nil
		}),
		Message("deep", true, func(ctx *Context, args []byte) ([]byte, error) {
			var n uint64
			if err := DecodeArgs(args, &n); err != nil {
				return nil, err
			}
			if n == 0 {
				return nil, nil
			}
			input, err := NewInput(NewSelector("deep")).PushArg(n - 1).Encode()
			if err != nil {
				return nil, err
			}
			_, err = ctx.Invoke(&Invocation{Style: StyleDelegateCall, Code: ctx.CodeHash(), Input: input})
			return nil, err
		}),
	},
)

type testEnv struct {
	t   *testing.T
	sdb *state.StateDB
	rt  *Runtime
}

func newTestEnv(t *testing.T) *testEnv {
	sdb, err := state.New(types.EmptyRootHash, state.NewDatabaseForTesting())
	require.NoError(t, err)
	sdb.AddBalance(testOrigin, uint256.NewInt(1_000_000), gethtracing.BalanceChangeUnspecified)

	rt := NewRuntime(NewStateDBBackend(sdb), nil, nil)
	rt.Upload(cellCode)
	rt.Upload(proxyCode)
	rt.Upload(scratchCode)
	return &testEnv{t: t, sdb: sdb, rt: rt}
}

func (e *testEnv) encode(name string, args ...interface{}) []byte {
	in := NewInput(NewSelector(name))
	for _, arg := range args {
		in.PushArg(arg)
	}
	enc, err := in.Encode()
	require.NoError(e.t, err)
	return enc
}

func (e *testEnv) deploy(code *Code, args ...interface{}) common.Address {
	r := e.rt.Exec(testOrigin, &Invocation{Style: StyleInstantiate, Code: code.Hash(), Input: e.encode("new", args...)}, Limits{})
	require.NoError(e.t, r.Err)
	return r.Account
}

func (e *testEnv) call(to common.Address, name string, args ...interface{}) *Receipt {
	return e.rt.Exec(testOrigin, &Invocation{Style: StyleCall, Target: to, Input: e.encode(name, args...)}, Limits{})
}

func (e *testEnv) value(addr common.Address) bool {
	return e.sdb.GetState(addr, slotValue) != (common.Hash{})
}

func TestInstantiateStoresCodeHash(t *testing.T) {
	env := newTestEnv(t)
	addr := env.deploy(cellCode, true)

	require.Equal(t, ContractAddress(testOrigin, cellCode.Hash(), env.encode("new", true), nil), addr)
	require.Equal(t, cellCode.Hash(), env.sdb.GetCodeHash(addr))
	require.True(t, env.value(addr))

	r := env.call(addr, "get")
	require.NoError(t, r.Err)
	var v bool
	require.NoError(t, DecodeReturn(r.Output, &v))
	require.True(t, v)
}

func TestDelegateWithoutTailCallCallerWins(t *testing.T) {
	env := newTestEnv(t)
	proxy := env.deploy(proxyCode)

	r := env.call(proxy, "delegate", cellCode.Hash(), NewSelector("flip"), uint64(0))
	require.NoError(t, r.Err)
	require.False(t, env.value(proxy))
	require.Empty(t, r.Hazards)

	// The delegated frame flushed first; the proxy frame overwrote it.
	require.Len(t, r.Flushes, 2)
	require.Equal(t, StyleDelegateCall, r.Flushes[0].Style)
	require.Equal(t, proxy, r.Flushes[0].Account)
	require.Equal(t, tracing.FlushCompleted, r.Flushes[0].Reason)
	require.Len(t, r.Flushes[0].Writes, 1)
	require.Equal(t, StyleCall, r.Flushes[1].Style)
	require.Equal(t, tracing.FlushCompleted, r.Flushes[1].Reason)
	require.Len(t, r.Flushes[1].Writes, 1)
	require.Equal(t, common.Hash{}, r.Flushes[1].Writes[0].Value)
}

func TestDelegateWithTailCallCalleeWins(t *testing.T) {
	env := newTestEnv(t)
	proxy := env.deploy(proxyCode)

	r := env.call(proxy, "delegate", cellCode.Hash(), NewSelector("flip"), uint64(TailCall))
	require.NoError(t, r.Err)
	require.True(t, env.value(proxy))

	require.Len(t, r.Flushes, 2)
	require.Equal(t, tracing.FlushCompleted, r.Flushes[0].Reason)
	require.Equal(t, tracing.FlushTailCall, r.Flushes[1].Reason)
	require.Empty(t, r.Flushes[1].Writes)

	// Flipping again goes back.
	r = env.call(proxy, "delegate", cellCode.Hash(), NewSelector("flip"), uint64(TailCall))
	require.NoError(t, r.Err)
	require.False(t, env.value(proxy))
}

func TestTailCallOutputBecomesCallerOutput(t *testing.T) {
	env := newTestEnv(t)
	proxy := env.deploy(proxyCode)
	require.NoError(t, env.call(proxy, "delegate", cellCode.Hash(), NewSelector("flip"), uint64(TailCall)).Err)

	r := env.call(proxy, "delegate", cellCode.Hash(), NewSelector("get"), uint64(TailCall))
	require.NoError(t, r.Err)
	var v bool
	require.NoError(t, DecodeReturn(r.Output, &v))
	require.True(t, v)
}

func TestDelegateBindsCallerIdentity(t *testing.T) {
	env := newTestEnv(t)
	proxy := env.deploy(proxyCode)

	r := env.call(proxy, "delegate", cellCode.Hash(), NewSelector("whoami"), uint64(0))
	require.NoError(t, r.Err)
	var ids []common.Address
	require.NoError(t, DecodeReturn(r.Output, &ids))
	require.Equal(t, []common.Address{proxy, testOrigin}, ids)
}

func TestDelegateUnknownCode(t *testing.T) {
	env := newTestEnv(t)
	proxy := env.deploy(proxyCode)
	require.NoError(t, env.call(proxy, "delegate", cellCode.Hash(), NewSelector("flip"), uint64(TailCall)).Err)

	r := env.call(proxy, "delegate", common.Hash{0x01}, NewSelector("flip"), uint64(0))
	require.ErrorIs(t, r.Err, ErrCodeNotFound)
	require.Equal(t, KindCodeNotFound, KindOf(r.Err))
	require.True(t, env.value(proxy))

	// A caller that ignores the failure completes normally.
	r = env.call(proxy, "delegate_ignore", common.Hash{0x01}, NewSelector("flip"), uint64(TailCall))
	require.NoError(t, r.Err)
	require.True(t, env.value(proxy))
}

func TestDelegateUnknownEntryPoint(t *testing.T) {
	env := newTestEnv(t)
	proxy := env.deploy(proxyCode)

	r := env.call(proxy, "delegate", cellCode.Hash(), NewSelector("missing"), uint64(TailCall))
	require.ErrorIs(t, r.Err, ErrEntryPointNotFound)
	require.False(t, env.value(proxy))

	r = env.call(proxy, "missing")
	require.ErrorIs(t, r.Err, ErrEntryPointNotFound)
}

func TestWriteAfterTailCallIsReported(t *testing.T) {
	env := newTestEnv(t)
	proxy := env.deploy(proxyCode)

	r := env.call(proxy, "delegate_then_set", cellCode.Hash(), NewSelector("flip"), false)
	require.NoError(t, r.Err)
	require.Len(t, r.Hazards, 1)
	require.ErrorIs(t, r.Hazards[0], ErrConflictingTailCall)

	// The sealed frame does not flush its late write.
	require.True(t, env.value(proxy))
}

func TestDelegateAfterTailCallIsReported(t *testing.T) {
	env := newTestEnv(t)
	proxy := env.deploy(proxyCode)

	r := env.call(proxy, "tail_then_delegate", cellCode.Hash(), NewSelector("flip"), NewSelector("flip"))
	require.NoError(t, r.Err)
	require.Len(t, r.Hazards, 1)
	require.ErrorIs(t, r.Hazards[0], ErrConflictingTailCall)

	// The tail-called flip stays final; the second flip is undone by the
	// sealed frame.
	require.True(t, env.value(proxy))
	last := r.Flushes[len(r.Flushes)-1]
	require.Equal(t, tracing.FlushTailCall, last.Reason)
	require.Len(t, last.Writes, 1)
	require.Equal(t, common.Hash{31: 1}, last.Writes[0].Value)

	// A second tail call cannot take authority from the first either.
	r = env.call(proxy, "tail_then_delegate", cellCode.Hash(), NewSelector("get"), NewSelector("flip"))
	require.NoError(t, r.Err)
	require.Len(t, r.Hazards, 1)
	require.True(t, env.value(proxy))
}

func TestDelegateWriteOutsideCallerLayoutIsUndone(t *testing.T) {
	env := newTestEnv(t)
	proxy := env.deploy(proxyCode)

	r := env.call(proxy, "delegate", scratchCode.Hash(), NewSelector("mark"), uint64(0))
	require.NoError(t, r.Err)
	require.Equal(t, common.Hash{}, env.sdb.GetState(proxy, slotMark))

	require.Len(t, r.Flushes, 2)
	require.Equal(t, []SlotWrite{{Slot: slotMark, Prev: common.Hash{}, Value: common.Hash{31: 1}}}, r.Flushes[0].Writes)
	require.Equal(t, []SlotWrite{{Slot: slotMark, Prev: common.Hash{31: 1}, Value: common.Hash{}}}, r.Flushes[1].Writes)

	// With a tail call the write is final.
	r = env.call(proxy, "delegate", scratchCode.Hash(), NewSelector("mark"), uint64(TailCall))
	require.NoError(t, r.Err)
	require.Equal(t, common.Hash{31: 1}, env.sdb.GetState(proxy, slotMark))
}

func TestReadOnlyCallerUndoesDelegatedWrites(t *testing.T) {
	env := newTestEnv(t)
	proxy := env.deploy(proxyCode)

	r := env.call(proxy, "delegate_view", cellCode.Hash(), NewSelector("flip"), uint64(0))
	require.NoError(t, r.Err)
	require.False(t, env.value(proxy))
	last := r.Flushes[len(r.Flushes)-1]
	require.Equal(t, tracing.FlushReadOnly, last.Reason)
	require.Len(t, last.Writes, 1)

	r = env.call(proxy, "delegate_view", cellCode.Hash(), NewSelector("flip"), uint64(TailCall))
	require.NoError(t, r.Err)
	require.True(t, env.value(proxy))
}

func TestUnknownCallFlags(t *testing.T) {
	env := newTestEnv(t)
	proxy := env.deploy(proxyCode)

	r := env.call(proxy, "delegate", cellCode.Hash(), NewSelector("flip"), uint64(1<<10))
	require.ErrorIs(t, r.Err, ErrInvalidFlags)
	require.False(t, env.value(proxy))
}

func TestDelegatedDepositIsCharged(t *testing.T) {
	env := newTestEnv(t)
	proxy := env.deploy(proxyCode)
	input := env.encode("delegate", cellCode.Hash(), NewSelector("flip"), uint64(0))

	// The delegated frame occupies the slot before the caller empties it
	// again; the deposit is charged at the delegated flush.
	r := env.rt.Exec(testOrigin, &Invocation{Style: StyleCall, Target: proxy, Input: input}, Limits{StorageDepositLimit: uint256.NewInt(500)})
	require.ErrorIs(t, r.Err, ErrResourceLimitExceeded)

	r = env.rt.Exec(testOrigin, &Invocation{Style: StyleCall, Target: proxy, Input: input}, Limits{})
	require.NoError(t, r.Err)
	require.False(t, env.value(proxy))
	require.Equal(t, DefaultSchedule().DepositPerItem, r.StorageDeposit)
}

func TestDelegateFromOrigin(t *testing.T) {
	env := newTestEnv(t)
	r := env.rt.Exec(testOrigin, &Invocation{Style: StyleDelegateCall, Code: cellCode.Hash(), Input: env.encode("flip")}, Limits{})
	require.ErrorIs(t, r.Err, ErrNoCallerFrame)
}

func TestCallWithoutContract(t *testing.T) {
	env := newTestEnv(t)
	r := env.call(common.HexToAddress("0xdead"), "flip")
	require.ErrorIs(t, r.Err, ErrContractNotFound)

	// An account whose code was never uploaded.
	addr := env.deploy(cellCode, false)
	env.rt.Registry().Remove(cellCode.Hash())
	defer env.rt.Upload(cellCode)
	r = env.call(addr, "flip")
	require.ErrorIs(t, r.Err, ErrCodeNotFound)
}

func TestFailedCalleeIsReverted(t *testing.T) {
	env := newTestEnv(t)
	proxy := env.deploy(proxyCode)
	cell := env.deploy(cellCode, false)

	r := env.call(proxy, "call_ignore", cell, NewSelector("fail"))
	require.NoError(t, r.Err)
	require.False(t, env.value(cell))

	var reverted bool
	for _, rec := range r.Flushes {
		if rec.Account == cell {
			reverted = rec.Reason == tracing.FlushReverted
		}
	}
	require.True(t, reverted)
}

func TestTrapIsConverted(t *testing.T) {
	env := newTestEnv(t)
	cell := env.deploy(cellCode, false)

	r := env.call(cell, "trap")
	require.ErrorIs(t, r.Err, ErrContractTrapped)
	require.False(t, env.value(cell))
}

func TestReentrancy(t *testing.T) {
	env := newTestEnv(t)
	proxy := env.deploy(proxyCode)

	r := env.call(proxy, "call_self", uint64(0))
	require.ErrorIs(t, r.Err, ErrReentranceDenied)

	r = env.call(proxy, "call_self", uint64(AllowReentry))
	require.NoError(t, r.Err)
}

func TestMaxCallDepth(t *testing.T) {
	env := newTestEnv(t)
	proxy := env.deploy(proxyCode)

	require.NoError(t, env.call(proxy, "deep", uint64(DefaultMaxDepth-1)).Err)
	r := env.call(proxy, "deep", uint64(DefaultMaxDepth))
	require.ErrorIs(t, r.Err, ErrMaxCallDepth)
}

func TestDuplicateInstantiation(t *testing.T) {
	env := newTestEnv(t)
	env.deploy(cellCode, true)

	r := env.rt.Exec(testOrigin, &Invocation{Style: StyleInstantiate, Code: cellCode.Hash(), Input: env.encode("new", true)}, Limits{})
	require.ErrorIs(t, r.Err, ErrDuplicateContract)

	// A different salt yields a different account.
	r = env.rt.Exec(testOrigin, &Invocation{Style: StyleInstantiate, Code: cellCode.Hash(), Input: env.encode("new", true), Salt: []byte{1}}, Limits{})
	require.NoError(t, r.Err)
}

func TestInstantiateUnknownCode(t *testing.T) {
	env := newTestEnv(t)
	r := env.rt.Exec(testOrigin, &Invocation{Style: StyleInstantiate, Code: common.Hash{0x01}, Input: env.encode("new")}, Limits{})
	require.ErrorIs(t, r.Err, ErrCodeNotFound)
}

func TestValueTransfer(t *testing.T) {
	env := newTestEnv(t)
	cell := env.deploy(cellCode, false)

	r := env.rt.Exec(testOrigin, &Invocation{Style: StyleCall, Target: cell, Input: env.encode("deposit"), Value: uint256.NewInt(100)}, Limits{})
	require.NoError(t, r.Err)
	got := new(big.Int)
	require.NoError(t, DecodeReturn(r.Output, got))
	require.Equal(t, int64(100), got.Int64())
	require.Equal(t, uint256.NewInt(100), env.sdb.GetBalance(cell))
	require.Equal(t, uint256.NewInt(1_000_000-100), env.sdb.GetBalance(testOrigin))

	r = env.rt.Exec(testOrigin, &Invocation{Style: StyleCall, Target: cell, Input: env.encode("flip"), Value: uint256.NewInt(1)}, Limits{})
	require.ErrorIs(t, r.Err, ErrNotPayable)

	r = env.rt.Exec(testOrigin, &Invocation{Style: StyleCall, Target: cell, Input: env.encode("deposit"), Value: uint256.NewInt(2_000_000)}, Limits{})
	require.ErrorIs(t, r.Err, ErrInsufficientBalance)
	require.Equal(t, uint256.NewInt(100), env.sdb.GetBalance(cell))
}

func TestResourceLimits(t *testing.T) {
	env := newTestEnv(t)
	cell := env.deploy(cellCode, false)

	r := env.rt.Exec(testOrigin, &Invocation{Style: StyleCall, Target: cell, Input: env.encode("set", true)}, Limits{RefTime: 100})
	require.ErrorIs(t, r.Err, ErrResourceLimitExceeded)
	require.False(t, env.value(cell))

	// Occupying a slot costs one deposit item.
	r = env.rt.Exec(testOrigin, &Invocation{Style: StyleCall, Target: cell, Input: env.encode("set", true)}, Limits{StorageDepositLimit: uint256.NewInt(500)})
	require.ErrorIs(t, r.Err, ErrResourceLimitExceeded)
	require.False(t, env.value(cell))

	r = env.call(cell, "set", true)
	require.NoError(t, r.Err)
	require.True(t, env.value(cell))
	require.Equal(t, DefaultSchedule().DepositPerItem, r.StorageDeposit)
	require.NotZero(t, r.Used.RefTime)
	require.NotZero(t, r.Used.ProofSize)
}

func TestResolveInput(t *testing.T) {
	env := newTestEnv(t)
	parent := &Frame{input: []byte{1, 2, 3, 4}}

	in, err := env.rt.resolveInput(parent, &Invocation{Flags: CloneInput})
	require.NoError(t, err)
	require.Equal(t, parent.input, in)
	require.False(t, parent.forwarded)

	in, err = env.rt.resolveInput(parent, &Invocation{Flags: ForwardInput})
	require.NoError(t, err)
	require.Equal(t, parent.input, in)
	require.True(t, parent.forwarded)

	_, err = env.rt.resolveInput(parent, &Invocation{Flags: CloneInput})
	require.ErrorIs(t, err, ErrInputForwarded)

	_, err = env.rt.resolveInput(parent, &Invocation{Flags: ForwardInput | CloneInput})
	require.ErrorIs(t, err, ErrInvalidFlags)

	_, err = env.rt.resolveInput(nil, &Invocation{Flags: ForwardInput})
	require.ErrorIs(t, err, ErrInvalidFlags)

	_, err = env.rt.resolveInput(parent, &Invocation{Style: StyleInstantiate, Flags: TailCall})
	require.ErrorIs(t, err, ErrInvalidFlags)

	_, err = env.rt.resolveInput(parent, &Invocation{Flags: TailCall | 1<<10})
	require.ErrorIs(t, err, ErrInvalidFlags)
}

func TestTouchedAccounts(t *testing.T) {
	env := newTestEnv(t)
	proxy := env.deploy(proxyCode)
	cell := env.deploy(cellCode, false)

	r := env.call(proxy, "call_ignore", cell, NewSelector("flip"))
	require.NoError(t, r.Err)
	require.ElementsMatch(t, []common.Address{testOrigin, proxy, cell}, r.Touched)
	require.True(t, env.value(cell))
}
