package vm

import (
	"fmt"
	"slices"
	"time"

	"github.com/clydemeng/xcall/tracing"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

// DefaultMaxDepth is the number of frames a message may stack.
const DefaultMaxDepth = 5

// Config are the configuration options of the runtime.
type Config struct {
	MaxDepth int
	Schedule *Schedule
}

// Receipt is the outcome of one top-level message.
type Receipt struct {
	Origin  common.Address
	Style   Style
	Output  []byte
	Account common.Address // callee, or the new account for StyleInstantiate
	Err     error

	Used           Weight
	StorageDeposit *uint256.Int

	Touched []common.Address
	Flushes []FlushRecord
	Hazards []error
}

// Failed reports whether the message failed.
func (r *Receipt) Failed() bool { return r.Err != nil }

// Runtime dispatches invocations against persistent state. Execution is
// single threaded and synchronous: an invocation returns only once its frame,
// and every frame it started, has completed. A Runtime is not safe for
// concurrent use.
type Runtime struct {
	state    StateBackend
	registry *Registry
	cfg      Config

	frames  []*Frame
	nextID  int
	origin  common.Address
	root    *Meter
	receipt *Receipt
	touched mapset.Set[common.Address]
}

// NewRuntime returns a runtime over st. A nil registry or config gets the
// defaults.
func NewRuntime(st StateBackend, registry *Registry, cfg *Config) *Runtime {
	if registry == nil {
		registry = NewRegistry()
	}
	rt := &Runtime{state: st, registry: registry}
	if cfg != nil {
		rt.cfg = *cfg
	}
	if rt.cfg.MaxDepth <= 0 {
		rt.cfg.MaxDepth = DefaultMaxDepth
	}
	if rt.cfg.Schedule == nil {
		rt.cfg.Schedule = DefaultSchedule()
	}
	return rt
}

// Engine returns a short name identifying the backend.
func (rt *Runtime) Engine() string { return "go-native" }

// Registry returns the code registry.
func (rt *Runtime) Registry() *Registry { return rt.registry }

// State returns the persistent state backend.
func (rt *Runtime) State() StateBackend { return rt.state }

// Upload registers c with the runtime's registry.
func (rt *Runtime) Upload(c *Code) common.Hash { return rt.registry.Upload(c) }

// Exec runs inv as a top-level message sent by origin, bounded by limits.
// Failures are reported in the receipt; persistent state is left as it was
// before the message if the message fails.
func (rt *Runtime) Exec(origin common.Address, inv *Invocation, limits Limits) *Receipt {
	defer execTimer.UpdateSince(time.Now())

	rt.origin = origin
	rt.root = NewMeter(limits)
	rt.receipt = &Receipt{Origin: origin, Style: inv.Style}
	rt.touched = mapset.NewThreadUnsafeSet[common.Address](origin)
	defer func() {
		rt.root, rt.receipt, rt.touched = nil, nil, nil
	}()

	res, err := rt.invoke(nil, inv)
	receipt := rt.receipt
	receipt.Err = err
	receipt.Used = rt.root.Used()
	receipt.StorageDeposit = rt.root.Deposit()
	switch {
	case err != nil:
		receipt.Account = inv.Target
	case inv.Style == StyleInstantiate:
		receipt.Output, receipt.Account = res.Output, res.Account
	default:
		receipt.Output, receipt.Account = res.Output, inv.Target
	}
	receipt.Touched = rt.touched.ToSlice()
	slices.SortFunc(receipt.Touched, func(a, b common.Address) int { return a.Cmp(b) })

	if err != nil {
		log.Debug("Message failed", "origin", origin, "style", inv.Style, "kind", KindOf(err), "err", err)
	} else {
		log.Debug("Message executed", "origin", origin, "style", inv.Style, "reftime", receipt.Used.RefTime, "proof", receipt.Used.ProofSize)
	}
	return receipt
}

// invoke dispatches inv on behalf of parent, or of the message origin if
// parent is nil.
func (rt *Runtime) invoke(parent *Frame, inv *Invocation) (*Result, error) {
	countInvocation(inv.Style)
	res, err := rt.dispatch(parent, inv)
	if err != nil {
		failedCounter.Inc(1)
	}
	return res, err
}

func (rt *Runtime) dispatch(parent *Frame, inv *Invocation) (*Result, error) {
	if len(rt.frames) >= rt.cfg.MaxDepth {
		return nil, fmt.Errorf("%w: %d", ErrMaxCallDepth, rt.cfg.MaxDepth)
	}
	input, err := rt.resolveInput(parent, inv)
	if err != nil {
		return nil, err
	}
	caller := rt.origin
	if parent != nil {
		caller = parent.account
	}
	frame := &Frame{
		depth: len(rt.frames) + 1,
		style: inv.Style,
		input: input,
		mem:   make(map[common.Hash]common.Hash),
	}

	// Resolve the code and the storage binding of the new frame.
	switch inv.Style {
	case StyleCall:
		hash := rt.state.GetCodeHash(inv.Target)
		if !rt.state.Exist(inv.Target) || !hasCode(hash) {
			return nil, fmt.Errorf("%w: %s", ErrContractNotFound, inv.Target.Hex())
		}
		code, ok := rt.registry.Lookup(hash)
		if !ok {
			return nil, fmt.Errorf("%w: %s (account %s)", ErrCodeNotFound, hash.Hex(), inv.Target.Hex())
		}
		if !inv.Flags.Has(AllowReentry) && rt.executing(inv.Target) {
			return nil, fmt.Errorf("%w: %s", ErrReentranceDenied, inv.Target.Hex())
		}
		frame.code, frame.account, frame.caller, frame.value = code, inv.Target, caller, inv.Value

	case StyleDelegateCall:
		if parent == nil {
			return nil, ErrNoCallerFrame
		}
		code, ok := rt.registry.Lookup(inv.Code)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrCodeNotFound, inv.Code.Hex())
		}
		frame.code, frame.account, frame.caller, frame.value = code, parent.account, parent.caller, parent.value

	case StyleInstantiate:
		code, ok := rt.registry.Lookup(inv.Code)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrCodeNotFound, inv.Code.Hex())
		}
		addr := ContractAddress(caller, inv.Code, inv.Input, inv.Salt)
		if hasCode(rt.state.GetCodeHash(addr)) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateContract, addr.Hex())
		}
		frame.code, frame.account, frame.caller, frame.value = code, addr, caller, inv.Value

	default:
		return nil, fmt.Errorf("%w: unknown style %d", ErrInvalidFlags, inv.Style)
	}

	sel, args, err := SplitInput(input)
	if err != nil {
		return nil, err
	}
	var ok bool
	if inv.Style == StyleInstantiate {
		frame.entry, ok = frame.code.Constructor(sel)
	} else {
		frame.entry, ok = frame.code.Message(sel)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s (%s)", ErrEntryPointNotFound, sel, frame.code.Name, frame.code.Hash().Hex())
	}
	transfer := inv.Style != StyleDelegateCall && inv.Value != nil && !inv.Value.IsZero()
	if transfer && !frame.entry.Payable {
		return nil, fmt.Errorf("%w: %s", ErrNotPayable, frame.entry.Name)
	}

	parentMeter := rt.root
	if parent != nil {
		parentMeter = parent.meter
	}
	if frame.meter, err = parentMeter.Nested(inv.Limits); err != nil {
		return nil, err
	}

	rt.nextID++
	frame.id = rt.nextID
	frame.snapshot = rt.state.Snapshot()
	mark := len(rt.receipt.Flushes)
	rt.frames = append(rt.frames, frame)
	rt.touched.Add(frame.account)

	log.Trace("Entering frame", "id", frame.id, "depth", frame.depth, "style", inv.Style, "account", frame.account, "code", frame.code.Name, "entry", frame.entry.Name, "flags", inv.Flags)
	output, err := rt.execute(frame, inv, args, transfer)
	rt.frames = rt.frames[:len(rt.frames)-1]

	if err != nil {
		rt.state.RevertToSnapshot(frame.snapshot)
		parentMeter.Absorb(frame.meter, false)
		// Flushes of descendants were undone together with this frame.
		for i := mark; i < len(rt.receipt.Flushes); i++ {
			rt.receipt.Flushes[i].Reason = tracing.FlushReverted
		}
		rt.receipt.Flushes = append(rt.receipt.Flushes, frame.record(tracing.FlushReverted))
		log.Trace("Frame reverted", "id", frame.id, "kind", KindOf(err), "err", err)
		return nil, err
	}
	parentMeter.Absorb(frame.meter, true)

	// Final-write authority passes with the first tail call only. Writes of a
	// delegated frame without it are undone when the caller exits.
	authority := parent != nil && inv.Flags.Has(TailCall) && !parent.sealed
	if inv.Style == StyleDelegateCall && !authority {
		if writes := rt.delegatedWrites(frame.account, mark); len(writes) > 0 {
			if parent.sealed {
				hazard := fmt.Errorf("%w: %s delegated to %s and wrote %d slots after tail call", ErrConflictingTailCall, parent.entry.Name, frame.code.Name, len(writes))
				rt.hazard(hazard)
				log.Warn("Delegated storage write after tail call", "account", frame.account, "entry", parent.entry.Name, "code", frame.code.Name, "slots", len(writes))
			}
			parent.undo(writes)
		}
	}
	if authority {
		tailCallCounter.Inc(1)
		parent.seal(output)
		log.Trace("Tail call sealed caller frame", "caller", parent.id, "callee", frame.id)
	}
	res := &Result{Output: output, Used: frame.meter.Used()}
	if inv.Style == StyleInstantiate {
		res.Account = frame.account
	}
	return res, nil
}

// execute runs the frame's entry point and, on success, flushes its memory.
func (rt *Runtime) execute(frame *Frame, inv *Invocation, args []byte, transfer bool) ([]byte, error) {
	sched := rt.cfg.Schedule
	if err := frame.meter.Charge(sched.base(inv.Style)); err != nil {
		return nil, err
	}
	if inv.Style == StyleInstantiate {
		if !rt.state.Exist(frame.account) {
			rt.state.CreateAccount(frame.account)
		}
		rt.state.SetCode(frame.account, frame.code.Descriptor())
	}
	if transfer {
		if err := frame.meter.Charge(sched.Transfer); err != nil {
			return nil, err
		}
		if bal := rt.state.GetBalance(frame.caller); bal.Lt(inv.Value) {
			return nil, fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, frame.caller.Hex(), bal, inv.Value)
		}
		rt.state.SubBalance(frame.caller, inv.Value)
		rt.state.AddBalance(frame.account, inv.Value)
	}
	if err := frame.prefetch(rt.state, sched); err != nil {
		return nil, err
	}
	output, err := rt.run(frame, args)
	if err != nil {
		return nil, err
	}
	if frame.sealed {
		output = frame.tailOutput
	}
	rec, err := frame.flush(rt.state, sched)
	if err != nil {
		return nil, err
	}
	flushedSlotsMeter.Mark(int64(len(rec.Writes)))
	rt.receipt.Flushes = append(rt.receipt.Flushes, rec)
	log.Trace("Frame flushed", "id", frame.id, "reason", rec.Reason, "writes", len(rec.Writes))
	return output, nil
}

// delegatedWrites collects the slots of account written by delegate frames
// that flushed since mark, each mapped to its value before the first write.
func (rt *Runtime) delegatedWrites(account common.Address, mark int) map[common.Hash]common.Hash {
	var prev map[common.Hash]common.Hash
	for _, rec := range rt.receipt.Flushes[mark:] {
		if rec.Style != StyleDelegateCall || rec.Account != account || rec.Reason == tracing.FlushReverted {
			continue
		}
		for _, w := range rec.Writes {
			if prev == nil {
				prev = make(map[common.Hash]common.Hash)
			}
			if _, ok := prev[w.Slot]; !ok {
				prev[w.Slot] = w.Prev
			}
		}
	}
	return prev
}

// run calls the handler, converting a panic into ErrContractTrapped.
func (rt *Runtime) run(frame *Frame, args []byte) (output []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			output, err = nil, fmt.Errorf("%w: %s: %v", ErrContractTrapped, frame.entry.Name, r)
		}
	}()
	return frame.entry.Handler(&Context{rt: rt, frame: frame}, args)
}

// resolveInput applies the input forwarding flags.
func (rt *Runtime) resolveInput(parent *Frame, inv *Invocation) ([]byte, error) {
	forward, clone := inv.Flags.Has(ForwardInput), inv.Flags.Has(CloneInput)
	switch {
	case inv.Flags&^knownFlags != 0:
		return nil, fmt.Errorf("%w: unknown bits %#x", ErrInvalidFlags, uint32(inv.Flags&^knownFlags))
	case inv.Style == StyleInstantiate && inv.Flags != 0:
		return nil, fmt.Errorf("%w: %s not allowed on instantiation", ErrInvalidFlags, inv.Flags)
	case forward && clone:
		return nil, fmt.Errorf("%w: %s", ErrInvalidFlags, inv.Flags)
	case !forward && !clone:
		return inv.Input, nil
	case parent == nil:
		return nil, fmt.Errorf("%w: no caller input to forward", ErrInvalidFlags)
	case parent.forwarded:
		return nil, ErrInputForwarded
	}
	input := common.CopyBytes(parent.input)
	if forward {
		parent.forwarded = true
	}
	return input, nil
}

// executing reports whether addr is the storage binding of a frame on the
// stack.
func (rt *Runtime) executing(addr common.Address) bool {
	for _, f := range rt.frames {
		if f.account == addr {
			return true
		}
	}
	return false
}

func (rt *Runtime) hazard(err error) {
	hazardCounter.Inc(1)
	if rt.receipt != nil {
		rt.receipt.Hazards = append(rt.receipt.Hazards, err)
	}
}

// ContractAddress derives the account of a contract instantiated by deployer
// from code with the given constructor input and salt.
func ContractAddress(deployer common.Address, code common.Hash, input, salt []byte) common.Address {
	return crypto.CreateAddress2(deployer, crypto.Keccak256Hash(salt), crypto.Keccak256(code[:], input))
}

func hasCode(hash common.Hash) bool {
	return hash != (common.Hash{}) && hash != emptyCodeHash
}

var emptyCodeHash = crypto.Keccak256Hash(nil)
