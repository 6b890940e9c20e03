package vm

import (
	"bytes"
	"slices"

	"github.com/clydemeng/xcall/tracing"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Frame is one activation of an entry point. Storage reads are served from,
// and writes go to, the frame's memory; the memory reaches persistent storage
// only when the frame completes and holds final-write authority.
type Frame struct {
	id    int
	depth int
	style Style

	account common.Address // storage and identity binding
	caller  common.Address
	code    *Code
	entry   *EntryPoint
	value   *uint256.Int

	input     []byte
	forwarded bool

	// mem is the frame's view of the bound account's storage: every slot
	// loaded or written during the frame. It is written back as a whole.
	mem   map[common.Hash]common.Hash
	meter *Meter

	snapshot int

	// sealed is set once a tail call handed final-write authority to a
	// callee frame. A sealed frame does not flush.
	sealed     bool
	tailOutput []byte

	// restores holds slots written by delegated frames that did not take
	// final-write authority, with the value each slot must hold when the
	// frame exits. It is written back even when mem is not.
	restores map[common.Hash]common.Hash
}

// SlotWrite is one slot persisted by a flush.
type SlotWrite struct {
	Slot  common.Hash
	Prev  common.Hash
	Value common.Hash
}

// FlushRecord documents what a frame did with its memory on exit. The order of
// records in a receipt is the order frames exited, so the last record touching
// a slot names the frame whose write won.
type FlushRecord struct {
	Frame   int
	Depth   int
	Style   Style
	Account common.Address
	Code    common.Hash
	Entry   string
	Reason  tracing.FlushReason
	Writes  []SlotWrite
}

// load returns the value of slot, reading it from persistent storage on the
// first access.
func (f *Frame) load(st StateBackend, sched *Schedule, slot common.Hash) (common.Hash, error) {
	if v, ok := f.mem[slot]; ok {
		return v, nil
	}
	if err := f.meter.Charge(sched.StorageRead); err != nil {
		return common.Hash{}, err
	}
	v := st.GetState(f.account, slot)
	f.mem[slot] = v
	return v, nil
}

// prefetch loads the storage layout of the executing code into memory.
func (f *Frame) prefetch(st StateBackend, sched *Schedule) error {
	for _, slot := range f.code.Layout {
		if _, err := f.load(st, sched, slot); err != nil {
			return err
		}
	}
	return nil
}

// store writes slot in memory.
func (f *Frame) store(sched *Schedule, slot, value common.Hash) error {
	if err := f.meter.Charge(sched.StorageWrite); err != nil {
		return err
	}
	f.mem[slot] = value
	return nil
}

// seal hands final-write authority to a tail-called frame whose output becomes
// this frame's output.
func (f *Frame) seal(output []byte) {
	f.sealed = true
	f.tailOutput = common.CopyBytes(output)
	f.restores = nil
}

// undo schedules the writes of a delegated frame for reversal. prev maps each
// written slot to its value before the delegated invocation. Slots the frame
// already holds in memory keep the frame's own value.
func (f *Frame) undo(prev map[common.Hash]common.Hash) {
	if f.restores == nil {
		f.restores = make(map[common.Hash]common.Hash, len(prev))
	}
	for slot, v := range prev {
		if _, ok := f.restores[slot]; !ok {
			f.restores[slot] = v
		}
		if _, ok := f.mem[slot]; !ok {
			f.mem[slot] = v
		}
	}
}

// flush writes the frame's memory back to persistent storage. A read-only or
// sealed frame writes back only the slots scheduled by undo.
func (f *Frame) flush(st StateBackend, sched *Schedule) (FlushRecord, error) {
	rec := f.record(tracing.FlushCompleted)
	pending := f.mem
	switch {
	case f.sealed:
		rec.Reason = tracing.FlushTailCall
		pending = f.restores
	case !f.entry.Mutates:
		rec.Reason = tracing.FlushReadOnly
		pending = f.restores
	}
	slots := make([]common.Hash, 0, len(pending))
	for slot := range pending {
		slots = append(slots, slot)
	}
	slices.SortFunc(slots, func(a, b common.Hash) int { return bytes.Compare(a[:], b[:]) })

	for _, slot := range slots {
		value := pending[slot]
		prev := st.GetState(f.account, slot)
		if prev == value {
			continue
		}
		if err := f.meter.Charge(sched.StorageFlush); err != nil {
			return rec, err
		}
		if prev == (common.Hash{}) && sched.DepositPerItem != nil {
			if err := f.meter.ChargeDeposit(sched.DepositPerItem); err != nil {
				return rec, err
			}
		}
		st.SetState(f.account, slot, value)
		rec.Writes = append(rec.Writes, SlotWrite{Slot: slot, Prev: prev, Value: value})
	}
	return rec, nil
}

func (f *Frame) record(reason tracing.FlushReason) FlushRecord {
	return FlushRecord{
		Frame:   f.id,
		Depth:   f.depth,
		Style:   f.style,
		Account: f.account,
		Code:    f.code.Hash(),
		Entry:   f.entry.Name,
		Reason:  reason,
	}
}
