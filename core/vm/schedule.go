package vm

import "github.com/holiman/uint256"

// Schedule prices the operations a frame performs. Costs are expressed in the
// two weight dimensions plus the storage deposit charged for newly occupied
// slots.
type Schedule struct {
	CallBase        Weight // entering a frame through StyleCall
	DelegateBase    Weight // entering a frame through StyleDelegateCall
	InstantiateBase Weight // creating an account and running its constructor
	StorageRead     Weight // loading a slot that is not yet in frame memory
	StorageWrite    Weight // writing a slot in frame memory
	StorageFlush    Weight // persisting one slot when the frame completes
	Transfer        Weight // moving value between accounts

	DepositPerItem *uint256.Int // charged once per slot that goes from empty to occupied
}

// DefaultSchedule returns the cost table used unless the runtime is configured
// otherwise.
func DefaultSchedule() *Schedule {
	return &Schedule{
		CallBase:        Weight{RefTime: 10_000, ProofSize: 64},
		DelegateBase:    Weight{RefTime: 8_000, ProofSize: 32},
		InstantiateBase: Weight{RefTime: 50_000, ProofSize: 128},
		StorageRead:     Weight{RefTime: 2_000, ProofSize: 64},
		StorageWrite:    Weight{RefTime: 500},
		StorageFlush:    Weight{RefTime: 5_000},
		Transfer:        Weight{RefTime: 3_000},
		DepositPerItem:  uint256.NewInt(1_000),
	}
}

// base returns the entry cost of a frame of the given style.
func (s *Schedule) base(style Style) Weight {
	switch style {
	case StyleDelegateCall:
		return s.DelegateBase
	case StyleInstantiate:
		return s.InstantiateBase
	default:
		return s.CallBase
	}
}
