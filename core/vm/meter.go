package vm

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Weight is the two-dimensional execution cost: computation time and the size
// of the state proof the execution requires.
type Weight struct {
	RefTime   uint64
	ProofSize uint64
}

// Add returns w + o.
func (w Weight) Add(o Weight) Weight {
	return Weight{RefTime: w.RefTime + o.RefTime, ProofSize: w.ProofSize + o.ProofSize}
}

// Meter tracks the weight and storage deposit consumed by one frame against
// its limits. Child frames get a nested meter whose consumption is absorbed by
// the parent when the child completes.
type Meter struct {
	limit   Weight
	used    Weight
	deposit *uint256.Int
	charged *uint256.Int
}

// NewMeter returns a root meter. A zero dimension or nil deposit limit is
// unbounded.
func NewMeter(l Limits) *Meter {
	m := &Meter{limit: Weight{RefTime: l.RefTime, ProofSize: l.ProofSize}, charged: new(uint256.Int)}
	if m.limit.RefTime == 0 {
		m.limit.RefTime = ^uint64(0)
	}
	if m.limit.ProofSize == 0 {
		m.limit.ProofSize = ^uint64(0)
	}
	if l.StorageDepositLimit != nil {
		m.deposit = new(uint256.Int).Set(l.StorageDepositLimit)
	}
	return m
}

// Used returns the weight consumed so far.
func (m *Meter) Used() Weight { return m.used }

// Deposit returns the storage deposit charged so far.
func (m *Meter) Deposit() *uint256.Int { return new(uint256.Int).Set(m.charged) }

// Remaining returns the weight still available.
func (m *Meter) Remaining() Weight {
	return Weight{RefTime: m.limit.RefTime - m.used.RefTime, ProofSize: m.limit.ProofSize - m.used.ProofSize}
}

// Charge consumes w. Nothing is consumed if either dimension would exceed
// its limit.
func (m *Meter) Charge(w Weight) error {
	rem := m.Remaining()
	if w.RefTime > rem.RefTime {
		return fmt.Errorf("%w: ref time %d > %d", ErrResourceLimitExceeded, w.RefTime, rem.RefTime)
	}
	if w.ProofSize > rem.ProofSize {
		return fmt.Errorf("%w: proof size %d > %d", ErrResourceLimitExceeded, w.ProofSize, rem.ProofSize)
	}
	m.used = m.used.Add(w)
	return nil
}

// ChargeDeposit consumes amount of the storage deposit allowance.
func (m *Meter) ChargeDeposit(amount *uint256.Int) error {
	total := new(uint256.Int).Add(m.charged, amount)
	if m.deposit != nil && total.Gt(m.deposit) {
		return fmt.Errorf("%w: storage deposit %s > %s", ErrResourceLimitExceeded, total, m.deposit)
	}
	m.charged = total
	return nil
}

// Nested returns a meter for a child frame. Requested limits larger than what
// is left fail; zero limits inherit everything that is left.
func (m *Meter) Nested(l Limits) (*Meter, error) {
	rem := m.Remaining()
	child := &Meter{limit: rem, charged: new(uint256.Int)}
	if l.RefTime != 0 {
		if l.RefTime > rem.RefTime {
			return nil, fmt.Errorf("%w: requested ref time %d > %d", ErrResourceLimitExceeded, l.RefTime, rem.RefTime)
		}
		child.limit.RefTime = l.RefTime
	}
	if l.ProofSize != 0 {
		if l.ProofSize > rem.ProofSize {
			return nil, fmt.Errorf("%w: requested proof size %d > %d", ErrResourceLimitExceeded, l.ProofSize, rem.ProofSize)
		}
		child.limit.ProofSize = l.ProofSize
	}
	var left *uint256.Int
	if m.deposit != nil {
		left = new(uint256.Int).Sub(m.deposit, m.charged)
	}
	switch {
	case l.StorageDepositLimit != nil && left != nil && l.StorageDepositLimit.Gt(left):
		return nil, fmt.Errorf("%w: requested storage deposit %s > %s", ErrResourceLimitExceeded, l.StorageDepositLimit, left)
	case l.StorageDepositLimit != nil:
		child.deposit = new(uint256.Int).Set(l.StorageDepositLimit)
	default:
		child.deposit = left
	}
	return child, nil
}

// Absorb adds the consumption of a completed child meter to m. Weight is
// always absorbed; the storage deposit only if the child's storage changes
// were kept.
func (m *Meter) Absorb(child *Meter, committed bool) {
	m.used = m.used.Add(child.used)
	if committed {
		m.charged = new(uint256.Int).Add(m.charged, child.charged)
	}
}
