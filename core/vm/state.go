package vm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	gethvm "github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
)

// StateBackend is the persistent state surface the runtime needs: accounts,
// balances, code hashes, storage and journal snapshots.
type StateBackend interface {
	Exist(addr common.Address) bool
	CreateAccount(addr common.Address)
	GetCodeHash(addr common.Address) common.Hash
	SetCode(addr common.Address, code []byte)

	GetBalance(addr common.Address) *uint256.Int
	AddBalance(addr common.Address, amount *uint256.Int)
	SubBalance(addr common.Address, amount *uint256.Int)

	GetState(addr common.Address, slot common.Hash) common.Hash
	SetState(addr common.Address, slot common.Hash, value common.Hash)

	Snapshot() int
	RevertToSnapshot(id int)
}

// StateDBBackend adapts a geth vm.StateDB (in practice *state.StateDB) into
// the StateBackend interface.
type StateDBBackend struct {
	db gethvm.StateDB
}

// NewStateDBBackend wraps db.
func NewStateDBBackend(db gethvm.StateDB) *StateDBBackend {
	return &StateDBBackend{db: db}
}

func (b *StateDBBackend) Exist(addr common.Address) bool {
	return b.db.Exist(addr)
}

func (b *StateDBBackend) CreateAccount(addr common.Address) {
	b.db.CreateAccount(addr)
}

func (b *StateDBBackend) GetCodeHash(addr common.Address) common.Hash {
	return b.db.GetCodeHash(addr)
}

func (b *StateDBBackend) SetCode(addr common.Address, code []byte) {
	b.db.SetCode(addr, code)
}

func (b *StateDBBackend) GetBalance(addr common.Address) *uint256.Int {
	if u := b.db.GetBalance(addr); u != nil {
		return new(uint256.Int).Set(u)
	}
	return new(uint256.Int)
}

func (b *StateDBBackend) AddBalance(addr common.Address, amount *uint256.Int) {
	if amount == nil || amount.IsZero() {
		return
	}
	b.db.AddBalance(addr, amount, tracing.BalanceChangeTransfer)
}

func (b *StateDBBackend) SubBalance(addr common.Address, amount *uint256.Int) {
	if amount == nil || amount.IsZero() {
		return
	}
	b.db.SubBalance(addr, amount, tracing.BalanceChangeTransfer)
}

func (b *StateDBBackend) GetState(addr common.Address, slot common.Hash) common.Hash {
	return b.db.GetState(addr, slot)
}

func (b *StateDBBackend) SetState(addr common.Address, slot common.Hash, value common.Hash) {
	b.db.SetState(addr, slot, value)
}

func (b *StateDBBackend) Snapshot() int {
	return b.db.Snapshot()
}

func (b *StateDBBackend) RevertToSnapshot(id int) {
	b.db.RevertToSnapshot(id)
}
