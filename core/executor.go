package core

import (
	"errors"
	"fmt"

	"github.com/clydemeng/xcall/core/vm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/state"
)

// Message is a top-level request sent to the runtime by an externally owned
// account.
type Message struct {
	From       common.Address
	Invocation *vm.Invocation
	Limits     vm.Limits
}

// MessageExecutor is an abstraction over a message execution backend. It lets
// the Processor run messages without knowing how code units are hosted.
type MessageExecutor interface {
	// Engine returns a short human identifier of the backend.
	Engine() string

	// ExecuteMsg runs msg against the executor's state and returns its receipt.
	// Failures of the message itself are reported in the receipt; an error is
	// only returned for messages that cannot be run at all.
	ExecuteMsg(msg *Message) (*vm.Receipt, error)
}

// NewMessageExecutor constructs the vm backend over sdb and wraps it in a
// MessageExecutor.
func NewMessageExecutor(sdb *state.StateDB, registry *vm.Registry, cfg *vm.Config) (MessageExecutor, error) {
	base, err := vm.NewExecutor(sdb, registry, cfg)
	if err != nil {
		return nil, err
	}
	return &vmExecutorAdapter{inner: base}, nil
}

// vmExecutorAdapter bridges vm.Executor to MessageExecutor.
type vmExecutorAdapter struct {
	inner vm.Executor
}

func (v *vmExecutorAdapter) Engine() string { return v.inner.Engine() }

func (v *vmExecutorAdapter) ExecuteMsg(msg *Message) (*vm.Receipt, error) {
	if err := msg.validate(); err != nil {
		return nil, err
	}
	return v.inner.Exec(msg.From, msg.Invocation, msg.Limits), nil
}

var (
	errNilInvocation    = errors.New("message without invocation")
	errTopLevelDelegate = errors.New("delegate call cannot be sent by an external account")
)

func (m *Message) validate() error {
	switch {
	case m.Invocation == nil:
		return errNilInvocation
	case m.Invocation.Style == vm.StyleDelegateCall:
		return fmt.Errorf("%w: code %s", errTopLevelDelegate, m.Invocation.Code.Hex())
	}
	return nil
}
