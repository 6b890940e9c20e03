package vm

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Style enumerates the ways a frame can hand control to other code. Typed
// reference calls and builder calls are both StyleCall; they differ only in
// how the Invocation is put together.
type Style uint8

const (
	// StyleCall executes the code of Target against Target's own storage.
	StyleCall Style = iota
	// StyleDelegateCall executes the code named by Code against the caller's
	// storage and identity.
	StyleDelegateCall
	// StyleInstantiate creates a new account running the code named by Code.
	StyleInstantiate
)

func (s Style) String() string {
	switch s {
	case StyleCall:
		return "call"
	case StyleDelegateCall:
		return "delegate_call"
	case StyleInstantiate:
		return "instantiate"
	}
	return fmt.Sprintf("Style(%d)", s)
}

// CallFlags are independent policy switches governing an invocation.
type CallFlags uint32

const (
	// ForwardInput passes the caller's own input to the callee and consumes
	// it; the caller cannot forward or clone it again.
	ForwardInput CallFlags = 1 << iota
	// CloneInput passes a copy of the caller's input to the callee.
	CloneInput
	// TailCall marks the callee frame as the last frame of the caller: the
	// callee's output and storage become final and the caller does not flush.
	TailCall
	// AllowReentry permits calling into an account that is already executing.
	AllowReentry

	knownFlags = ForwardInput | CloneInput | TailCall | AllowReentry
)

// Has reports whether all bits of f are set.
func (c CallFlags) Has(f CallFlags) bool { return c&f == f }

func (c CallFlags) String() string {
	if c == 0 {
		return "none"
	}
	var names []string
	for _, f := range []struct {
		flag CallFlags
		name string
	}{
		{ForwardInput, "forward_input"},
		{CloneInput, "clone_input"},
		{TailCall, "tail_call"},
		{AllowReentry, "allow_reentry"},
	} {
		if c.Has(f.flag) {
			names = append(names, f.name)
		}
	}
	return strings.Join(names, "|")
}

// Limits bound the resources an invocation may consume. A zero dimension means
// "everything the parent frame has left"; a nil deposit limit likewise.
type Limits struct {
	RefTime             uint64
	ProofSize           uint64
	StorageDepositLimit *uint256.Int
}

// Invocation carries everything the runtime needs to dispatch one call.
// Parameters are forwarded unmodified to the runtime.
type Invocation struct {
	Style  Style
	Target common.Address // callee account, StyleCall only
	Code   common.Hash    // code reference, StyleDelegateCall and StyleInstantiate
	Input  []byte         // selector ‖ rlp(args)
	Flags  CallFlags
	Limits Limits
	Value  *uint256.Int // transferred value or endowment, nil for none
	Salt   []byte       // StyleInstantiate only
}

// Result is the successful outcome of an invocation.
type Result struct {
	Output  []byte
	Account common.Address // the new account, StyleInstantiate only
	Used    Weight
}

// Invoker is the dispatch capability of the runtime as seen by contract code.
type Invoker interface {
	Invoke(inv *Invocation) (*Result, error)
}
