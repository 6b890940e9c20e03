package vm

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// Handler executes one entry point. args are the RLP-encoded arguments that
// followed the selector; the returned bytes are the entry point's output.
type Handler func(ctx *Context, args []byte) ([]byte, error)

// EntryPoint is a constructor or message exported by a code unit.
type EntryPoint struct {
	Name     string
	Selector Selector
	Mutates  bool // the frame flushes its storage on completion
	Payable  bool // the entry point accepts transferred value
	Handler  Handler
}

// Constructor declares a constructor. Constructors always flush.
func Constructor(name string, payable bool, h Handler) *EntryPoint {
	return &EntryPoint{Name: name, Selector: NewSelector(name), Mutates: true, Payable: payable, Handler: h}
}

// Message declares a message. mutates selects whether the frame writes its
// storage back when the message completes.
func Message(name string, mutates bool, h Handler) *EntryPoint {
	return &EntryPoint{Name: name, Selector: NewSelector(name), Mutates: mutates, Handler: h}
}

// Code is a deployable unit of contract code. Its reference is the keccak256
// of its descriptor, which is also what gets stored as the code of every
// account instantiated from it.
type Code struct {
	Name   string
	Layout []common.Hash // slots loaded into frame memory on entry

	constructors map[Selector]*EntryPoint
	messages     map[Selector]*EntryPoint
	descriptor   []byte
	hash         common.Hash
}

type codeDescriptor struct {
	Name         string
	Layout       []common.Hash
	Constructors []Selector
	Messages     []Selector
}

// NewCode assembles a code unit. Selectors must be unique across all entry
// points of the unit.
func NewCode(name string, layout []common.Hash, constructors, messages []*EntryPoint) (*Code, error) {
	c := &Code{
		Name:         name,
		Layout:       append([]common.Hash(nil), layout...),
		constructors: make(map[Selector]*EntryPoint, len(constructors)),
		messages:     make(map[Selector]*EntryPoint, len(messages)),
	}
	seen := mapset.NewThreadUnsafeSet[Selector]()
	desc := codeDescriptor{Name: name, Layout: c.Layout}
	for _, group := range []struct {
		eps   []*EntryPoint
		into  map[Selector]*EntryPoint
		names *[]Selector
	}{
		{constructors, c.constructors, &desc.Constructors},
		{messages, c.messages, &desc.Messages},
	} {
		for _, ep := range group.eps {
			if ep == nil || ep.Handler == nil {
				return nil, fmt.Errorf("%w: %s: entry point without handler", ErrInvalidCode, name)
			}
			if !seen.Add(ep.Selector) {
				return nil, fmt.Errorf("%w: %s: duplicate selector %s (%s)", ErrInvalidCode, name, ep.Selector, ep.Name)
			}
			group.into[ep.Selector] = ep
			*group.names = append(*group.names, ep.Selector)
		}
	}
	enc, err := rlp.EncodeToBytes(&desc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCode, name, err)
	}
	c.descriptor = enc
	c.hash = crypto.Keccak256Hash(enc)
	return c, nil
}

// MustNewCode is like NewCode but panics on error. It is meant for package
// level code definitions.
func MustNewCode(name string, layout []common.Hash, constructors, messages []*EntryPoint) *Code {
	c, err := NewCode(name, layout, constructors, messages)
	if err != nil {
		panic(err)
	}
	return c
}

// Hash returns the code reference.
func (c *Code) Hash() common.Hash { return c.hash }

// Descriptor returns the canonical bytes the reference is derived from.
func (c *Code) Descriptor() []byte { return common.CopyBytes(c.descriptor) }

// Constructor looks up a constructor by selector.
func (c *Code) Constructor(sel Selector) (*EntryPoint, bool) {
	ep, ok := c.constructors[sel]
	return ep, ok
}

// Message looks up a message by selector.
func (c *Code) Message(sel Selector) (*EntryPoint, bool) {
	ep, ok := c.messages[sel]
	return ep, ok
}
