package vm

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// Input is the execution input of an invocation: the selector of the entry
// point followed by its arguments. On the wire the arguments are an RLP list
// appended to the selector; an entry point without arguments is just the
// selector.
type Input struct {
	Selector Selector
	args     []interface{}
}

// NewInput returns an input that targets the given entry point.
func NewInput(sel Selector) *Input {
	return &Input{Selector: sel}
}

// PushArg appends an argument. Arguments must be RLP-encodable.
func (in *Input) PushArg(arg interface{}) *Input {
	in.args = append(in.args, arg)
	return in
}

// Encode returns selector ‖ rlp(args).
func (in *Input) Encode() ([]byte, error) {
	out := append([]byte(nil), in.Selector[:]...)
	if len(in.args) == 0 {
		return out, nil
	}
	enc, err := rlp.EncodeToBytes(in.args)
	if err != nil {
		return nil, fmt.Errorf("encode arguments of %s: %w", in.Selector, err)
	}
	return append(out, enc...), nil
}

// SplitInput separates an encoded input into its selector and argument bytes.
func SplitInput(data []byte) (Selector, []byte, error) {
	sel, err := BytesToSelector(data)
	if err != nil {
		return sel, nil, err
	}
	return sel, data[SelectorLength:], nil
}

// DecodeArgs decodes the RLP argument list into the given pointers, in order.
// Extra list elements are rejected.
func DecodeArgs(data []byte, out ...interface{}) error {
	if len(out) == 0 {
		if len(data) != 0 {
			return fmt.Errorf("%w: unexpected arguments", ErrDecodingFailed)
		}
		return nil
	}
	s := rlp.NewStream(bytes.NewReader(data), uint64(len(data)))
	if _, err := s.List(); err != nil {
		return fmt.Errorf("%w: %v", ErrDecodingFailed, err)
	}
	for i, ptr := range out {
		if err := s.Decode(ptr); err != nil {
			return fmt.Errorf("%w: argument %d: %v", ErrDecodingFailed, i, err)
		}
	}
	if err := s.ListEnd(); err != nil {
		return fmt.Errorf("%w: %v", ErrDecodingFailed, err)
	}
	return nil
}

// EncodeReturn encodes a message's return value.
func EncodeReturn(v interface{}) ([]byte, error) {
	return rlp.EncodeToBytes(v)
}

// DecodeReturn decodes a message's return value into ptr.
func DecodeReturn(data []byte, ptr interface{}) error {
	if err := rlp.DecodeBytes(data, ptr); err != nil {
		return fmt.Errorf("%w: return value: %v", ErrDecodingFailed, err)
	}
	return nil
}
