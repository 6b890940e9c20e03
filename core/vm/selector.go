package vm

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// SelectorLength is the size of an entry-point selector in bytes.
const SelectorLength = 4

// Selector names an entry point (constructor or message) of a code unit. It is
// the first four bytes of the BLAKE2b-256 digest of the entry-point name.
type Selector [SelectorLength]byte

// NewSelector derives the selector of the given entry-point name.
func NewSelector(name string) Selector {
	digest := blake2b.Sum256([]byte(name))
	var sel Selector
	copy(sel[:], digest[:SelectorLength])
	return sel
}

// BytesToSelector converts the leading bytes of b into a selector. It fails if
// b is shorter than SelectorLength.
func BytesToSelector(b []byte) (Selector, error) {
	var sel Selector
	if len(b) < SelectorLength {
		return sel, fmt.Errorf("%w: selector needs %d bytes, have %d", ErrDecodingFailed, SelectorLength, len(b))
	}
	copy(sel[:], b[:SelectorLength])
	return sel, nil
}

// Hex returns the 0x-prefixed hex encoding of the selector.
func (s Selector) Hex() string { return "0x" + hex.EncodeToString(s[:]) }

func (s Selector) String() string { return s.Hex() }
