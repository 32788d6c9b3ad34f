// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package dispatch

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/prosopo-io/ink/env"
)

// SelectorSize is the number of input bytes that pick a handler.
const SelectorSize = 4

// Selector identifies a constructor or message.
type Selector [SelectorSize]byte

// SelectorFor derives the selector of a handler name: the first four bytes
// of its BLAKE2b-256 digest.
func SelectorFor(name string) Selector {
	var s Selector
	copy(s[:], env.Hash(env.Blake2x256, []byte(name)))
	return s
}

// ComposeName joins a namespace and a label the way selector names are
// spelled.  An empty namespace leaves the label alone.
func ComposeName(namespace, label string) string {
	if namespace == "" {
		return label
	}
	return namespace + "::" + label
}

// ParseSelector reads a selector written as eight hex digits, with or
// without a 0x prefix.
func ParseSelector(s string) (Selector, error) {
	var sel Selector
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(digits) != 2*SelectorSize {
		return sel, fmt.Errorf("%w: %q", ErrInvalidSelector, s)
	}
	if _, err := hex.Decode(sel[:], []byte(digits)); err != nil {
		return sel, fmt.Errorf("%w: %q", ErrInvalidSelector, s)
	}
	return sel, nil
}

// SelectorFromUint32 lays v out big-endian, so 0x11223344 reads the same
// in source and on the wire.
func SelectorFromUint32(v uint32) Selector {
	var s Selector
	binary.BigEndian.PutUint32(s[:], v)
	return s
}

func (s Selector) Uint32() uint32 {
	return binary.BigEndian.Uint32(s[:])
}

func (s Selector) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

// Input builds call input: the selector followed by encoded arguments.
func (s Selector) Input(args []byte) []byte {
	in := make([]byte, 0, SelectorSize+len(args))
	in = append(in, s[:]...)
	return append(in, args...)
}
