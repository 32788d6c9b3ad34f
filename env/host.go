// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package env describes the host a contract runs against: a flat key/value
// store with hashing, and the calling convention used to read input and
// hand back output.  It also defines the stable numeric error vocabulary
// hosts report across that boundary.
//
// Hosts are used from a single call at a time and are not safe for
// concurrent use.
package env

import (
	"github.com/prosopo-io/ink/primitives"
)

// StorageHost is the flat key/value store a contract's state lives in.
type StorageHost interface {
	// Get returns the bytes stored at key, or ErrKeyNotFound.
	Get(key primitives.Key) ([]byte, error)
	// Set stores value at key, replacing anything there.
	Set(key primitives.Key, value []byte) error
	// Clear removes whatever is stored at key.  Clearing an empty slot is
	// not an error.
	Clear(key primitives.Key) error
	// Hash returns the digest of input under alg.
	Hash(alg HashAlgorithm, input []byte) []byte
}

// Validator is implemented by stores that can refuse a write.  Overlay
// checks every buffered write against it before applying any.
type Validator interface {
	ValidateSet(key primitives.Key, value []byte) error
}

// ReturnFlags are passed out-of-band alongside a call's output.
type ReturnFlags uint32

const (
	// FlagRevert asks the host to undo the current frame's storage effects
	// while still returning output to the caller.
	FlagRevert ReturnFlags = 1 << iota
)

func (f ReturnFlags) Reverted() bool {
	return f&FlagRevert != 0
}

// CallHost is the calling convention of one contract execution.
type CallHost interface {
	// ReadInput returns the raw call input: a 4-byte selector followed by
	// the encoded argument tuple.
	ReadInput() ([]byte, error)
	// ReturnValue hands output to the host.  It ends the execution: callers
	// must return immediately afterwards and never call it twice.
	ReturnValue(flags ReturnFlags, output []byte)
	// TransferredValue is the value sent along with the call.
	TransferredValue() Balance
}
