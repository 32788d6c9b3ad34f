// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package dispatch

import (
	"errors"
	"fmt"

	"github.com/prosopo-io/ink/codec"
)

// Dispatch failures.  All of them are detected before a handler runs, so
// none of them can leave storage half written.
var (
	ErrInvalidSelector      = errors.New("unable to decode selector")
	ErrUnknownSelector      = errors.New("encountered unknown selector")
	ErrInvalidParameters    = errors.New("unable to decode input")
	ErrCouldNotReadInput    = errors.New("could not read input")
	ErrPaidUnpayableMessage = errors.New("paid an unpayable message")
)

// ErrAlreadyInstantiated is returned by a constructor run against a store
// that already holds the contract's root.
var ErrAlreadyInstantiated = errors.New("dispatch: contract already instantiated")

// Table construction failures.
var (
	ErrDuplicateSelector = errors.New("dispatch: duplicate selector")
	ErrDuplicateLabel    = errors.New("dispatch: duplicate label")
	ErrEmptyLabel        = errors.New("dispatch: empty label")
)

// RevertError ends a call without committing its storage effects.  Data is
// returned to the caller as output.
type RevertError struct {
	Data []byte
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("contract reverted (%d bytes of output)", len(e.Data))
}

// Revert returns a *RevertError carrying the encoding of v.  A nil v
// reverts with no output.
func Revert(v any) error {
	if v == nil {
		return &RevertError{}
	}
	data, err := codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode revert output: %w", err)
	}
	return &RevertError{Data: data}
}

// IsRevert reports whether err asks for a revert, and with what output.
func IsRevert(err error) ([]byte, bool) {
	var rev *RevertError
	if errors.As(err, &rev) {
		return rev.Data, true
	}
	return nil, false
}
