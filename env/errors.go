// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package env

import (
	"errors"
	"fmt"
	"math"
)

// ErrorCode is a condition reported by the host as a nonzero raw code.
// The numbers are a stable external contract: never renumber, and give new
// conditions unused numbers.
type ErrorCode uint32

const (
	// CalleeTrapped: the called contract trapped and its state changes were
	// reverted.  No output is returned.
	CalleeTrapped ErrorCode = 1
	// CalleeReverted: the called contract ran to completion but reverted
	// its state.  Output is returned if any was supplied.
	CalleeReverted ErrorCode = 2
	// KeyNotFound: the key does not exist in storage.
	KeyNotFound ErrorCode = 3
	// BelowSubsistenceThreshold is deprecated and no longer returned.
	BelowSubsistenceThreshold ErrorCode = 4
	// TransferFailed: the transfer failed, most likely because of reserved
	// or locked balance.
	TransferFailed ErrorCode = 5
	// EndowmentTooLow is deprecated and no longer returned.
	EndowmentTooLow ErrorCode = 6
	// CodeNotFound: no code exists at the supplied code hash.
	CodeNotFound ErrorCode = 7
	// NotCallable: the called account is not a contract.
	NotCallable ErrorCode = 8
	// LoggingDisabled: a debug message was dropped because recording is off.
	LoggingDisabled ErrorCode = 9
	// CallRuntimeFailed: a dispatched runtime call returned an error.
	CallRuntimeFailed ErrorCode = 10
	// EcdsaRecoveryFailed: ECDSA public key recovery failed.
	EcdsaRecoveryFailed ErrorCode = 11

	// Unknown stands in for any code this version doesn't recognize.  It has
	// no raw number of its own.
	Unknown ErrorCode = math.MaxUint32
)

// maxKnownCode is the highest assigned number.
const maxKnownCode = EcdsaRecoveryFailed

var (
	ErrCalleeTrapped       error = CalleeTrapped
	ErrCalleeReverted      error = CalleeReverted
	ErrKeyNotFound         error = KeyNotFound
	ErrTransferFailed      error = TransferFailed
	ErrCodeNotFound        error = CodeNotFound
	ErrNotCallable         error = NotCallable
	ErrLoggingDisabled     error = LoggingDisabled
	ErrCallRuntimeFailed   error = CallRuntimeFailed
	ErrEcdsaRecoveryFailed error = EcdsaRecoveryFailed
	ErrUnknown             error = Unknown

	ErrReadOnly = errors.New("env: storage is read-only for this call")
)

var errorCodeNames = [...]string{
	CalleeTrapped:             "callee trapped",
	CalleeReverted:            "callee reverted",
	KeyNotFound:               "key not found",
	BelowSubsistenceThreshold: "below subsistence threshold",
	TransferFailed:            "transfer failed",
	EndowmentTooLow:           "endowment too low",
	CodeNotFound:              "code not found",
	NotCallable:               "not callable",
	LoggingDisabled:           "logging disabled",
	CallRuntimeFailed:         "call runtime failed",
	EcdsaRecoveryFailed:       "ecdsa recovery failed",
}

func (c ErrorCode) Error() string {
	if c.Known() {
		return "env: " + errorCodeNames[c]
	}
	return "env: unknown error code"
}

// Known reports whether c is one of the assigned codes 1..11.
func (c ErrorCode) Known() bool {
	return c >= CalleeTrapped && c <= maxKnownCode
}

// Deprecated reports whether c is a code hosts no longer return.
func (c ErrorCode) Deprecated() bool {
	return c == BelowSubsistenceThreshold || c == EndowmentTooLow
}

// ReturnCode converts c back to its raw number.  The zero code is success
// and converts to 0.  Unknown has no number and converts to the sentinel.
func (c ErrorCode) ReturnCode() ReturnCode {
	if c == 0 {
		return 0
	}
	if !c.Known() {
		return ReturnCode(Sentinel)
	}
	return ReturnCode(c)
}

// Sentinel is the raw value hosts use to say "no value" where only a plain
// number can be returned.  It is safe because no memory location or length
// a contract may use can come close to it.
const Sentinel uint32 = math.MaxUint32

// ReturnCode is the raw value a host function returns.
type ReturnCode uint32

// Err maps the raw code to nil (0), a named ErrorCode (1..11), or Unknown.
func (rc ReturnCode) Err() error {
	switch c := ErrorCode(rc); {
	case rc == 0:
		return nil
	case c.Known():
		return c
	default:
		return Unknown
	}
}

// Optional interprets rc as an optional number: the sentinel means none.
func (rc ReturnCode) Optional() (uint32, bool) {
	if uint32(rc) == Sentinel {
		return 0, false
	}
	return uint32(rc), true
}

// Bool interprets rc as a boolean: any nonzero value is true.
func (rc ReturnCode) Bool() bool {
	return rc != 0
}

func (rc ReturnCode) String() string {
	if err := rc.Err(); err != nil {
		return fmt.Sprintf("%d (%s)", uint32(rc), err)
	}
	return "0 (success)"
}
