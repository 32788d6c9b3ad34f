// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package engine executes contracts off-chain.  It plays the host's part
// of the calling convention: each call runs in a frame buffered over the
// persistent store, and the frame is committed only if the call returned
// normally.
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prosopo-io/ink"
	"github.com/prosopo-io/ink/env"
)

// Status is how a call ended.
type Status uint8

const (
	// StatusSuccess: the call returned and its writes were committed.
	StatusSuccess Status = iota
	// StatusReverted: the call asked to revert.  Its writes were dropped
	// but its output is returned.
	StatusReverted
	// StatusTrapped: the call failed.  Its writes were dropped and there
	// is no output.
	StatusTrapped
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusReverted:
		return "reverted"
	case StatusTrapped:
		return "trapped"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Outcome describes one finished call.
type Outcome struct {
	CallID uuid.UUID
	Status Status
	// Output is nil when the call trapped.
	Output []byte
	// Err is the reason for a trap.
	Err error
	// Writes is the number of slots the call committed.
	Writes int
}

// ReturnCode is the code a caller of this call would see.
func (o Outcome) ReturnCode() env.ReturnCode {
	switch o.Status {
	case StatusSuccess:
		return 0
	case StatusReverted:
		return env.CalleeReverted.ReturnCode()
	default:
		return env.CalleeTrapped.ReturnCode()
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger outcomes are reported to.  If not provided,
// nothing is logged.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine runs calls against a persistent store.  It is not safe for
// concurrent use.
type Engine struct {
	store  env.StorageHost
	logger zerolog.Logger
}

func New(store env.StorageHost, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the persistent store calls commit to.
func (e *Engine) Store() env.StorageHost {
	return e.store
}

// Instantiate deploys c by running one of its constructors.
func (e *Engine) Instantiate(c ink.Executable, input []byte, value env.Balance) Outcome {
	return e.run(c, "instantiate", c.Instantiate, input, value)
}

// Call runs one of c's messages.
func (e *Engine) Call(c ink.Executable, input []byte, value env.Balance) Outcome {
	return e.run(c, "call", c.Call, input, value)
}

type entrypoint func(host env.StorageHost, call env.CallHost) error

func (e *Engine) run(c ink.Executable, op string, fn entrypoint, input []byte, value env.Balance) (out Outcome) {
	out.CallID = uuid.New()
	logger := e.logger.With().
		Stringer("call_id", out.CallID).
		Str("contract", c.Name()).
		Str("op", op).
		Logger()
	start := time.Now()

	frame := env.NewOverlay(e.store)
	call := env.NewCall(input, value)

	defer func() {
		ev := logger.Debug()
		if out.Status == StatusTrapped {
			ev = logger.Warn().Err(out.Err)
		}
		ev.Stringer("status", out.Status).
			Int("output_len", len(out.Output)).
			Int("writes", out.Writes).
			Dur("elapsed", time.Since(start)).
			Msg("call finished")
	}()

	if err := invoke(fn, frame, call); err != nil {
		frame.Discard()
		out.Status = StatusTrapped
		out.Err = err
		return out
	}

	flags, output, returned := call.Returned()
	if !returned {
		frame.Discard()
		out.Status = StatusTrapped
		out.Err = fmt.Errorf("%s: contract finished without returning", c.Name())
		return out
	}
	if output == nil {
		output = []byte{}
	}
	if flags.Reverted() {
		frame.Discard()
		out.Status = StatusReverted
		out.Output = output
		return out
	}

	out.Writes = frame.Dirty()
	if err := frame.Commit(); err != nil {
		out.Status = StatusTrapped
		out.Err = fmt.Errorf("commit: %w", err)
		out.Writes = 0
		return out
	}
	out.Status = StatusSuccess
	out.Output = output
	return out
}

// invoke runs fn, turning a panic inside the contract into an error.
func invoke(fn entrypoint, host env.StorageHost, call env.CallHost) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("contract panicked: %v", r)
		}
	}()
	return fn(host, call)
}
