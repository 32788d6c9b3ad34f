// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package dispatch routes call input to a contract's handlers.
//
// Call input is a 4-byte selector followed by the encoded argument tuple.
// The router finds the handler for the selector, decodes its arguments,
// enforces payability, loads the contract's storage, runs the handler and
// hands the encoded result back to the host.  Every failure it detects
// itself happens before storage is loaded.
package dispatch

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prosopo-io/ink/env"
	"github.com/prosopo-io/ink/storage"
)

// Router runs calls against a table.  S is the contract's storage type,
// a pointer to a struct laid out from storage.RootKey.
type Router[S storage.Spread] struct {
	table      *Table[S]
	newStorage func() S
	logger     zerolog.Logger
}

// NewRouter returns a router over table.  newStorage must return a fresh,
// unbound storage value on every call.
func NewRouter[S storage.Spread](table *Table[S], newStorage func() S, logger zerolog.Logger) *Router[S] {
	return &Router[S]{
		table:      table,
		newStorage: newStorage,
		logger:     logger,
	}
}

func (r *Router[S]) Table() *Table[S] {
	return r.table
}

// Instantiate runs the constructor named by the call input against freshly
// allocated storage and writes the result.  It fails with
// ErrAlreadyInstantiated if the root key is already occupied.
func (r *Router[S]) Instantiate(host env.StorageHost, call env.CallHost) error {
	return r.run(KindConstructor, host, call)
}

// Call runs the message named by the call input against the stored state.
func (r *Router[S]) Call(host env.StorageHost, call env.CallHost) error {
	return r.run(KindMessage, host, call)
}

// run returns nil when the handler returned or reverted; in both cases the
// output has been handed to call.  Any error means the call trapped and
// nothing was returned.
func (r *Router[S]) run(kind Kind, host env.StorageHost, call env.CallHost) error {
	input, err := call.ReadInput()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCouldNotReadInput, err)
	}
	if len(input) < SelectorSize {
		return fmt.Errorf("%w: %d bytes", ErrCouldNotReadInput, len(input))
	}
	var sel Selector
	copy(sel[:], input)

	entry, ok := r.table.lookup(kind, sel)
	if !ok {
		r.logger.Debug().Stringer("selector", sel).Stringer("kind", kind).Msg("no handler")
		return fmt.Errorf("%w: %s %s", ErrUnknownSelector, kind, sel)
	}
	logger := r.logger.With().Stringer("selector", sel).Str("handler", entry.Name()).Logger()

	invoke, err := entry.bind(input[SelectorSize:])
	if err != nil {
		logger.Debug().Err(err).Msg("bad arguments")
		return fmt.Errorf("%w: %s: %w", ErrInvalidParameters, entry.Name(), err)
	}

	value := call.TransferredValue()
	if !entry.Payable && !value.IsZero() {
		logger.Debug().Stringer("value", value).Msg("rejected payment")
		return fmt.Errorf("%w: %s received %s", ErrPaidUnpayableMessage, entry.Name(), value)
	}

	state := r.newStorage()
	if kind == KindConstructor {
		if _, err := host.Get(storage.RootKey); err == nil {
			logger.Debug().Msg("root already occupied")
			return fmt.Errorf("%w: %s", ErrAlreadyInstantiated, entry.Name())
		} else if !errors.Is(err, env.ErrKeyNotFound) {
			return fmt.Errorf("read root: %w", err)
		}
		if err := storage.AllocateSpreadRoot(host, storage.RootKey, state); err != nil {
			return fmt.Errorf("allocate storage: %w", err)
		}
	} else {
		view := host
		if !entry.Mutates {
			view = env.ReadOnly(host)
		}
		if err := storage.PullSpreadRoot(view, storage.RootKey, state); err != nil {
			return fmt.Errorf("pull storage: %w", err)
		}
	}

	ctx := &Context{Value: value, Logger: logger}
	out, err := invoke(ctx, state)
	if data, reverted := IsRevert(err); reverted {
		logger.Debug().Int("output_len", len(data)).Msg("reverted")
		call.ReturnValue(env.FlagRevert, data)
		return nil
	} else if err != nil {
		if errors.Is(err, env.ErrReadOnly) {
			return fmt.Errorf("%s %s wrote storage without being marked mutating: %w", kind, entry.Name(), err)
		}
		return fmt.Errorf("%s %s: %w", kind, entry.Name(), err)
	}

	if entry.Mutates {
		if err := storage.PushSpreadRoot(host, storage.RootKey, state); err != nil {
			return fmt.Errorf("push storage: %w", err)
		}
	}
	logger.Debug().Int("output_len", len(out)).Msg("returned")
	call.ReturnValue(0, out)
	return nil
}
