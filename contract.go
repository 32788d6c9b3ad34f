// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package ink ties a contract's storage layout to its dispatch table.
//
// A contract is a storage type, laid out from storage.RootKey, plus a list
// of constructors and messages built with dispatch.Constructor and
// dispatch.Message.  New checks the list once; the result runs calls
// against any env.StorageHost.
package ink

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prosopo-io/ink/codec"
	"github.com/prosopo-io/ink/dispatch"
	"github.com/prosopo-io/ink/env"
	"github.com/prosopo-io/ink/storage"
)

// Option configures a Contract.
type Option func(*options)

type options struct {
	logger zerolog.Logger
}

// WithLogger sets the logger dispatch decisions are reported to.  If not
// provided, nothing is logged.
func WithLogger(logger zerolog.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// Handler describes one constructor or message without its types.
type Handler struct {
	Selector dispatch.Selector
	Name     string
	Kind     dispatch.Kind
	Mutates  bool
	Payable  bool
}

// Executable is a contract with its storage type erased.
type Executable interface {
	Name() string
	// Instantiate runs a constructor.  A nil error means the contract
	// handed output to call, possibly with env.FlagRevert set.
	Instantiate(host env.StorageHost, call env.CallHost) error
	// Call runs a message, with the same convention as Instantiate.
	Call(host env.StorageHost, call env.CallHost) error
	Handlers() []Handler
	// Input encodes a call to the named handler.
	Input(kind dispatch.Kind, name string, args any) ([]byte, error)
}

// Contract is an Executable over storage type S.
type Contract[S storage.Spread] struct {
	name   string
	router *dispatch.Router[S]
}

var _ Executable = &Contract[storage.Spread]{}

// New builds a contract.  newStorage must return an unbound storage value
// each time it is called.  Duplicate selectors or names are reported here.
func New[S storage.Spread](name string, newStorage func() S, entries []dispatch.Entry[S], opts ...Option) (*Contract[S], error) {
	options := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&options)
	}
	table, err := dispatch.NewTable(entries...)
	if err != nil {
		return nil, fmt.Errorf("contract %s: %w", name, err)
	}
	logger := options.logger.With().Str("contract", name).Logger()
	return &Contract[S]{
		name:   name,
		router: dispatch.NewRouter(table, newStorage, logger),
	}, nil
}

func (c *Contract[S]) Name() string {
	return c.name
}

func (c *Contract[S]) Instantiate(host env.StorageHost, call env.CallHost) error {
	return c.router.Instantiate(host, call)
}

func (c *Contract[S]) Call(host env.StorageHost, call env.CallHost) error {
	return c.router.Call(host, call)
}

func (c *Contract[S]) Table() *dispatch.Table[S] {
	return c.router.Table()
}

func (c *Contract[S]) Handlers() []Handler {
	entries := c.router.Table().Entries()
	handlers := make([]Handler, len(entries))
	for i, e := range entries {
		handlers[i] = Handler{
			Selector: e.Selector,
			Name:     e.Name(),
			Kind:     e.Kind,
			Mutates:  e.Mutates,
			Payable:  e.Payable,
		}
	}
	return handlers
}

// Input encodes a call to the handler with the given qualified name.  A
// nil args encodes no arguments.
func (c *Contract[S]) Input(kind dispatch.Kind, name string, args any) ([]byte, error) {
	e, ok := c.router.Table().ByName(kind, name)
	if !ok {
		return nil, fmt.Errorf("contract %s: no %s named %q", c.name, kind, name)
	}
	if args == nil {
		return e.Selector.Input(nil), nil
	}
	enc, err := codec.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode %s args: %w", name, err)
	}
	return e.Selector.Input(enc), nil
}
