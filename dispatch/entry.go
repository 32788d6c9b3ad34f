// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package dispatch

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prosopo-io/ink/codec"
	"github.com/prosopo-io/ink/env"
)

// Kind tells constructors from messages.
type Kind uint8

const (
	KindConstructor Kind = iota + 1
	KindMessage
)

func (k Kind) String() string {
	switch k {
	case KindConstructor:
		return "constructor"
	case KindMessage:
		return "message"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Context is what a handler sees of the call besides its storage and
// arguments.
type Context struct {
	// Value is the balance transferred with the call.  It is always zero
	// for handlers that are not payable.
	Value  env.Balance
	Logger zerolog.Logger
}

// NoArgs is the argument type of handlers that take none.  Empty input
// decodes into it.
type NoArgs struct{}

// Unit is the result type of handlers that return nothing.  It encodes as
// empty output.
type Unit struct{}

// invocation is a handler with its arguments already decoded.
type invocation[S any] func(ctx *Context, s S) ([]byte, error)

// Entry is one row of a dispatch table.
type Entry[S any] struct {
	Selector  Selector
	Label     string
	Namespace string
	Kind      Kind
	Mutates   bool
	Payable   bool

	bind func(args []byte) (invocation[S], error)
}

// Name is the label qualified by its namespace.
func (e *Entry[S]) Name() string {
	return ComposeName(e.Namespace, e.Label)
}

// EntryOption configures an Entry.
type EntryOption func(*entryOptions)

type entryOptions struct {
	selector  *Selector
	namespace string
	payable   bool
	mutates   bool
}

// WithSelector overrides the selector derived from the entry's name.
func WithSelector(s Selector) EntryOption {
	return func(o *entryOptions) {
		o.selector = &s
	}
}

// WithNamespace qualifies the label, for handlers that implement a shared
// interface.
func WithNamespace(ns string) EntryOption {
	return func(o *entryOptions) {
		o.namespace = ns
	}
}

// Payable lets the handler accept a nonzero transferred value.
func Payable() EntryOption {
	return func(o *entryOptions) {
		o.payable = true
	}
}

// Mutates marks a message that writes storage.  Messages without it run
// against a read-only view and their state is never written back.
func Mutates() EntryOption {
	return func(o *entryOptions) {
		o.mutates = true
	}
}

func newEntry[S any](kind Kind, label string, opts []EntryOption) Entry[S] {
	var o entryOptions
	for _, opt := range opts {
		opt(&o)
	}
	e := Entry[S]{
		Label:     label,
		Namespace: o.namespace,
		Kind:      kind,
		Mutates:   o.mutates || kind == KindConstructor,
		Payable:   o.payable,
	}
	if o.selector != nil {
		e.Selector = *o.selector
	} else {
		e.Selector = SelectorFor(e.Name())
	}
	return e
}

// Message registers fn as the message called label.
func Message[S, A, R any](label string, fn func(ctx *Context, s S, args A) (R, error), opts ...EntryOption) Entry[S] {
	e := newEntry[S](KindMessage, label, opts)
	e.bind = func(b []byte) (invocation[S], error) {
		args, err := decodeArgs[A](b)
		if err != nil {
			return nil, err
		}
		return func(ctx *Context, s S) ([]byte, error) {
			r, err := fn(ctx, s, args)
			if err != nil {
				return nil, err
			}
			return encodeResult(r)
		}, nil
	}
	return e
}

// Constructor registers fn as the constructor called label.  Constructors
// always write storage and return no output.
func Constructor[S, A any](label string, fn func(ctx *Context, s S, args A) error, opts ...EntryOption) Entry[S] {
	e := newEntry[S](KindConstructor, label, opts)
	e.bind = func(b []byte) (invocation[S], error) {
		args, err := decodeArgs[A](b)
		if err != nil {
			return nil, err
		}
		return func(ctx *Context, s S) ([]byte, error) {
			return nil, fn(ctx, s, args)
		}, nil
	}
	return e
}

func decodeArgs[A any](b []byte) (A, error) {
	var args A
	if _, ok := any(args).(NoArgs); ok && len(b) == 0 {
		return args, nil
	}
	if err := codec.Unmarshal(b, &args); err != nil {
		return args, err
	}
	return args, nil
}

func encodeResult[R any](r R) ([]byte, error) {
	if _, ok := any(r).(Unit); ok {
		return nil, nil
	}
	out, err := codec.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return out, nil
}
