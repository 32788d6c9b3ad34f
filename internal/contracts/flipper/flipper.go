// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package flipper is the smallest useful contract: one stored boolean.
package flipper

import (
	"github.com/prosopo-io/ink"
	"github.com/prosopo-io/ink/dispatch"
	"github.com/prosopo-io/ink/env"
	"github.com/prosopo-io/ink/storage"
)

const Name = "flipper"

// FlipSelector is pinned so existing callers keep working if the message
// is renamed.
var FlipSelector = dispatch.SelectorFromUint32(0x11223344)

type Flipper struct {
	Value storage.Cell[bool]
}

func (f *Flipper) Footprint() uint64 {
	return f.Value.Footprint()
}

func (f *Flipper) AllocateSpread(host env.StorageHost, ptr *storage.KeyPtr) error {
	return storage.AllocateFields(host, ptr, &f.Value)
}

func (f *Flipper) PullSpread(host env.StorageHost, ptr *storage.KeyPtr) error {
	return storage.PullFields(host, ptr, &f.Value)
}

func (f *Flipper) PushSpread(host env.StorageHost, ptr *storage.KeyPtr) error {
	return storage.PushFields(host, ptr, &f.Value)
}

func (f *Flipper) ClearSpread(host env.StorageHost, ptr *storage.KeyPtr) error {
	return storage.ClearFields(host, ptr, &f.Value)
}

type NewArgs struct {
	_         struct{} `cbor:",toarray"`
	InitValue bool
}

func newFlipper(_ *dispatch.Context, f *Flipper, args NewArgs) error {
	f.Value.Set(args.InitValue)
	return nil
}

func newDefault(*dispatch.Context, *Flipper, dispatch.NoArgs) error {
	return nil
}

func flip(_ *dispatch.Context, f *Flipper, _ dispatch.NoArgs) (dispatch.Unit, error) {
	f.Value.Set(!f.Value.Get())
	return dispatch.Unit{}, nil
}

func get(_ *dispatch.Context, f *Flipper, _ dispatch.NoArgs) (bool, error) {
	return f.Value.Get(), nil
}

// New returns the flipper contract.
func New(opts ...ink.Option) (*ink.Contract[*Flipper], error) {
	return ink.New(Name, func() *Flipper { return &Flipper{} }, []dispatch.Entry[*Flipper]{
		dispatch.Constructor("new", newFlipper),
		dispatch.Constructor("default", newDefault),
		dispatch.Message("flip", flip, dispatch.WithSelector(FlipSelector), dispatch.Mutates()),
		dispatch.Message("get", get),
	}, opts...)
}
