// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package storage maps typed contract state onto the host's flat key/value
// store.
//
// There are two ways a value can occupy the store.  A packed value is
// encoded in full at a single key.  A spread value is a composite whose
// fields each live at their own key; the keys come from walking a KeyPtr
// over the fields in declaration order.  Every spread type has a static
// footprint, the number of keys one walk over it consumes.
//
// Field order is part of the storage format.  Reordering the fields of a
// stored struct moves them to different keys; nothing detects that at
// runtime.
package storage

import (
	"errors"
	"fmt"

	"github.com/prosopo-io/ink/env"
	"github.com/prosopo-io/ink/primitives"
)

// Layout selects how a container puts its contents into storage.
type Layout uint8

const (
	// LayoutPacked encodes the whole value at one key.
	LayoutPacked Layout = iota + 1
	// LayoutSpread gives each element or field its own key.
	LayoutSpread
)

func (l Layout) String() string {
	switch l {
	case LayoutPacked:
		return "packed"
	case LayoutSpread:
		return "spread"
	default:
		return fmt.Sprintf("Layout(%d)", uint8(l))
	}
}

var (
	ErrFootprintMismatch = errors.New("storage: keys consumed differ from footprint")
	ErrBadLayout         = errors.New("storage: unknown layout")
)

// RootKey is where a contract's top-level storage struct starts.
var RootKey = primitives.Key{}

// Spread is implemented by every type that can sit in a spread position.
// Each method must consume exactly Footprint() keys from ptr.
type Spread interface {
	// Footprint is the number of keys the type occupies.  It must not
	// depend on the value's contents.
	Footprint() uint64
	// AllocateSpread prepares a fresh value for keys that have never been
	// written, without reading storage.
	AllocateSpread(host env.StorageHost, ptr *KeyPtr) error
	// PullSpread loads the value from storage.
	PullSpread(host env.StorageHost, ptr *KeyPtr) error
	// PushSpread writes the value to storage.
	PushSpread(host env.StorageHost, ptr *KeyPtr) error
	// ClearSpread empties the value's slots.
	ClearSpread(host env.StorageHost, ptr *KeyPtr) error
}

func checked(op string, s Spread, ptr *KeyPtr, fn func() error) error {
	start := ptr.Offset()
	if err := fn(); err != nil {
		return err
	}
	if used := ptr.Offset() - start; used != s.Footprint() {
		return fmt.Errorf("%w: %s %T consumed %d keys, footprint is %d",
			ErrFootprintMismatch, op, s, used, s.Footprint())
	}
	return nil
}

// AllocateSpread calls s.AllocateSpread and verifies the footprint.
func AllocateSpread(host env.StorageHost, ptr *KeyPtr, s Spread) error {
	return checked("allocate", s, ptr, func() error { return s.AllocateSpread(host, ptr) })
}

// PullSpread calls s.PullSpread and verifies the footprint.
func PullSpread(host env.StorageHost, ptr *KeyPtr, s Spread) error {
	return checked("pull", s, ptr, func() error { return s.PullSpread(host, ptr) })
}

// PushSpread calls s.PushSpread and verifies the footprint.
func PushSpread(host env.StorageHost, ptr *KeyPtr, s Spread) error {
	return checked("push", s, ptr, func() error { return s.PushSpread(host, ptr) })
}

// ClearSpread calls s.ClearSpread and verifies the footprint.
func ClearSpread(host env.StorageHost, ptr *KeyPtr, s Spread) error {
	return checked("clear", s, ptr, func() error { return s.ClearSpread(host, ptr) })
}

func AllocateSpreadRoot(host env.StorageHost, root primitives.Key, s Spread) error {
	return AllocateSpread(host, NewKeyPtr(root), s)
}

func PullSpreadRoot(host env.StorageHost, root primitives.Key, s Spread) error {
	return PullSpread(host, NewKeyPtr(root), s)
}

func PushSpreadRoot(host env.StorageHost, root primitives.Key, s Spread) error {
	return PushSpread(host, NewKeyPtr(root), s)
}

func ClearSpreadRoot(host env.StorageHost, root primitives.Key, s Spread) error {
	return ClearSpread(host, NewKeyPtr(root), s)
}

// Composite helpers.  A struct implements Spread by listing its fields, in
// declaration order, to these.

// FieldsFootprint sums the footprints of fields.
func FieldsFootprint(fields ...Spread) uint64 {
	var n uint64
	for _, f := range fields {
		n += f.Footprint()
	}
	return n
}

func AllocateFields(host env.StorageHost, ptr *KeyPtr, fields ...Spread) error {
	for i, f := range fields {
		if err := AllocateSpread(host, ptr, f); err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
	}
	return nil
}

func PullFields(host env.StorageHost, ptr *KeyPtr, fields ...Spread) error {
	for i, f := range fields {
		if err := PullSpread(host, ptr, f); err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
	}
	return nil
}

func PushFields(host env.StorageHost, ptr *KeyPtr, fields ...Spread) error {
	for i, f := range fields {
		if err := PushSpread(host, ptr, f); err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
	}
	return nil
}

func ClearFields(host env.StorageHost, ptr *KeyPtr, fields ...Spread) error {
	for i, f := range fields {
		if err := ClearSpread(host, ptr, f); err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
	}
	return nil
}
