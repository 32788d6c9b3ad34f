// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package storage

import (
	"errors"
	"fmt"

	"github.com/prosopo-io/ink/env"
)

var (
	ErrIndexOutOfBounds = errors.New("storage: index out of bounds")
	ErrLengthMismatch   = errors.New("storage: stored length differs from declared length")
)

// Array is a fixed-length sequence whose storage layout is chosen when it
// is created.  Packed puts the whole array at one key; spread gives element
// i the key base+i, so touching one element costs one slot.
type Array[T any] struct {
	layout Layout
	elems  []T
}

var _ Spread = &Array[uint64]{}

// NewArray returns an array of n zero values.  It panics on an unknown
// layout, which is a programming error.
func NewArray[T any](n int, layout Layout) *Array[T] {
	if layout != LayoutPacked && layout != LayoutSpread {
		panic(fmt.Errorf("%w: %d", ErrBadLayout, layout))
	}
	return &Array[T]{
		layout: layout,
		elems:  make([]T, n),
	}
}

func (a *Array[T]) Layout() Layout {
	return a.layout
}

func (a *Array[T]) Len() int {
	return len(a.elems)
}

func (a *Array[T]) Get(i int) (T, error) {
	if i < 0 || i >= len(a.elems) {
		var zero T
		return zero, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfBounds, i, len(a.elems))
	}
	return a.elems[i], nil
}

func (a *Array[T]) Set(i int, v T) error {
	if i < 0 || i >= len(a.elems) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfBounds, i, len(a.elems))
	}
	a.elems[i] = v
	return nil
}

// Values returns a copy of the elements.
func (a *Array[T]) Values() []T {
	out := make([]T, len(a.elems))
	copy(out, a.elems)
	return out
}

func (a *Array[T]) Footprint() uint64 {
	if a.layout == LayoutPacked {
		return 1
	}
	return uint64(len(a.elems))
}

func (a *Array[T]) AllocateSpread(_ env.StorageHost, ptr *KeyPtr) error {
	ptr.AdvanceBy(a.Footprint())
	var zero T
	for i := range a.elems {
		a.elems[i] = zero
	}
	return nil
}

func (a *Array[T]) PullSpread(host env.StorageHost, ptr *KeyPtr) error {
	if a.layout == LayoutPacked {
		elems, err := PullPacked[[]T](host, ptr.Next())
		if err != nil {
			return err
		}
		if len(elems) != len(a.elems) {
			return fmt.Errorf("%w: stored %d, declared %d", ErrLengthMismatch, len(elems), len(a.elems))
		}
		copy(a.elems, elems)
		return nil
	}

	base := ptr.AdvanceBy(uint64(len(a.elems)))
	for i := range a.elems {
		v, err := PullPacked[T](host, base.Add(uint64(i)))
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		a.elems[i] = v
	}
	return nil
}

func (a *Array[T]) PushSpread(host env.StorageHost, ptr *KeyPtr) error {
	if a.layout == LayoutPacked {
		return PushPacked(host, ptr.Next(), a.elems)
	}

	base := ptr.AdvanceBy(uint64(len(a.elems)))
	for i, v := range a.elems {
		if err := PushPacked(host, base.Add(uint64(i)), v); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

func (a *Array[T]) ClearSpread(host env.StorageHost, ptr *KeyPtr) error {
	if a.layout == LayoutPacked {
		return ClearPacked(host, ptr.Next())
	}

	base := ptr.AdvanceBy(uint64(len(a.elems)))
	for i := range a.elems {
		if err := ClearPacked(host, base.Add(uint64(i))); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}
