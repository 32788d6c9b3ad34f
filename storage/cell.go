// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package storage

import (
	"github.com/prosopo-io/ink/env"
)

// Cell holds a packed value in a spread position: one key, full encoding.
type Cell[T any] struct {
	value T
}

var _ Spread = &Cell[bool]{}

func NewCell[T any](v T) Cell[T] {
	return Cell[T]{value: v}
}

func (c *Cell[T]) Get() T {
	return c.value
}

func (c *Cell[T]) Set(v T) {
	c.value = v
}

func (c *Cell[T]) Footprint() uint64 {
	return 1
}

func (c *Cell[T]) AllocateSpread(_ env.StorageHost, ptr *KeyPtr) error {
	ptr.Next()
	var zero T
	c.value = zero
	return nil
}

func (c *Cell[T]) PullSpread(host env.StorageHost, ptr *KeyPtr) error {
	v, err := PullPacked[T](host, ptr.Next())
	if err != nil {
		return err
	}
	c.value = v
	return nil
}

func (c *Cell[T]) PushSpread(host env.StorageHost, ptr *KeyPtr) error {
	return PushPacked(host, ptr.Next(), c.value)
}

func (c *Cell[T]) ClearSpread(host env.StorageHost, ptr *KeyPtr) error {
	return ClearPacked(host, ptr.Next())
}
