// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bitset is a fixed-length bitmap.  Out-of-range positions read as
// unset and writes to them are ignored.
package bitset

import (
	"math/bits"
)

// Bitset is an in-memory bitmap that is conceptually similar to []bool, but more memory efficient.
type Bitset struct {
	bits   []uint64
	length int64
}

// New returns a bitset of length bits, all clear.
func New(length int64) *Bitset {
	if length < 0 {
		length = 0
	}
	return &Bitset{
		bits:   make([]uint64, (length+63)/64),
		length: length,
	}
}

func getOffsets(off int64) (sliceOff int64, bitOff uint64) {
	return off / 64, uint64(off) % 64
}

func (b *Bitset) inRange(off int64) bool {
	return off >= 0 && off < b.length
}

// Set sets the bit at position off to 1.
func (b *Bitset) Set(off int64) {
	if !b.inRange(off) {
		return
	}
	sliceOff, bitOff := getOffsets(off)
	b.bits[sliceOff] |= 1 << bitOff
}

// Clear sets the bit at position off to 0.
func (b *Bitset) Clear(off int64) {
	if !b.inRange(off) {
		return
	}
	sliceOff, bitOff := getOffsets(off)
	b.bits[sliceOff] &^= 1 << bitOff
}

// IsSet returns true if the bit at position off is 1.
func (b *Bitset) IsSet(off int64) bool {
	if !b.inRange(off) {
		return false
	}
	sliceOff, bitOff := getOffsets(off)
	return b.bits[sliceOff]&(1<<bitOff) != 0
}

func (b *Bitset) Len() int64 {
	return b.length
}

// Count returns the number of set bits.
func (b *Bitset) Count() int64 {
	var n int
	for _, u64 := range b.bits {
		n += bits.OnesCount64(u64)
	}
	return int64(n)
}

// Reset clears every bit.
func (b *Bitset) Reset() {
	for i := range b.bits {
		b.bits[i] = 0
	}
}
