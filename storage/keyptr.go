// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package storage

import (
	"github.com/prosopo-io/ink/primitives"
)

// KeyPtr is a cursor over the keys derived from one base key.  The key at
// offset n is always base+n, so a traversal that visits fields in the same
// order always lands on the same keys.
//
// A KeyPtr belongs to a single traversal: create one, walk it, drop it.
type KeyPtr struct {
	base   primitives.Key
	offset uint64
}

func NewKeyPtr(base primitives.Key) *KeyPtr {
	return &KeyPtr{base: base}
}

// Next returns the key at the current position and moves past it.
func (p *KeyPtr) Next() primitives.Key {
	return p.AdvanceBy(1)
}

// NextFor returns the first key of a value occupying footprint slots and
// moves past all of them.
func (p *KeyPtr) NextFor(footprint uint64) primitives.Key {
	return p.AdvanceBy(footprint)
}

// AdvanceBy returns the key at the current position and skips n keys
// without producing the ones in between.  Callers address the skipped
// range themselves as base.Add(i).
func (p *KeyPtr) AdvanceBy(n uint64) primitives.Key {
	k := p.base.Add(p.offset)
	p.offset += n
	return k
}

// Offset is the number of keys consumed so far.
func (p *KeyPtr) Offset() uint64 {
	return p.offset
}

func (p *KeyPtr) Base() primitives.Key {
	return p.base
}
