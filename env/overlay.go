// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package env

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/prosopo-io/ink/primitives"
)

// ReadOnly wraps host so that reads and hashing pass through and every write
// fails with ErrReadOnly.
func ReadOnly(host StorageHost) StorageHost {
	if ro, ok := host.(readOnly); ok {
		return ro
	}
	return readOnly{inner: host}
}

type readOnly struct {
	inner StorageHost
}

func (r readOnly) Get(key primitives.Key) ([]byte, error) {
	return r.inner.Get(key)
}

func (r readOnly) Set(primitives.Key, []byte) error {
	return ErrReadOnly
}

func (r readOnly) Clear(primitives.Key) error {
	return ErrReadOnly
}

func (r readOnly) Hash(alg HashAlgorithm, input []byte) []byte {
	return r.inner.Hash(alg, input)
}

type pending struct {
	value   []byte
	cleared bool
}

// Overlay buffers the writes of one call frame on top of a parent store.
// Commit applies them all; Discard drops them all.  Nested frames are
// overlays of overlays.
type Overlay struct {
	parent  StorageHost
	changes map[primitives.Key]pending
}

var _ StorageHost = &Overlay{}

func NewOverlay(parent StorageHost) *Overlay {
	return &Overlay{
		parent:  parent,
		changes: make(map[primitives.Key]pending),
	}
}

func (o *Overlay) Get(key primitives.Key) ([]byte, error) {
	if p, ok := o.changes[key]; ok {
		if p.cleared {
			return nil, ErrKeyNotFound
		}
		return bytes.Clone(p.value), nil
	}
	return o.parent.Get(key)
}

func (o *Overlay) Set(key primitives.Key, value []byte) error {
	o.changes[key] = pending{value: bytes.Clone(value)}
	return nil
}

func (o *Overlay) Clear(key primitives.Key) error {
	o.changes[key] = pending{cleared: true}
	return nil
}

func (o *Overlay) Hash(alg HashAlgorithm, input []byte) []byte {
	return o.parent.Hash(alg, input)
}

// Dirty is the number of slots touched since the overlay was created.
func (o *Overlay) Dirty() int {
	return len(o.changes)
}

// ValidateSet checks a write against the parent, so nested frames report
// a refusal before anything is applied.
func (o *Overlay) ValidateSet(key primitives.Key, value []byte) error {
	if v, ok := o.parent.(Validator); ok {
		return v.ValidateSet(key, value)
	}
	return nil
}

// undo is what a parent slot held before Commit touched it.
type undo struct {
	key     primitives.Key
	value   []byte
	present bool
}

// Commit writes every buffered change to the parent, in key order, and
// empties the overlay.  Either all changes land or none do: writes the
// parent can validate are checked up front, and a failure part way
// through restores the slots already written.  The overlay keeps its
// changes when Commit fails.
func (o *Overlay) Commit() error {
	keys := make([]primitives.Key, 0, len(o.changes))
	for k := range o.changes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})

	if v, ok := o.parent.(Validator); ok {
		for _, k := range keys {
			if p := o.changes[k]; !p.cleared {
				if err := v.ValidateSet(k, p.value); err != nil {
					return fmt.Errorf("commit %s: %w", k, err)
				}
			}
		}
	}

	applied := make([]undo, 0, len(keys))
	for _, k := range keys {
		prev, err := o.parent.Get(k)
		present := err == nil
		if err != nil && !errors.Is(err, ErrKeyNotFound) {
			return o.rollback(applied, fmt.Errorf("commit %s: read previous: %w", k, err))
		}
		p := o.changes[k]
		if p.cleared {
			err = o.parent.Clear(k)
		} else {
			err = o.parent.Set(k, p.value)
		}
		if err != nil {
			return o.rollback(applied, fmt.Errorf("commit %s: %w", k, err))
		}
		applied = append(applied, undo{key: k, value: prev, present: present})
	}
	o.changes = make(map[primitives.Key]pending)
	return nil
}

// rollback restores applied slots, newest first, and returns cause joined
// with any restore failure.
func (o *Overlay) rollback(applied []undo, cause error) error {
	errs := []error{cause}
	for i := len(applied) - 1; i >= 0; i-- {
		u := applied[i]
		var err error
		if u.present {
			err = o.parent.Set(u.key, u.value)
		} else {
			err = o.parent.Clear(u.key)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", u.key, err))
		}
	}
	return errors.Join(errs...)
}

// Discard drops every buffered change.
func (o *Overlay) Discard() {
	o.changes = make(map[primitives.Key]pending)
}
