// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package snapshot

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/prosopo-io/ink/env"
	"github.com/prosopo-io/ink/internal/bitset"
	"github.com/prosopo-io/ink/primitives"
)

// Host is an env.StorageHost over a snapshot.  Writes stay in memory:
// values in a map, and cleared snapshot records as bits over the index
// slots.  Save persists the combined view.
type Host struct {
	table   *Table
	writes  map[primitives.Key][]byte
	cleared *bitset.Bitset
}

var (
	_ env.StorageHost = &Host{}
	_ env.Validator   = &Host{}
)

// NewHost returns a host over table.  A nil table is an empty store.
func NewHost(table *Table) *Host {
	h := &Host{
		table:  table,
		writes: make(map[primitives.Key][]byte),
	}
	if table != nil {
		h.cleared = bitset.New(int64(table.Slots()))
	} else {
		h.cleared = bitset.New(0)
	}
	return h
}

func (h *Host) Get(key primitives.Key) ([]byte, error) {
	if v, ok := h.writes[key]; ok {
		return bytes.Clone(v), nil
	}
	if h.table == nil {
		return nil, env.ErrKeyNotFound
	}
	slot, value, ok, err := h.table.lookup(key)
	if err != nil {
		return nil, fmt.Errorf("snapshot lookup %s: %w", key, err)
	}
	if !ok || h.cleared.IsSet(int64(slot)) {
		return nil, env.ErrKeyNotFound
	}
	return bytes.Clone(value), nil
}

// stored returns the index slot of key if the snapshot holds it.
func (h *Host) stored(key primitives.Key) (int64, bool, error) {
	if h.table == nil {
		return 0, false, nil
	}
	slot, _, ok, err := h.table.lookup(key)
	if err != nil {
		return 0, false, fmt.Errorf("snapshot lookup %s: %w", key, err)
	}
	return int64(slot), ok, nil
}

// ValidateSet reports whether value can be stored in a snapshot.
func (h *Host) ValidateSet(key primitives.Key, value []byte) error {
	if len(value) > maxValueLen {
		return fmt.Errorf("%w: %s has %d", ErrValueTooLarge, key, len(value))
	}
	return nil
}

func (h *Host) Set(key primitives.Key, value []byte) error {
	if err := h.ValidateSet(key, value); err != nil {
		return err
	}
	slot, ok, err := h.stored(key)
	if err != nil {
		return err
	}
	if ok {
		h.cleared.Set(slot)
	}
	h.writes[key] = bytes.Clone(value)
	return nil
}

func (h *Host) Clear(key primitives.Key) error {
	slot, ok, err := h.stored(key)
	if err != nil {
		return err
	}
	if ok {
		h.cleared.Set(slot)
	}
	delete(h.writes, key)
	return nil
}

func (h *Host) Hash(alg env.HashAlgorithm, input []byte) []byte {
	return env.Hash(alg, input)
}

// Dirty reports whether anything was written since the host was created.
func (h *Host) Dirty() bool {
	return len(h.writes) > 0 || h.cleared.Count() > 0
}

// Entries returns the current contents ordered by key.
func (h *Host) Entries() ([]env.Entry, error) {
	var entries []env.Entry
	if h.table != nil {
		err := h.table.Iter(func(key primitives.Key, value []byte) error {
			slot, _, _, err := h.table.lookup(key)
			if err != nil {
				return err
			}
			// superseded or cleared
			if h.cleared.IsSet(int64(slot)) {
				return nil
			}
			entries = append(entries, env.Entry{Key: key, Value: bytes.Clone(value)})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	for k, v := range h.writes {
		entries = append(entries, env.Entry{Key: k, Value: bytes.Clone(v)})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].Key[:], entries[j].Key[:]) < 0
	})
	return entries, nil
}

// Save writes the current contents to a new snapshot at path and opens
// it.  path may be the file the host was opened from.
func (h *Host) Save(path string, opts ...BuilderOption) (*Table, error) {
	entries, err := h.Entries()
	if err != nil {
		return nil, err
	}
	b, err := NewBuilder(path, opts...)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if err := b.Put(e.Key, e.Value); err != nil {
			b.Abort()
			return nil, err
		}
	}
	return b.Finalize()
}
