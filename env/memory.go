// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package env

import (
	"bytes"
	"errors"
	"sort"

	"github.com/prosopo-io/ink/primitives"
)

// Entry is one slot of a flat store.
type Entry struct {
	Key   primitives.Key
	Value []byte
}

// MemoryStore is a StorageHost backed by a Go map.  Values are copied on
// the way in and out, like they would be across a real host boundary.
type MemoryStore struct {
	slots  map[primitives.Key][]byte
	writes uint64
}

var _ StorageHost = &MemoryStore{}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[primitives.Key][]byte)}
}

func (s *MemoryStore) Get(key primitives.Key) ([]byte, error) {
	v, ok := s.slots[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return bytes.Clone(v), nil
}

func (s *MemoryStore) Set(key primitives.Key, value []byte) error {
	s.slots[key] = bytes.Clone(value)
	s.writes++
	return nil
}

func (s *MemoryStore) Clear(key primitives.Key) error {
	delete(s.slots, key)
	s.writes++
	return nil
}

func (s *MemoryStore) Hash(alg HashAlgorithm, input []byte) []byte {
	return Hash(alg, input)
}

// Len is the number of occupied slots.
func (s *MemoryStore) Len() int {
	return len(s.slots)
}

// Writes counts Set and Clear calls over the store's lifetime.
func (s *MemoryStore) Writes() uint64 {
	return s.writes
}

// Entries returns every slot, ordered by key.
func (s *MemoryStore) Entries() []Entry {
	entries := make([]Entry, 0, len(s.slots))
	for k, v := range s.slots {
		entries = append(entries, Entry{Key: k, Value: bytes.Clone(v)})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].Key[:], entries[j].Key[:]) < 0
	})
	return entries
}

var errAlreadyReturned = errors.New("env: ReturnValue called twice")

// Call is a CallHost for a single execution with a fixed input and value.
// It records what the contract handed back.
type Call struct {
	input    []byte
	value    Balance
	flags    ReturnFlags
	output   []byte
	returned bool
}

var _ CallHost = &Call{}

func NewCall(input []byte, value Balance) *Call {
	return &Call{input: bytes.Clone(input), value: value}
}

func (c *Call) ReadInput() ([]byte, error) {
	return bytes.Clone(c.input), nil
}

func (c *Call) ReturnValue(flags ReturnFlags, output []byte) {
	if c.returned {
		panic(errAlreadyReturned)
	}
	c.returned = true
	c.flags = flags
	c.output = bytes.Clone(output)
}

func (c *Call) TransferredValue() Balance {
	return c.value
}

// Returned reports whether the contract called ReturnValue, and with what.
func (c *Call) Returned() (flags ReturnFlags, output []byte, ok bool) {
	return c.flags, c.output, c.returned
}
