// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package hashmap provides Map, a key/value mapping whose entries are spread
// across the whole key space.
//
// A Map occupies a single slot of its owner's layout, its root, where the
// entry count is stored.  Each entry lives at
//
//	H("ink simplehashmap" || root || H(encode(key)))
//
// so two maps with different roots never share an address for the same
// logical key.  There is no probing: a hash collision between two entries
// would make them share a slot, and nothing detects that.
package hashmap

import (
	"errors"
	"fmt"

	"github.com/prosopo-io/ink/codec"
	"github.com/prosopo-io/ink/env"
	"github.com/prosopo-io/ink/primitives"
	"github.com/prosopo-io/ink/storage"
)

// Prefix is the domain separator mixed into every entry address.
const Prefix = "ink simplehashmap"

var (
	ErrUnallocated   = errors.New("hashmap: map has no root key")
	ErrRootMismatch  = errors.New("hashmap: map is already bound to a different root")
	ErrBadHasher     = errors.New("hashmap: hasher must produce a 32-byte digest")
	// ErrLengthCorrupt means an entry was found while the stored length
	// is zero, so the length no longer counts the entries.
	ErrLengthCorrupt = errors.New("hashmap: entry present but length is zero")
)

type Option func(*options)

type options struct {
	hasher env.HashAlgorithm
}

// WithHasher selects the hash used for address derivation.  The algorithm
// must produce a digest as wide as a key.
func WithHasher(alg env.HashAlgorithm) Option {
	return func(o *options) {
		o.hasher = alg
	}
}

// Map is a collision-resistant mapping from K to V.  The zero value is not
// usable; call New.  Storage access goes through the host the map was bound
// to when it was allocated or pulled.
type Map[K any, V any] struct {
	root   primitives.Key
	rooted bool
	len    uint32
	host   env.StorageHost
	hasher env.HashAlgorithm
}

var _ storage.Spread = &Map[string, uint64]{}

// New returns a map with no root.  Lookups on it find nothing and inserts
// fail until it is allocated or pulled from storage.  New panics if a
// hasher with the wrong digest width is requested.
func New[K any, V any](opts ...Option) *Map[K, V] {
	o := options{hasher: env.Blake2x256}
	for _, opt := range opts {
		opt(&o)
	}
	if o.hasher.Size() != primitives.KeySize {
		panic(fmt.Errorf("%w: %s", ErrBadHasher, o.hasher))
	}
	return &Map[K, V]{hasher: o.hasher}
}

// RootKey returns the map's root and whether it has been assigned.
func (m *Map[K, V]) RootKey() (primitives.Key, bool) {
	return m.root, m.rooted
}

// Len is the number of entries.
func (m *Map[K, V]) Len() uint32 {
	return m.len
}

// StorageKey returns the address of k's entry.  ok is false if the map has
// no root yet.
func (m *Map[K, V]) StorageKey(k K) (at primitives.Key, ok bool, err error) {
	if !m.rooted {
		return at, false, nil
	}
	enc, err := codec.Marshal(k)
	if err != nil {
		return at, false, fmt.Errorf("encode key: %w", err)
	}
	return Address(m.host, m.hasher, m.root, enc), true, nil
}

// Address derives the slot for an encoded logical key under root.
func Address(host env.StorageHost, alg env.HashAlgorithm, root primitives.Key, encodedKey []byte) primitives.Key {
	keyHash := host.Hash(alg, encodedKey)

	buf := make([]byte, 0, len(Prefix)+primitives.KeySize+len(keyHash))
	buf = append(buf, Prefix...)
	buf = append(buf, root[:]...)
	buf = append(buf, keyHash...)

	var at primitives.Key
	copy(at[:], host.Hash(alg, buf))
	return at
}

// Get returns the value stored for k.
func (m *Map[K, V]) Get(k K) (v V, ok bool, err error) {
	at, ok, err := m.StorageKey(k)
	if err != nil || !ok {
		return v, false, err
	}
	return storage.PullPackedOpt[V](m.host, at)
}

func (m *Map[K, V]) Contains(k K) (bool, error) {
	_, ok, err := m.Get(k)
	return ok, err
}

// Insert stores v for k, replacing any previous value.
func (m *Map[K, V]) Insert(k K, v V) error {
	at, ok, err := m.StorageKey(k)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnallocated
	}
	_, present, err := storage.PullPackedOpt[V](m.host, at)
	if err != nil {
		return err
	}
	if err := storage.PushPacked(m.host, at, v); err != nil {
		return err
	}
	if !present {
		m.len++
	}
	return nil
}

// Erase removes k's entry.  Erasing an absent key does nothing.
func (m *Map[K, V]) Erase(k K) error {
	at, ok, err := m.StorageKey(k)
	if err != nil || !ok {
		return err
	}
	_, present, err := storage.PullPackedOpt[V](m.host, at)
	if err != nil || !present {
		return err
	}
	if m.len == 0 {
		return fmt.Errorf("%w: erase at %s", ErrLengthCorrupt, at)
	}
	if err := storage.ClearPacked(m.host, at); err != nil {
		return err
	}
	m.len--
	return nil
}

// Take removes k's entry and returns what it held.  The slot is cleared
// whether or not it was occupied.
func (m *Map[K, V]) Take(k K) (v V, ok bool, err error) {
	at, rooted, err := m.StorageKey(k)
	if err != nil || !rooted {
		return v, false, err
	}
	v, ok, err = storage.PullPackedOpt[V](m.host, at)
	if err != nil {
		return v, false, err
	}
	if ok && m.len == 0 {
		var zero V
		return zero, false, fmt.Errorf("%w: take at %s", ErrLengthCorrupt, at)
	}
	if err := storage.ClearPacked(m.host, at); err != nil {
		return v, false, err
	}
	if ok {
		m.len--
	}
	return v, ok, nil
}

func (m *Map[K, V]) bind(host env.StorageHost, root primitives.Key) error {
	if m.rooted && m.root != root {
		return fmt.Errorf("%w: have %s, got %s", ErrRootMismatch, m.root, root)
	}
	m.root = root
	m.rooted = true
	m.host = host
	return nil
}

func (m *Map[K, V]) Footprint() uint64 {
	return 1
}

// AllocateSpread binds a fresh, empty map to the next key.
func (m *Map[K, V]) AllocateSpread(host env.StorageHost, ptr *storage.KeyPtr) error {
	if err := m.bind(host, ptr.NextFor(m.Footprint())); err != nil {
		return err
	}
	m.len = 0
	return nil
}

// PullSpread binds the map to the next key and loads its entry count.
// Entries themselves are read on demand.
func (m *Map[K, V]) PullSpread(host env.StorageHost, ptr *storage.KeyPtr) error {
	root := ptr.NextFor(m.Footprint())
	n, err := storage.PullPacked[uint32](host, root)
	if err != nil {
		return fmt.Errorf("map length: %w", err)
	}
	if err := m.bind(host, root); err != nil {
		return err
	}
	m.len = n
	return nil
}

// PushSpread stores the entry count.  Entries are written as they change.
func (m *Map[K, V]) PushSpread(host env.StorageHost, ptr *storage.KeyPtr) error {
	return storage.PushPacked(host, ptr.NextFor(m.Footprint()), m.len)
}

// ClearSpread clears the entry count.  Entries are left in place; callers
// that need them gone must Erase them first.
func (m *Map[K, V]) ClearSpread(host env.StorageHost, ptr *storage.KeyPtr) error {
	return storage.ClearPacked(host, ptr.NextFor(m.Footprint()))
}
