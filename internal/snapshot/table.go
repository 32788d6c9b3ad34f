// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package snapshot persists a flat contract store as a single read-only
// file and serves lookups from it through mmap.
//
// A snapshot file is a 128-byte header, a run of 8-byte aligned records,
// and a minimal perfect hash index over the record keys.  Records are
//
//	checksum uint32 | value length uint32 | key [32]byte | value | padding
//
// where the checksum is the low 32 bits of the farm hash of the value.
// Files are built once by a Builder and never modified; Host layers writes
// on top of one and saves the result as a new file.
package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/prosopo-io/ink/primitives"
)

var ErrCorrupt = errors.New("snapshot: file corrupted")

// Table is an open snapshot file.  It is safe for concurrent reads.
type Table struct {
	path string
	h    fileHeader
	data []byte
	idx  *flatIndex
}

// Open maps the snapshot at path.
func Open(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s): %w", path, err)
	}
	// the mapping outlives the descriptor
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("f.Stat: %w", err)
	}
	if stat.Size() < fileHeaderSize {
		return nil, fmt.Errorf("%w: %s is too short (%d < %d)", ErrCorrupt, path, stat.Size(), fileHeaderSize)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(stat.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap(%s): %w", path, err)
	}
	t, err := newTable(path, data)
	if err != nil {
		_ = unix.Munmap(data)
		return nil, err
	}
	if err := unix.Madvise(data, unix.MADV_RANDOM); err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("madvise: %w", err)
	}
	return t, nil
}

func newTable(path string, data []byte) (*Table, error) {
	t := &Table{path: path, data: data}
	if err := t.h.UnmarshalBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, path, err)
	}
	if t.h.indexStart < fileHeaderSize || t.h.indexStart > uint64(len(data)) {
		return nil, fmt.Errorf("%w: %s: index offset %d out of range", ErrCorrupt, path, t.h.indexStart)
	}
	idx, err := newFlatIndex(data[t.h.indexStart:], t.h.indexLevel0Count, t.h.indexLevel1Count)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, path, err)
	}
	t.idx = idx
	return t, nil
}

func (t *Table) Path() string {
	return t.path
}

// Len is the number of records.
func (t *Table) Len() int {
	return int(t.h.recordCount)
}

// Slots is the size of the index; every key maps to a slot below it.
func (t *Table) Slots() uint64 {
	return t.idx.Slots()
}

// readAt decodes the record at off.  value aliases the mapping.
func (t *Table) readAt(off uint64) (key primitives.Key, value []byte, next uint64, err error) {
	end := t.h.indexStart
	if off < fileHeaderSize || off+recordValueOff > end {
		return key, nil, 0, fmt.Errorf("%w: record offset %d out of range", ErrCorrupt, off)
	}
	header := t.data[off : off+recordHeaderSize]
	expectedChecksum := binary.LittleEndian.Uint32(header[0:4])
	valueLen := uint64(binary.LittleEndian.Uint32(header[4:8]))
	if off+recordValueOff+valueLen > end {
		return key, nil, 0, fmt.Errorf("%w: off %d + valueLen %d beyond records (%d)", ErrCorrupt, off, valueLen, end)
	}
	copy(key[:], t.data[off+recordKeyOff:off+recordValueOff])
	value = t.data[off+recordValueOff : off+recordValueOff+valueLen]
	if sum := checksum(value); sum != expectedChecksum {
		return key, nil, 0, fmt.Errorf("%w: off %d checksum failed (%d != %d)", ErrCorrupt, off, expectedChecksum, sum)
	}
	next = off + recordValueOff + valueLen + padLen(valueLen)
	return key, value, next, nil
}

// lookup returns the index slot for key and, if the key is stored, its
// value.  The value aliases the mapping and must not be modified.
func (t *Table) lookup(key primitives.Key) (slot uint64, value []byte, ok bool, err error) {
	slot, off := t.idx.MaybeLookup(key)
	// an offset of 0 means nothing was ever hashed to this slot
	if off == 0 {
		return slot, nil, false, nil
	}
	stored, value, _, err := t.readAt(off)
	if err != nil {
		return slot, nil, false, err
	}
	// expected when key isn't in the table
	if stored != key {
		return slot, nil, false, nil
	}
	return slot, value, true, nil
}

// Get returns a copy of the value stored at key.
func (t *Table) Get(key primitives.Key) ([]byte, bool, error) {
	_, value, ok, err := t.lookup(key)
	if err != nil || !ok {
		return nil, false, err
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Iter calls fn for every record in file order, stopping at the first
// error.  value aliases the mapping and is only valid during the call.
func (t *Table) Iter(fn func(key primitives.Key, value []byte) error) error {
	off := uint64(fileHeaderSize)
	for i := uint64(0); i < t.h.recordCount; i++ {
		key, value, next, err := t.readAt(off)
		if err != nil {
			return err
		}
		if err := fn(key, value); err != nil {
			return err
		}
		off = next
	}
	return nil
}

// Close unmaps the file.  The table must not be used afterwards.
func (t *Table) Close() error {
	if t.data == nil {
		return nil
	}
	data := t.data
	t.data = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}
