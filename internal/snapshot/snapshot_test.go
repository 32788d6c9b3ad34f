// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prosopo-io/ink/env"
	"github.com/prosopo-io/ink/primitives"
)

type safeBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (s *safeBuffer) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = append(s.buf, p...)
	return len(p), nil
}

func (s *safeBuffer) WriteAt(p []byte, off int64) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if int(off)+len(p) > len(s.buf) {
		return 0, errors.New("writeAt out of bounds")
	}
	return copy(s.buf[off:int(off)+len(p)], p), nil
}

var _ FileWriter = &safeBuffer{}

type testWriter struct {
	inner            FileWriter
	writeShouldError bool
}

func (c *testWriter) Write(p []byte) (n int, err error) {
	if c.writeShouldError {
		return 0, errors.New("write failed")
	}
	return c.inner.Write(p)
}

func (c *testWriter) WriteAt(p []byte, off int64) (n int, err error) {
	if c.writeShouldError {
		return 0, errors.New("write failed")
	}
	return c.inner.WriteAt(p, off)
}

func keyN(i int) primitives.Key {
	var k primitives.Key
	binary.LittleEndian.PutUint64(k[:8], uint64(i))
	k[31] = 0xee
	return k
}

func valueN(i int) []byte {
	return []byte(fmt.Sprintf("value-%d-%s", i, make([]byte, i%13)))
}

func TestFileHeader_RoundTrip(t *testing.T) {
	var buf safeBuffer
	h := newFileHeader()
	n, err := h.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(fileHeaderSize), n)

	require.NoError(t, h.UpdateRecordCount(42, &buf))
	require.NoError(t, h.UpdateIndex(4096, 8, 64, &buf))

	var got fileHeader
	require.NoError(t, got.UnmarshalBytes(buf.buf))
	assert.Equal(t, *h, got)
	assert.Equal(t, uint64(42), got.recordCount)
	assert.Equal(t, uint64(4096), got.indexStart)

	bad := append([]byte(nil), buf.buf...)
	bad[0] ^= 0xff
	assert.Error(t, got.UnmarshalBytes(bad))

	bad = append([]byte(nil), buf.buf...)
	binary.LittleEndian.PutUint32(bad[4:8], 2)
	assert.Error(t, got.UnmarshalBytes(bad))

	assert.Error(t, got.UnmarshalBytes(buf.buf[:10]))
}

func TestNewWriter_Errors(t *testing.T) {
	var fileBytes safeBuffer
	_, err := newWriter(&testWriter{inner: &fileBytes, writeShouldError: true})
	assert.Error(t, err)
}

func TestWriter_Records(t *testing.T) {
	var buf safeBuffer
	w, err := newWriter(&buf)
	require.NoError(t, err)

	off, err := w.Write(keyN(1), []byte("abc"))
	require.NoError(t, err)
	require.Equal(t, uint64(fileHeaderSize), off)
	off, err = w.Write(keyN(2), nil)
	require.NoError(t, err)
	// 8 header + 32 key + 3 value + 5 padding
	require.Equal(t, uint64(fileHeaderSize+48), off)

	_, err = w.Write(keyN(3), make([]byte, maxValueLen+1))
	require.ErrorIs(t, err, ErrValueTooLarge)

	empty, err := buildIndex(nil)
	require.NoError(t, err)
	require.NoError(t, w.Finish(empty))
	_, err = w.Write(keyN(4), nil)
	require.Error(t, err)
	require.Error(t, w.Finish(empty))
}

func TestIndex_Stress(t *testing.T) {
	var entries []indexEntry
	for i := 0; i < 10000; i++ {
		entries = append(entries, indexEntry{key: keyN(i), off: uint64(fileHeaderSize + 8*i)})
	}
	idx, err := buildIndex(entries)
	require.NoError(t, err)
	require.Equal(t, 0, len(idx.level1)&(len(idx.level1)-1))

	// slots abandoned by a seed retry hold no stale offsets
	used := 0
	for _, off := range idx.level1 {
		if off != 0 {
			used++
		}
	}
	require.Equal(t, len(entries), used)

	var buf safeBuffer
	_, err = idx.WriteTo(&buf)
	require.NoError(t, err)
	flat, err := newFlatIndex(buf.buf, idx.level0Len(), idx.level1Len())
	require.NoError(t, err)

	slots := make(map[uint64]bool)
	for _, e := range entries {
		slot, off := flat.MaybeLookup(e.key)
		require.Equal(t, e.off, off)
		require.False(t, slots[slot], "slot %d reused", slot)
		slots[slot] = true
	}

	_, err = newFlatIndex(buf.buf[:len(buf.buf)-4], idx.level0Len(), idx.level1Len())
	require.Error(t, err)
	_, err = newFlatIndex(buf.buf, 3, idx.level1Len())
	require.Error(t, err)
}

func TestIndex_SeedExhausted(t *testing.T) {
	defer func(prev uint64) { maxSeed = prev }(maxSeed)
	maxSeed = 1

	_, err := buildIndex([]indexEntry{{key: keyN(1), off: fileHeaderSize}})
	require.ErrorIs(t, err, errNoSeed)
	_, err = buildIndex(nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "x.snap")
	b, err := NewBuilder(path)
	require.NoError(t, err)
	require.NoError(t, b.Put(keyN(1), []byte("v")))
	_, err = b.Finalize()
	require.ErrorIs(t, err, errNoSeed)
	_, err = os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func buildTable(t *testing.T, n int) *Table {
	path := filepath.Join(t.TempDir(), "state.snap")
	b, err := NewBuilder(path)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.NoError(t, b.Put(keyN(i), valueN(i)))
	}
	require.Equal(t, n, b.Len())
	table, err := b.Finalize()
	require.NoError(t, err)
	t.Cleanup(func() { _ = table.Close() })
	return table
}

func testTable(t *testing.T, n int) {
	table := buildTable(t, n)
	require.Equal(t, n, table.Len())

	for i := 0; i < n; i++ {
		v, ok, err := table.Get(keyN(i))
		require.NoError(t, err)
		require.True(t, ok, "key %d", i)
		require.Equal(t, valueN(i), v)
	}
	for i := n; i < n+100; i++ {
		_, ok, err := table.Get(keyN(i))
		require.NoError(t, err)
		require.False(t, ok)
	}

	var seen int
	require.NoError(t, table.Iter(func(key primitives.Key, value []byte) error {
		require.Equal(t, keyN(seen), key)
		require.Equal(t, valueN(seen), value)
		seen++
		return nil
	}))
	require.Equal(t, n, seen)

	stat, err := os.Stat(table.Path())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0444), stat.Mode().Perm())
}

func TestTableEmpty(t *testing.T) { testTable(t, 0) }
func TestTableSmall(t *testing.T) { testTable(t, 4) }
func TestTableLarge(t *testing.T) { testTable(t, 20000) }

func TestBuilder_Errors(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBuilder(filepath.Join(dir, "x.snap"))
	require.NoError(t, err)
	require.NoError(t, b.Put(keyN(1), nil))
	require.ErrorIs(t, b.Put(keyN(1), nil), ErrDuplicateKey)
	b.Abort()
	require.Error(t, b.Put(keyN(2), nil))

	// abort leaves nothing behind
	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, left)

	_, err = NewBuilder(filepath.Join(dir, "missing", "x.snap"))
	require.Error(t, err)
}

func TestOpen_Corrupt(t *testing.T) {
	table := buildTable(t, 10)
	data, err := os.ReadFile(table.Path())
	require.NoError(t, err)

	dir := t.TempDir()
	write := func(name string, b []byte) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, b, 0644))
		return p
	}

	_, err = Open(write("short", data[:64]))
	require.ErrorIs(t, err, ErrCorrupt)

	bad := append([]byte(nil), data...)
	bad[1] ^= 0xff
	_, err = Open(write("magic", bad))
	require.ErrorIs(t, err, ErrCorrupt)

	// flip a byte in the first value; its checksum no longer matches
	bad = append([]byte(nil), data...)
	bad[fileHeaderSize+recordValueOff] ^= 0xff
	flipped, err := Open(write("value", bad))
	require.NoError(t, err)
	defer func() { _ = flipped.Close() }()
	_, _, err = flipped.Get(keyN(0))
	require.ErrorIs(t, err, ErrCorrupt)
	require.ErrorIs(t, flipped.Iter(func(primitives.Key, []byte) error { return nil }), ErrCorrupt)

	_, err = Open(filepath.Join(dir, "nope"))
	require.Error(t, err)
}

func TestHost(t *testing.T) {
	table := buildTable(t, 100)
	h := NewHost(table)
	require.False(t, h.Dirty())

	v, err := h.Get(keyN(5))
	require.NoError(t, err)
	require.Equal(t, valueN(5), v)
	_, err = h.Get(keyN(500))
	require.ErrorIs(t, err, env.ErrKeyNotFound)

	require.NoError(t, h.Set(keyN(5), []byte("new")))
	require.NoError(t, h.Set(keyN(500), []byte("fresh")))
	require.NoError(t, h.Clear(keyN(6)))
	require.NoError(t, h.Clear(keyN(501)))
	require.True(t, h.Dirty())

	v, err = h.Get(keyN(5))
	require.NoError(t, err)
	require.Equal(t, []byte("new"), v)
	v, err = h.Get(keyN(500))
	require.NoError(t, err)
	require.Equal(t, []byte("fresh"), v)
	_, err = h.Get(keyN(6))
	require.ErrorIs(t, err, env.ErrKeyNotFound)

	// the table itself is untouched
	v, _, err = table.Get(keyN(5))
	require.NoError(t, err)
	require.Equal(t, valueN(5), v)

	// clearing a written key that the table also holds
	require.NoError(t, h.Set(keyN(7), []byte("x")))
	require.NoError(t, h.Clear(keyN(7)))
	_, err = h.Get(keyN(7))
	require.ErrorIs(t, err, env.ErrKeyNotFound)

	entries, err := h.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 100-2+1)

	saved, err := h.Save(filepath.Join(t.TempDir(), "next.snap"))
	require.NoError(t, err)
	defer func() { _ = saved.Close() }()
	require.Equal(t, 99, saved.Len())
	v, ok, err := saved.Get(keyN(5))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("new"), v)
	_, ok, err = saved.Get(keyN(6))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHost_Empty(t *testing.T) {
	h := NewHost(nil)
	_, err := h.Get(keyN(1))
	require.ErrorIs(t, err, env.ErrKeyNotFound)
	require.NoError(t, h.Set(keyN(1), []byte("a")))
	require.NoError(t, h.Clear(keyN(2)))
	require.Equal(t, env.Hash(env.Keccak256, []byte("x")), h.Hash(env.Keccak256, []byte("x")))

	// saving over the source path replaces it
	path := filepath.Join(t.TempDir(), "state.snap")
	first, err := h.Save(path)
	require.NoError(t, err)
	require.Equal(t, 1, first.Len())

	next := NewHost(first)
	require.NoError(t, next.Set(keyN(2), []byte("b")))
	second, err := next.Save(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())
	defer func() { _ = second.Close() }()
	require.Equal(t, 2, second.Len())
}

func BenchmarkTableGet(b *testing.B) {
	path := filepath.Join(b.TempDir(), "bench.snap")
	builder, err := NewBuilder(path)
	require.NoError(b, err)
	const n = 100000
	for i := 0; i < n; i++ {
		require.NoError(b, builder.Put(keyN(i), valueN(i)))
	}
	table, err := builder.Finalize()
	require.NoError(b, err)
	defer func() { _ = table.Close() }()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok, err := table.Get(keyN(i % n)); err != nil || !ok {
			b.Fatalf("missing key %d: %v", i%n, err)
		}
	}
}
