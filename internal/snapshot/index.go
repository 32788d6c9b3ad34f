// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package snapshot

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/bits"
	"sort"

	"github.com/dgryski/go-farm"

	"github.com/prosopo-io/ink/internal/bitset"
	"github.com/prosopo-io/ink/primitives"
)

type indexEntry struct {
	key primitives.Key
	off uint64
}

// index is a minimal perfect hash from keys to record offsets.  Slots of
// level1 that no key maps to hold 0, which is never a record offset
// because records start after the file header.
type index struct {
	level0 []uint32 // power of 2 size; per-bucket seeds
	level1 []uint64 // power of 2 size >= number of keys; record offsets
}

// nextPow2 returns the next highest power of two above a given number.
func nextPow2(n int) int {
	return 1 << (64 - bits.LeadingZeros64(uint64(n)))
}

type indexBucket struct {
	n    int
	vals []int
}

type bySize []indexBucket

func (s bySize) Len() int           { return len(s) }
func (s bySize) Less(i, j int) bool { return len(s[i].vals) > len(s[j].vals) }
func (s bySize) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// maxSeed bounds the per-bucket seed search; seeds are stored as uint32.
var maxSeed uint64 = math.MaxUint32

var errNoSeed = errors.New("snapshot: couldn't find 32-bit seed")

// buildIndex builds an index using the "Hash, displace, and compress"
// algorithm described in http://cmph.sourceforge.net/papers/esa09.pdf.
// Keys must be distinct.
func buildIndex(entries []indexEntry) (*index, error) {
	var (
		level0        = make([]uint32, nextPow2(len(entries)/4))
		level0Mask    = uint64(len(level0) - 1)
		level1        = make([]uint64, nextPow2(len(entries)))
		level1Mask    = uint64(len(level1) - 1)
		sparseBuckets = make([][]int, len(level0))
	)

	for i, e := range entries {
		n := farm.Hash64WithSeed(e.key[:], 0) & level0Mask
		sparseBuckets[n] = append(sparseBuckets[n], i)
	}
	var buckets []indexBucket
	for n, vals := range sparseBuckets {
		if len(vals) > 0 {
			buckets = append(buckets, indexBucket{n, vals})
		}
	}
	sort.Stable(bySize(buckets))

	occ := bitset.New(int64(len(level1)))
	var tmpOcc []uint64
	for _, bucket := range buckets {
		seed := uint64(1)
	trySeed:
		if seed >= maxSeed {
			return nil, errNoSeed
		}
		tmpOcc = tmpOcc[:0]
		for _, i := range bucket.vals {
			n := farm.Hash64WithSeed(entries[i].key[:], seed) & level1Mask
			if occ.IsSet(int64(n)) {
				for _, n := range tmpOcc {
					occ.Clear(int64(n))
					level1[n] = 0
				}
				seed++
				goto trySeed
			}
			occ.Set(int64(n))
			tmpOcc = append(tmpOcc, n)
			level1[n] = entries[i].off
		}
		level0[bucket.n] = uint32(seed)
	}

	return &index{level0: level0, level1: level1}, nil
}

func (x *index) level0Len() uint64 { return uint64(len(x.level0)) }
func (x *index) level1Len() uint64 { return uint64(len(x.level1)) }

// WriteTo writes level1 then level0, little-endian.  level1 goes first so
// the 64-bit offsets stay 8-byte aligned.
func (x *index) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, x.level1); err != nil {
		return 0, err
	}
	if err := binary.Write(bw, binary.LittleEndian, x.level0); err != nil {
		return 0, err
	}
	if err := bw.Flush(); err != nil {
		return 0, err
	}
	return int64(8*len(x.level1) + 4*len(x.level0)), nil
}

// uint64Slice is a read-only view into a byte array as if it was []uint64
type uint64Slice []byte

// uint32Slice is a read-only view into a byte array as if it was []uint32
type uint32Slice []byte

func (s uint32Slice) Get(off uint64) uint32 {
	return binary.LittleEndian.Uint32(s[off*4 : off*4+4])
}

func (s uint64Slice) Get(off uint64) uint64 {
	return binary.LittleEndian.Uint64(s[off*8 : off*8+8])
}

// flatIndex reads an index in place, usually from mmap'd memory.
type flatIndex struct {
	seeds       uint32Slice
	seedsMask   uint64
	offsets     uint64Slice
	offsetsMask uint64
}

func newFlatIndex(b []byte, level0Len, level1Len uint64) (*flatIndex, error) {
	if level0Len == 0 || level1Len == 0 ||
		level0Len&(level0Len-1) != 0 || level1Len&(level1Len-1) != 0 {
		return nil, fmt.Errorf("index sizes must be powers of 2 (got %d, %d)", level0Len, level1Len)
	}
	if want := level1Len*8 + level0Len*4; uint64(len(b)) != want {
		return nil, fmt.Errorf("bad index length %d (expected %d)", len(b), want)
	}
	return &flatIndex{
		offsets:     uint64Slice(b[:level1Len*8]),
		offsetsMask: level1Len - 1,
		seeds:       uint32Slice(b[level1Len*8:]),
		seedsMask:   level0Len - 1,
	}, nil
}

// MaybeLookup returns the slot key would occupy and the record offset
// stored there.  The record must still be checked against key.
func (x *flatIndex) MaybeLookup(key primitives.Key) (slot, off uint64) {
	// first we hash the key with a fixed seed, giving us the offset
	// of a seed that perfectly hashes into our second-level table
	seed := x.seeds.Get(farm.Hash64WithSeed(key[:], 0) & x.seedsMask)
	slot = farm.Hash64WithSeed(key[:], uint64(seed)) & x.offsetsMask
	return slot, x.offsets.Get(slot)
}

func (x *flatIndex) Slots() uint64 {
	return x.offsetsMask + 1
}
