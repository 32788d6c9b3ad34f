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

	"github.com/dgryski/go-farm"

	"github.com/prosopo-io/ink/primitives"
)

const (
	defaultBufferSize = 4 * 1024 * 1024
	// 32-bit checksum of the value + 32-bit value length
	recordHeaderSize = 4 + 4
	recordKeyOff     = recordHeaderSize
	recordValueOff   = recordHeaderSize + primitives.KeySize

	maxValueLen = 1 << 24
)

var (
	ErrValueTooLarge = fmt.Errorf("snapshot: values are limited to %d bytes", maxValueLen)
	errFinished      = errors.New("snapshot: writer already finished")
)

type nopWriter struct{}

func (nopWriter) Write([]byte) (int, error) {
	return 0, io.EOF
}

// FileWriter is usually an *os.File, but specified as an interface for easier testing.
type FileWriter interface {
	io.Writer
	io.WriterAt
}

func checksum(value []byte) uint32 {
	return uint32(farm.Hash64(value))
}

func padLen(n uint64) uint64 {
	return (8 - n%8) % 8
}

// writer appends 8-byte aligned records after a file header, then the
// index, then goes back and fills in the header.
type writer struct {
	f        FileWriter
	h        *fileHeader
	w        *bufio.Writer
	off      uint64
	count    uint64
	finished bool
}

func newWriter(f FileWriter) (*writer, error) {
	w := &writer{
		f: f,
		h: newFileHeader(),
		w: bufio.NewWriterSize(f, defaultBufferSize),
	}
	headerLen, err := w.h.WriteTo(w.w)
	if err != nil {
		return nil, fmt.Errorf("fileHeader.WriteTo: %w", err)
	}
	w.off = uint64(headerLen)

	// try to expose errors when writing to the backing file early
	if err := w.w.Flush(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}
	return w, nil
}

// Write appends a record and returns its offset.
func (w *writer) Write(key primitives.Key, value []byte) (off uint64, err error) {
	if w.finished {
		return 0, errFinished
	}
	if len(value) > maxValueLen {
		return 0, fmt.Errorf("%w: %s has %d", ErrValueTooLarge, key, len(value))
	}
	off = w.off

	var header [recordHeaderSize]byte
	binary.LittleEndian.PutUint32(header[0:4], checksum(value))
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(value)))

	var zeroBuf [8]byte
	pad := padLen(uint64(len(value)))
	for _, chunk := range [][]byte{header[:], key[:], value, zeroBuf[:pad]} {
		if _, err := w.w.Write(chunk); err != nil {
			return 0, fmt.Errorf("bufio.Write: %w", err)
		}
	}

	recordLen := uint64(recordValueOff) + uint64(len(value)) + pad
	if recordLen%8 != 0 {
		panic(fmt.Errorf("invariant broken: expected record to be 64-bit aligned, but has length %d", recordLen))
	}
	w.off += recordLen
	w.count++
	return off, nil
}

// Finish writes the index built from entries and completes the header.
func (w *writer) Finish(idx *index) error {
	if w.finished {
		return errFinished
	}
	w.finished = true
	defer w.w.Reset(nopWriter{})

	indexStart := w.off
	if _, err := idx.WriteTo(w.w); err != nil {
		return fmt.Errorf("index.WriteTo: %w", err)
	}
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("bufio.Flush: %w", err)
	}
	if err := w.h.UpdateIndex(indexStart, idx.level0Len(), idx.level1Len(), w.f); err != nil {
		return fmt.Errorf("h.UpdateIndex: %w", err)
	}
	return w.h.UpdateRecordCount(w.count, w.f)
}
