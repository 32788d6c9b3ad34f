// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package snapshot

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	magicSnapshotHeader = 0x1A4B0C5E
	fileFormatVersion   = 1
	// the header is the minimum cache-width we expect to see
	fileHeaderSize = 128

	headerRecordCountOff = 8
	headerIndexOff       = 16
)

type fileHeader struct {
	magic            uint32
	formatVersion    uint32
	recordCount      uint64
	indexStart       uint64
	indexLevel0Count uint64
	indexLevel1Count uint64
}

func newFileHeader() *fileHeader {
	return &fileHeader{
		magic:         magicSnapshotHeader,
		formatVersion: fileFormatVersion,
	}
}

func (h *fileHeader) MarshalBytes() []byte {
	buf := make([]byte, fileHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.formatVersion)
	binary.LittleEndian.PutUint64(buf[8:16], h.recordCount)
	binary.LittleEndian.PutUint64(buf[16:24], h.indexStart)
	binary.LittleEndian.PutUint64(buf[24:32], h.indexLevel0Count)
	binary.LittleEndian.PutUint64(buf[32:40], h.indexLevel1Count)
	return buf
}

func (h *fileHeader) WriteTo(w io.Writer) (n int64, err error) {
	written, err := w.Write(h.MarshalBytes())
	if err != nil {
		return int64(written), fmt.Errorf("write: %w", err)
	}
	return int64(written), nil
}

func (h *fileHeader) UpdateRecordCount(n uint64, w io.WriterAt) error {
	h.recordCount = n

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], h.recordCount)
	if _, err := w.WriteAt(buf[:], headerRecordCountOff); err != nil {
		return fmt.Errorf("f.WriteAt: %w", err)
	}
	return nil
}

func (h *fileHeader) UpdateIndex(start, level0Count, level1Count uint64, w io.WriterAt) error {
	h.indexStart = start
	h.indexLevel0Count = level0Count
	h.indexLevel1Count = level1Count

	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:8], start)
	binary.LittleEndian.PutUint64(buf[8:16], level0Count)
	binary.LittleEndian.PutUint64(buf[16:24], level1Count)
	if _, err := w.WriteAt(buf[:], headerIndexOff); err != nil {
		return fmt.Errorf("f.WriteAt: %w", err)
	}
	return nil
}

func (h *fileHeader) UnmarshalBytes(headerBytes []byte) error {
	if len(headerBytes) < fileHeaderSize {
		return fmt.Errorf("header too short: %d < %d", len(headerBytes), fileHeaderSize)
	}
	headerBytes = headerBytes[:fileHeaderSize]

	h.magic = binary.LittleEndian.Uint32(headerBytes[0:4])
	if h.magic != magicSnapshotHeader {
		return fmt.Errorf("bad magic number (%x) -- not a snapshot file or corrupted", h.magic)
	}
	h.formatVersion = binary.LittleEndian.Uint32(headerBytes[4:8])
	if h.formatVersion != fileFormatVersion {
		return fmt.Errorf("can only read v%d snapshot files; found v%d", fileFormatVersion, h.formatVersion)
	}
	h.recordCount = binary.LittleEndian.Uint64(headerBytes[8:16])
	h.indexStart = binary.LittleEndian.Uint64(headerBytes[16:24])
	h.indexLevel0Count = binary.LittleEndian.Uint64(headerBytes[24:32])
	h.indexLevel1Count = binary.LittleEndian.Uint64(headerBytes[32:40])
	return nil
}
