// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package primitives contains the fixed-width identifiers shared by the
// storage and dispatch layers.
package primitives

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// KeySize is the width in bytes of a storage Key.
const KeySize = 32

var (
	ErrBadKeyLength = errors.New("primitives: key must be 32 bytes")
)

// Key addresses exactly one slot in the host's flat key/value store.
type Key [KeySize]byte

// KeyFromBytes copies b into a Key.  b must be exactly KeySize bytes.
func KeyFromBytes(b []byte) (Key, error) {
	var k Key
	if len(b) != KeySize {
		return k, fmt.Errorf("%w: got %d", ErrBadKeyLength, len(b))
	}
	copy(k[:], b)
	return k, nil
}

// ParseKey decodes a hex string, with or without a 0x prefix.
func ParseKey(s string) (Key, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return Key{}, fmt.Errorf("hex.DecodeString: %w", err)
	}
	return KeyFromBytes(b)
}

// Add returns k+n, treating k as a little-endian 256-bit unsigned integer.
// The addition wraps on overflow.
func (k Key) Add(n uint64) Key {
	var out Key
	carry := n
	for i := 0; i < KeySize; i += 8 {
		word := binary.LittleEndian.Uint64(k[i : i+8])
		sum := word + carry
		if sum < word {
			carry = 1
		} else {
			carry = 0
		}
		binary.LittleEndian.PutUint64(out[i:i+8], sum)
	}
	return out
}

// Bytes returns a copy of the key's bytes.
func (k Key) Bytes() []byte {
	b := make([]byte, KeySize)
	copy(b, k[:])
	return b
}

func (k Key) IsZero() bool {
	return k == Key{}
}

func (k Key) String() string {
	return "0x" + hex.EncodeToString(k[:])
}
