// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package codec is the single value encoding used for everything that
// crosses the storage or call boundary: packed storage cells, logical map
// keys, argument tuples and return values.
//
// Values are encoded as core deterministic CBOR (RFC 8949 §4.2.1), so the
// same Go value always produces the same bytes.  That property is what lets
// storage addresses be derived by hashing encoded keys.  Argument tuples are
// structs tagged `cbor:",toarray"`, which encode positionally:
//
//	type transferArgs struct {
//		_      struct{} `cbor:",toarray"`
//		To     string
//		Amount uint64
//	}
package codec

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	ErrEmptyInput = errors.New("codec: empty input")
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Errorf("invariant broken: cbor.EncMode: %w", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}.DecMode()
	if err != nil {
		panic(fmt.Errorf("invariant broken: cbor.DecMode: %w", err))
	}
}

// Marshal returns the deterministic encoding of v.
func Marshal(v any) ([]byte, error) {
	b, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec.Marshal(%T): %w", v, err)
	}
	return b, nil
}

// Unmarshal decodes exactly one value from data into v.  Trailing bytes are
// an error.
func Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return ErrEmptyInput
	}
	if err := decMode.Unmarshal(data, v); err != nil {
		return fmt.Errorf("codec.Unmarshal(%T): %w", v, err)
	}
	return nil
}

// Valid reports whether data holds exactly one well-formed value.
func Valid(data []byte) bool {
	return len(data) > 0 && decMode.Valid(data) == nil
}
