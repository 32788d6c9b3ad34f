// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package env

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// BalanceSize is the wire width of a Balance.
const BalanceSize = 16

// Balance is an unsigned 128-bit amount, stored as its little-endian wire
// form.
type Balance [BalanceSize]byte

// NewBalance returns v as a Balance.
func NewBalance(v uint64) Balance {
	var b Balance
	binary.LittleEndian.PutUint64(b[:8], v)
	return b
}

// BalanceFromBig converts v, which must fit in 128 unsigned bits.
func BalanceFromBig(v *big.Int) (Balance, error) {
	var b Balance
	if v.Sign() < 0 || v.BitLen() > 128 {
		return b, fmt.Errorf("env: %s does not fit in an unsigned 128-bit balance", v)
	}
	be := v.FillBytes(make([]byte, BalanceSize))
	for i := 0; i < BalanceSize; i++ {
		b[i] = be[BalanceSize-1-i]
	}
	return b, nil
}

// ParseBalance parses a base-10 amount.
func ParseBalance(s string) (Balance, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Balance{}, fmt.Errorf("env: invalid balance %q", s)
	}
	return BalanceFromBig(v)
}

func (b Balance) IsZero() bool {
	return b == Balance{}
}

// Uint64 returns the low 64 bits and whether the value fit in them.
func (b Balance) Uint64() (uint64, bool) {
	hi := binary.LittleEndian.Uint64(b[8:])
	return binary.LittleEndian.Uint64(b[:8]), hi == 0
}

func (b Balance) Big() *big.Int {
	be := make([]byte, BalanceSize)
	for i := 0; i < BalanceSize; i++ {
		be[i] = b[BalanceSize-1-i]
	}
	return new(big.Int).SetBytes(be)
}

func (b Balance) String() string {
	return b.Big().String()
}
