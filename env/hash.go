// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package env

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// HashAlgorithm names one of the digests a host can compute.
type HashAlgorithm uint8

const (
	Blake2x256 HashAlgorithm = iota
	Blake2x128
	Sha2x256
	Keccak256
)

// Size returns the digest width in bytes.
func (a HashAlgorithm) Size() int {
	switch a {
	case Blake2x128:
		return 16
	case Blake2x256, Sha2x256, Keccak256:
		return 32
	default:
		return 0
	}
}

func (a HashAlgorithm) String() string {
	switch a {
	case Blake2x256:
		return "blake2x256"
	case Blake2x128:
		return "blake2x128"
	case Sha2x256:
		return "sha2x256"
	case Keccak256:
		return "keccak256"
	default:
		return fmt.Sprintf("HashAlgorithm(%d)", uint8(a))
	}
}

// ParseHashAlgorithm is the inverse of HashAlgorithm.String.
func ParseHashAlgorithm(s string) (HashAlgorithm, error) {
	for _, a := range []HashAlgorithm{Blake2x256, Blake2x128, Sha2x256, Keccak256} {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("env: unknown hash algorithm %q", s)
}

// Hash computes the digest of input under alg.  Hosts that don't delegate
// hashing elsewhere use this directly.  An unknown algorithm is a
// programming error and panics.
func Hash(alg HashAlgorithm, input []byte) []byte {
	switch alg {
	case Blake2x256:
		sum := blake2b.Sum256(input)
		return sum[:]
	case Blake2x128:
		h, err := blake2b.New(16, nil)
		if err != nil {
			panic(fmt.Errorf("invariant broken: blake2b.New(16): %w", err))
		}
		_, _ = h.Write(input)
		return h.Sum(nil)
	case Sha2x256:
		sum := sha256.Sum256(input)
		return sum[:]
	case Keccak256:
		h := sha3.NewLegacyKeccak256()
		_, _ = h.Write(input)
		return h.Sum(nil)
	default:
		panic(fmt.Errorf("invariant broken: unknown hash algorithm %d", uint8(alg)))
	}
}
